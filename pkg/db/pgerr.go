package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// IsUniqueViolation reports whether err is a unique constraint violation and returns the
// name of the violated constraint.
func IsUniqueViolation(err error) (string, bool) {
	return violation(err, codeUniqueViolation)
}

// IsForeignKeyViolation reports whether err is a foreign key violation and returns the
// name of the violated constraint.
func IsForeignKeyViolation(err error) (string, bool) {
	return violation(err, codeForeignKeyViolation)
}

// IsCheckViolation reports whether err is a check constraint violation and returns the
// name of the violated constraint.
func IsCheckViolation(err error) (string, bool) {
	return violation(err, codeCheckViolation)
}

func violation(err error, code string) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == code {
		return pgErr.ConstraintName, true
	}
	return "", false
}
