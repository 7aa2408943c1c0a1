// Package repository implements the taxonomy and profile storage ports on PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dmitrymomot/directory/pkg/db"
	"github.com/dmitrymomot/directory/pkg/override"
	"github.com/dmitrymomot/directory/pkg/slug"
)

// Constraint names from migrations/. Violations are translated into domain errors by name.
const (
	categorySlugKey      = "categories_slug_key"
	categoryParentFKey   = "categories_parent_id_fkey"
	categoryNotOwnParent = "categories_not_own_parent"
	profileSlugKey       = "profiles_slug_key"
	linkCategoryFKey     = "profile_categories_category_id_fkey"
	linkProfileFKey      = "profile_categories_profile_id_fkey"
	hierarchyLockName    = "directory.categories.hierarchy"
)

type scanner interface {
	Scan(dest ...any) error
}

func uuidPtr(v pgtype.UUID) *uuid.UUID {
	if !v.Valid {
		return nil
	}
	id := uuid.UUID(v.Bytes)
	return &id
}

func noRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func listSlugs(ctx context.Context, q db.Querier, query, op string) (slug.Set, error) {
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	set := slug.NewSet()
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		set.Add(s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return set, nil
}

// setManual and isManual take table names from package constants only.
func setManual(ctx context.Context, q db.Querier, table string, id uuid.UUID, manual bool, notFound error) error {
	tag, err := q.Exec(ctx, `UPDATE `+table+` SET manual_slug = @manual WHERE id = @id`,
		pgx.NamedArgs{"id": id, "manual": manual})
	if err != nil {
		return fmt.Errorf("repository.setManual(%s): %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %w", notFound, override.ErrUnknownEntity)
	}
	return nil
}

func isManual(ctx context.Context, q db.Querier, table string, id uuid.UUID, notFound error) (bool, error) {
	var manual bool
	err := q.QueryRow(ctx, `SELECT manual_slug FROM `+table+` WHERE id = @id`,
		pgx.NamedArgs{"id": id}).Scan(&manual)
	if err != nil {
		if noRows(err) {
			return false, fmt.Errorf("%w: %w", notFound, override.ErrUnknownEntity)
		}
		return false, fmt.Errorf("repository.isManual(%s): %w", table, err)
	}
	return manual, nil
}
