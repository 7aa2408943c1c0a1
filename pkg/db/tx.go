package db

import (
	"context"
	"errors"
	"hash/fnv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx shared by pools, connections and transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ Querier = (*pgxpool.Pool)(nil)
	_ Querier = (pgx.Tx)(nil)
)

// TxOption adjusts the transaction options used by WithTx.
type TxOption func(*pgx.TxOptions)

// ReadOnly starts a read-only transaction.
func ReadOnly() TxOption {
	return func(o *pgx.TxOptions) { o.AccessMode = pgx.ReadOnly }
}

// Isolation sets the isolation level.
func Isolation(level pgx.TxIsoLevel) TxOption {
	return func(o *pgx.TxOptions) { o.IsoLevel = level }
}

// WithTx runs fn inside a transaction. The transaction is committed when fn returns nil and
// rolled back otherwise, including when fn panics.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context, tx pgx.Tx) error, opts ...TxOption) (err error) {
	var txOpts pgx.TxOptions
	for _, opt := range opts {
		opt(&txOpts)
	}

	tx, err := pool.BeginTx(ctx, txOpts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, rbErr)
		}
		return err
	}

	return tx.Commit(ctx)
}

// LockKey maps a lock name to an advisory lock key.
func LockKey(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64())
}

// AdvisoryXactLock blocks until the transaction holds the advisory lock for key.
// Postgres releases it at commit or rollback.
func AdvisoryXactLock(ctx context.Context, q Querier, key int64) error {
	_, err := q.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", key)
	return err
}
