package db_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/directory/pkg/db"
)

func TestConstraintViolations(t *testing.T) {
	t.Parallel()

	unique := &pgconn.PgError{Code: "23505", ConstraintName: "categories_slug_key"}
	fk := &pgconn.PgError{Code: "23503", ConstraintName: "categories_parent_id_fkey"}

	t.Run("unique", func(t *testing.T) {
		t.Parallel()

		name, ok := db.IsUniqueViolation(fmt.Errorf("insert: %w", unique))
		assert.True(t, ok)
		assert.Equal(t, "categories_slug_key", name)

		_, ok = db.IsUniqueViolation(fk)
		assert.False(t, ok)
	})

	t.Run("foreign key", func(t *testing.T) {
		t.Parallel()

		name, ok := db.IsForeignKeyViolation(errors.Join(errors.New("delete"), fk))
		assert.True(t, ok)
		assert.Equal(t, "categories_parent_id_fkey", name)

		_, ok = db.IsForeignKeyViolation(unique)
		assert.False(t, ok)
	})

	t.Run("other errors", func(t *testing.T) {
		t.Parallel()

		_, ok := db.IsUniqueViolation(errors.New("boom"))
		assert.False(t, ok)
		_, ok = db.IsForeignKeyViolation(nil)
		assert.False(t, ok)
	})
}

func TestLockKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, db.LockKey("categories.hierarchy"), db.LockKey("categories.hierarchy"))
	assert.NotEqual(t, db.LockKey("categories.hierarchy"), db.LockKey("profiles.slugs"))
}

func TestConnect_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := db.Connect(context.Background(), db.Config{ConnectionString: "://not a url"})
	require.ErrorIs(t, err, db.ErrFailedToParseDBConfig)
}

func TestWithTx(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, db.Config{ConnectionString: dsn, RetryAttempts: 1})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.Healthcheck(pool)(ctx))

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.WithTx(ctx, pool, func(ctx context.Context, tx pgx.Tx) error {
			if err := db.AdvisoryXactLock(ctx, tx, db.LockKey("withtx.probe")); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, "CREATE TABLE withtx_rollback_probe (v int)"); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		var exists bool
		require.NoError(t, pool.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'withtx_rollback_probe')",
		).Scan(&exists))
		assert.False(t, exists)
	})

	t.Run("read only rejects writes", func(t *testing.T) {
		err := db.WithTx(ctx, pool, func(ctx context.Context, tx pgx.Tx) error {
			_, err := tx.Exec(ctx, "CREATE TABLE withtx_readonly_probe (v int)")
			return err
		}, db.ReadOnly())
		require.Error(t, err)
	})
}
