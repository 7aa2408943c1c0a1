// Package db connects to PostgreSQL through pgx and holds the small helpers the
// repositories build on.
//
// # Connecting
//
//	pool, err := db.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
// Connect retries while the server is unreachable, waiting RetryInterval, then twice that,
// and so on, up to RetryAttempts tries. Healthcheck and Shutdown adapt the pool to the
// health checker and shutdown hooks.
//
// # Migrations
//
// Migrate applies goose migrations from any fs.FS, usually an embed.FS:
//
//	err := db.Migrate(ctx, pool, migrations.FS, cfg.MigrationsTable, log)
//
// # Transactions
//
// WithTx commits when fn returns nil and rolls back on error or panic:
//
//	err := db.WithTx(ctx, pool, func(ctx context.Context, tx pgx.Tx) error {
//		if err := db.AdvisoryXactLock(ctx, tx, db.LockKey("categories.hierarchy")); err != nil {
//			return err
//		}
//		// reads and writes that must not interleave with other holders of the lock
//		return nil
//	})
//
// AdvisoryXactLock takes a transaction-scoped advisory lock; Postgres drops it at commit
// or rollback, so there is nothing to release.
//
// # Constraint violations
//
// IsUniqueViolation and IsForeignKeyViolation unwrap a *pgconn.PgError and return the
// violated constraint name, letting repositories translate storage errors into domain
// errors:
//
//	if name, ok := db.IsUniqueViolation(err); ok && name == "categories_slug_key" {
//		return slug.ErrTaken
//	}
package db
