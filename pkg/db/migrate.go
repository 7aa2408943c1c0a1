package db

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

// Migrate applies every pending migration found in migrations. The database/sql handle
// shares the pool's connections and is not closed here.
func Migrate(ctx context.Context, pool *pgxpool.Pool, migrations fs.FS, table string, log *slog.Logger) error {
	if table == "" {
		table = "goose_db_version"
	}
	store, err := database.NewStore(database.DialectPostgres, table)
	if err != nil {
		return errors.Join(ErrSetDialect, err)
	}

	provider, err := goose.NewProvider("", stdlib.OpenDBFromPool(pool), migrations, goose.WithStore(store))
	if err != nil {
		return errors.Join(ErrSetDialect, err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return errors.Join(ErrApplyMigrations, err)
	}

	for _, r := range results {
		log.InfoContext(ctx, "migration applied",
			slog.Int64("version", r.Source.Version),
			slog.String("file", r.Source.Path),
			slog.Duration("duration", r.Duration),
		)
	}
	if len(results) == 0 {
		log.InfoContext(ctx, "database schema is up to date")
	}
	return nil
}
