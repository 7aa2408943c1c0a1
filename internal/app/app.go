// Package app assembles the directory service from its configuration.
package app

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/directory/internal/config"
	"github.com/dmitrymomot/directory/internal/repository"
	"github.com/dmitrymomot/directory/pkg/cache"
	"github.com/dmitrymomot/directory/pkg/db"
	"github.com/dmitrymomot/directory/pkg/logger"
	"github.com/dmitrymomot/directory/pkg/profile"
	"github.com/dmitrymomot/directory/pkg/redis"
	"github.com/dmitrymomot/directory/pkg/taxonomy"
)

const treeCachePrefix = "directory:"

// App holds the connected dependencies shared by every command.
type App struct {
	Config     config.Config
	Logger     *slog.Logger
	Pool       *pgxpool.Pool
	Redis      goredis.UniversalClient
	Categories *taxonomy.Graph
	Profiles   *profile.Service
	Links      *repository.Links
	TreeStore  cache.Store[[]*taxonomy.TreeNode]

	closers []func(context.Context) error
}

// NewLogger builds the service logger with request and context attributes.
func NewLogger(cfg config.Config) *slog.Logger {
	return logger.New(cfg.Log,
		logger.WithExtractors(logger.RequestID, logger.ContextAttrs),
		logger.WithStatic(slog.String("service", cfg.App.ServiceName)),
	)
}

// New connects to Postgres and, when configured, Redis.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: log}

	pool, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.Pool = pool
	a.closers = append(a.closers, db.Shutdown(pool))

	if cfg.Redis.Enabled() {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, errors.Join(err, a.Close(ctx))
		}
		a.Redis = client
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		a.TreeStore = cache.NewRedis[[]*taxonomy.TreeNode](client, treeCachePrefix)
	} else {
		mem := cache.NewMemory[[]*taxonomy.TreeNode]()
		a.TreeStore = mem
		a.closers = append(a.closers, func(context.Context) error { return mem.Close() })
	}

	a.Categories = taxonomy.NewGraph(repository.NewCategories(pool),
		taxonomy.WithLogger(log),
		taxonomy.WithSlugRetries(cfg.App.SlugRetries),
	)
	a.Profiles = profile.NewService(repository.NewProfiles(pool),
		profile.WithLogger(log),
		profile.WithSlugRetries(cfg.App.SlugRetries),
	)
	a.Links = repository.NewLinks(pool)
	return a, nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for _, closeFn := range slices.Backward(a.closers) {
		if err := closeFn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
