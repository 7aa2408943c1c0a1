// Command directory runs the directory API and its maintenance tasks.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/directory/internal/api"
	"github.com/dmitrymomot/directory/internal/app"
	"github.com/dmitrymomot/directory/internal/config"
	"github.com/dmitrymomot/directory/internal/tasks"
	"github.com/dmitrymomot/directory/migrations"
	"github.com/dmitrymomot/directory/pkg/db"
	"github.com/dmitrymomot/directory/pkg/job"
	"github.com/dmitrymomot/directory/pkg/logger"
	"github.com/dmitrymomot/directory/pkg/seed"
)

const flushTimeout = 2 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:           "directory",
		Short:         "Directory service with unique slugs and a category hierarchy",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newSeedCmd(),
		newBackfillCmd(),
	)

	err := rootCmd.Execute()
	logger.Flush(flushTimeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withApp loads the configuration, connects, runs fn and closes the connections.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := app.NewLogger(cfg)
	ctx := logger.WithAttrs(cmd.Context(), slog.String("command", cmd.Name()))

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.ErrorContext(ctx, "startup failed", slog.Any("error", err))
		return err
	}
	defer func() {
		if err := a.Close(context.WithoutCancel(ctx)); err != nil {
			log.ErrorContext(ctx, "close failed", slog.Any("error", err))
		}
	}()

	if err := fn(ctx, a); err != nil {
		log.ErrorContext(ctx, "command failed", slog.Any("error", err))
		return err
	}
	return nil
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
					if err := runMigrations(ctx, a); err != nil {
						return err
					}
				}
				return a.Serve(ctx)
			})
		},
	}
	cmd.Flags().Bool("migrate", false, "Apply migrations before serving")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema and job queue migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, runMigrations)
		},
	}
}

func runMigrations(ctx context.Context, a *app.App) error {
	if err := db.Migrate(ctx, a.Pool, migrations.FS, a.Config.Database.MigrationsTable, a.Logger); err != nil {
		return err
	}
	return job.Migrate(ctx, a.Pool, a.Logger)
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Insert a category tree from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := seed.ParseFile(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := seed.Apply(ctx, a.Categories, file, seed.WithLogger(a.Logger))
				if err != nil {
					return err
				}
				if res.Created > 0 {
					if err := a.TreeStore.Delete(ctx, api.TreeCacheKey); err != nil {
						a.Logger.WarnContext(ctx, "tree cache invalidation failed", slog.Any("error", err))
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created=%d existing=%d\n", res.Created, res.Existing)
				return nil
			})
		},
	}
}

func newBackfillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Assign slugs to profiles stored without one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			async, _ := cmd.Flags().GetBool("async")
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if async {
					jobs, err := a.NewJobs()
					if err != nil {
						return err
					}
					if err := jobs.Enqueue(ctx, tasks.BackfillSlugsName, nil, job.UniqueFor(time.Minute)); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "enqueued", tasks.BackfillSlugsName)
					return nil
				}

				n, err := a.Profiles.Backfill(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated=%d\n", n)
				return nil
			})
		},
	}
	cmd.Flags().Bool("async", false, "Enqueue the backfill for the job workers instead of running it here")
	return cmd
}
