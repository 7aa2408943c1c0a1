package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/directory/internal/api"
	"github.com/dmitrymomot/directory/internal/tasks"
	"github.com/dmitrymomot/directory/pkg/db"
	"github.com/dmitrymomot/directory/pkg/health"
	"github.com/dmitrymomot/directory/pkg/job"
	"github.com/dmitrymomot/directory/pkg/redis"
)

// NewJobs builds the job manager with the directory's tasks registered.
func (a *App) NewJobs() (*job.Manager, error) {
	return job.NewManager(a.Pool,
		job.WithPeriodicTask(tasks.NewBackfillSlugs(a.Profiles, a.Config.App.BackfillSchedule, a.Logger)),
		job.WithMaxWorkers(a.Config.App.JobWorkers),
		job.WithLogger(a.Logger),
	)
}

// Serve runs the HTTP API and the job workers until ctx is canceled or the
// process receives SIGINT or SIGTERM, then shuts both down gracefully.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	jobs, err := a.NewJobs()
	if err != nil {
		return err
	}

	checker := health.New(
		health.WithLogger(a.Logger),
		health.WithCheck("database", db.Healthcheck(a.Pool)),
		health.WithCheck("jobs", jobs.Healthcheck()),
	)
	if a.Redis != nil {
		checker.Add("redis", redis.Healthcheck(a.Redis))
	}

	srv := api.NewServer(a.Categories, a.Profiles,
		api.WithLogger(a.Logger),
		api.WithLinks(a.Links),
		api.WithHealth(checker),
		api.WithTreeCache(a.TreeStore, a.Config.App.TreeCacheTTL),
		api.WithCORS(a.Config.HTTP.CORSOrigins...),
		api.WithRequestTimeout(a.Config.HTTP.RequestTimeout),
		api.WithBodyLimit(a.Config.HTTP.MaxBodyBytes),
	)
	server := &http.Server{
		Addr:         a.Config.HTTP.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  a.Config.HTTP.ReadTimeout,
		WriteTimeout: a.Config.HTTP.WriteTimeout,
	}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return err
	}

	if err := jobs.Start(context.WithoutCancel(ctx)); err != nil {
		return errors.Join(err, ln.Close())
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	errs := []error{serveErr}
	if err := server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := jobs.Stop(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		a.Logger.Error("shutdown completed with errors", slog.Any("error", err))
		return err
	}
	a.Logger.Info("shutdown completed")
	return nil
}
