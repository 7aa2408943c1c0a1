// Package tasks holds the background tasks the directory service registers with
// the job manager.
package tasks

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/directory/pkg/logger"
	"github.com/dmitrymomot/directory/pkg/profile"
)

const (
	BackfillSlugsName     = "profiles.backfill_slugs"
	DefaultBackfillPeriod = "@hourly"
)

// Backfiller assigns slugs to profiles stored without one.
type Backfiller interface {
	Backfill(ctx context.Context) (int, error)
}

var _ Backfiller = (*profile.Service)(nil)

// BackfillSlugs runs the profile slug backfill on a schedule.
type BackfillSlugs struct {
	profiles Backfiller
	logger   *slog.Logger
	schedule string
}

// NewBackfillSlugs creates the task. An empty schedule means hourly.
func NewBackfillSlugs(profiles Backfiller, schedule string, log *slog.Logger) *BackfillSlugs {
	if schedule == "" {
		schedule = DefaultBackfillPeriod
	}
	if log == nil {
		log = logger.NewNope()
	}
	return &BackfillSlugs{profiles: profiles, schedule: schedule, logger: log}
}

func (t *BackfillSlugs) Name() string     { return BackfillSlugsName }
func (t *BackfillSlugs) Schedule() string { return t.schedule }

func (t *BackfillSlugs) Handle(ctx context.Context) error {
	n, err := t.profiles.Backfill(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		t.logger.InfoContext(ctx, "profile slugs backfilled", slog.Int("updated", n))
	}
	return nil
}
