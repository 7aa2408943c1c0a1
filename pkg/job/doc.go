// Package job runs background tasks on River, a Postgres backed queue.
//
// Tasks are plain structs. A task with a payload has Name and
// Handle(ctx, P); a periodic task has Name, Schedule and Handle(ctx):
//
//	type BackfillSlugs struct{ profiles *profile.Service }
//
//	func (t *BackfillSlugs) Name() string     { return "profiles.backfill_slugs" }
//	func (t *BackfillSlugs) Schedule() string { return "@hourly" }
//	func (t *BackfillSlugs) Handle(ctx context.Context) error {
//		_, err := t.profiles.Backfill(ctx)
//		return err
//	}
//
//	manager, err := job.NewManager(pool,
//		job.WithPeriodicTask(&BackfillSlugs{profiles: svc}),
//		job.WithLogger(log),
//	)
//
// Every task shares one River job kind and is dispatched by name, so a
// periodic task can also be enqueued on demand:
//
//	err := manager.Enqueue(ctx, "profiles.backfill_slugs", nil, job.UniqueFor(time.Minute))
//
// River keeps its tables in the same database. Run [Migrate] before starting
// a manager.
package job
