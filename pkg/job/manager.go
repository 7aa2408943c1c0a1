package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/dmitrymomot/directory/pkg/logger"
)

const defaultMaxWorkers = 10

// Manager runs registered tasks on River and enqueues new jobs for them.
type Manager struct {
	pool     *pgxpool.Pool
	client   *river.Client[pgx.Tx]
	registry *registry
	logger   *slog.Logger

	mu      sync.Mutex
	started bool
}

// NewManager builds the River client. Jobs may be enqueued before Start.
func NewManager(pool *pgxpool.Pool, opts ...Option) (*Manager, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}

	cfg, periodicJobs, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	queues := map[string]river.QueueConfig{
		river.QueueDefault: {MaxWorkers: cfg.maxWorkers},
	}
	for name, workers := range cfg.queues {
		queues[name] = river.QueueConfig{MaxWorkers: workers}
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &worker{registry: cfg.registry, logger: cfg.logger})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:       queues,
		Workers:      workers,
		PeriodicJobs: periodicJobs,
		Logger:       cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("job: create client: %w", err)
	}

	return &Manager{
		pool:     pool,
		client:   client,
		registry: cfg.registry,
		logger:   cfg.logger,
	}, nil
}

func newConfig(opts ...Option) (*config, []*river.PeriodicJob, error) {
	cfg := &config{
		registry:   newRegistry(),
		queues:     make(map[string]int),
		logger:     logger.NewNope(),
		maxWorkers: defaultMaxWorkers,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	jobs := make([]*river.PeriodicJob, 0, len(cfg.schedules))
	for _, s := range cfg.schedules {
		sched, err := ParseSchedule(s.expr)
		if err != nil {
			return nil, nil, fmt.Errorf("job: task %s: %w", s.name, err)
		}
		name := s.name
		jobs = append(jobs, river.NewPeriodicJob(
			sched,
			func() (river.JobArgs, *river.InsertOpts) {
				return taskArgs{Task: name}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: cfg.runOnStart},
		))
		cfg.registry.register(name, s.handler)
	}
	return cfg, jobs, nil
}

// Tasks returns the registered task names.
func (m *Manager) Tasks() []string {
	return m.registry.names()
}

// Start begins working jobs.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return ErrAlreadyStarted
	}
	if err := m.client.Start(ctx); err != nil {
		return fmt.Errorf("job: start client: %w", err)
	}
	m.started = true
	m.logger.InfoContext(ctx, "job manager started", slog.Any("tasks", m.registry.names()))
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return ErrNotStarted
	}
	if err := m.client.Stop(ctx); err != nil {
		return fmt.Errorf("job: stop client: %w", err)
	}
	m.started = false
	m.logger.InfoContext(ctx, "job manager stopped")
	return nil
}

// Enqueue inserts a job for a registered task.
func (m *Manager) Enqueue(ctx context.Context, name string, payload any, opts ...EnqueueOption) error {
	args, insert, err := m.prepare(name, payload, opts...)
	if err != nil {
		return err
	}
	if _, err := m.client.Insert(ctx, args, insert); err != nil {
		return fmt.Errorf("job: enqueue %s: %w", name, err)
	}
	return nil
}

// EnqueueTx inserts a job that becomes visible when tx commits.
func (m *Manager) EnqueueTx(ctx context.Context, tx pgx.Tx, name string, payload any, opts ...EnqueueOption) error {
	args, insert, err := m.prepare(name, payload, opts...)
	if err != nil {
		return err
	}
	if _, err := m.client.InsertTx(ctx, tx, args, insert); err != nil {
		return fmt.Errorf("job: enqueue %s: %w", name, err)
	}
	return nil
}

func (m *Manager) prepare(name string, payload any, opts ...EnqueueOption) (taskArgs, *river.InsertOpts, error) {
	if _, ok := m.registry.get(name); !ok {
		return taskArgs{}, nil, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return buildArgs(name, payload, opts...)
}

// Healthcheck reports whether the manager is running and its pool answers.
func (m *Manager) Healthcheck() func(ctx context.Context) error {
	return func(ctx context.Context) error {
		m.mu.Lock()
		started := m.started
		m.mu.Unlock()

		if !started {
			return errors.Join(ErrHealthcheckFailed, ErrNotStarted)
		}
		if err := m.pool.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

// taskArgs is the single River job kind. Task selects the registered handler.
type taskArgs struct {
	Task    string          `json:"task"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (taskArgs) Kind() string { return "directory:task" }

type worker struct {
	river.WorkerDefaults[taskArgs]
	registry *registry
	logger   *slog.Logger
}

func (w *worker) Work(ctx context.Context, job *river.Job[taskArgs]) error {
	e, ok := w.registry.get(job.Args.Task)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, job.Args.Task)
	}

	log := w.logger.With(
		slog.String("task", job.Args.Task),
		slog.Int64("job_id", job.ID),
		slog.Int("attempt", job.Attempt),
	)
	log.DebugContext(ctx, "executing task")

	if err := e.Execute(ctx, job.Args.Payload); err != nil {
		log.ErrorContext(ctx, "task failed", slog.Any("error", err))
		if errors.Is(err, ErrInvalidPayload) {
			return river.JobCancel(err)
		}
		return err
	}

	log.DebugContext(ctx, "task completed")
	return nil
}
