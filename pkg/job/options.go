package job

import (
	"context"
	"log/slog"
)

type config struct {
	registry   *registry
	queues     map[string]int
	logger     *slog.Logger
	schedules  []schedule
	maxWorkers int
	runOnStart bool
}

type schedule struct {
	handler periodic
	name    string
	expr    string
}

// Option configures the Manager.
type Option func(*config)

// WithTask registers a task with a typed payload. The payload type is
// inferred from the Handle signature.
func WithTask[P any, T interface {
	Name() string
	Handle(context.Context, P) error
}](task T) Option {
	return func(c *config) {
		c.registry.register(task.Name(), typed[P, T]{task: task})
	}
}

// WithPeriodicTask registers a task that runs on its cron Schedule. It can
// also be enqueued by name with a nil payload.
func WithPeriodicTask[T interface {
	Name() string
	Schedule() string
	Handle(context.Context) error
}](task T) Option {
	return func(c *config) {
		c.schedules = append(c.schedules, schedule{
			name:    task.Name(),
			expr:    task.Schedule(),
			handler: task.Handle,
		})
	}
}

// WithRunOnStart makes every periodic task run once when the manager starts.
func WithRunOnStart() Option {
	return func(c *config) {
		c.runOnStart = true
	}
}

// WithQueue adds a named queue with its own worker count.
func WithQueue(name string, workers int) Option {
	return func(c *config) {
		if name != "" && workers > 0 {
			c.queues[name] = workers
		}
	}
}

// WithMaxWorkers sets the worker count of the default queue. Defaults to 10.
func WithMaxWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}

// WithLogger sets the logger for the manager and River.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
