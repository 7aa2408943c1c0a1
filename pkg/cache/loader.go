package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/directory/pkg/logger"
)

// Loader is a read-through cache in front of a Store. Concurrent misses for the same key
// share one load.
type Loader[V any] struct {
	store      Store[V]
	logger     *slog.Logger
	group      singleflight.Group
	ttl        time.Duration
	generation atomic.Uint64
}

// LoaderOption configures a Loader.
type LoaderOption func(*loaderOptions)

type loaderOptions struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report store failures.
func WithLogger(l *slog.Logger) LoaderOption {
	return func(o *loaderOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewLoader wraps store. Loaded values are kept for ttl.
func NewLoader[V any](store Store[V], ttl time.Duration, opts ...LoaderOption) *Loader[V] {
	o := loaderOptions{logger: logger.NewNope()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Loader[V]{store: store, ttl: ttl, logger: o.logger}
}

// Get returns the cached value for key or calls load and caches its result.
// Store failures are logged and treated as misses; load errors are returned uncached.
func (l *Loader[V]) Get(ctx context.Context, key string, load func(ctx context.Context) (V, error)) (V, error) {
	v, err := l.store.Get(ctx, key)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, ErrNotFound) {
		l.logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.Any("error", err))
	}

	gen := l.generation.Load()
	// The shared load outlives any single caller's cancellation.
	shared := context.WithoutCancel(ctx)
	res, err, _ := l.group.Do(key, func() (any, error) {
		v, err := load(shared)
		if err != nil {
			return nil, err
		}
		// A value loaded across an invalidation may already be stale.
		if l.generation.Load() == gen {
			if err := l.store.Set(shared, key, v, l.ttl); err != nil {
				l.logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.Any("error", err))
			}
		}
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	v, _ = res.(V)
	return v, nil
}

// Invalidate drops keys and prevents loads already in flight from storing their result.
func (l *Loader[V]) Invalidate(ctx context.Context, keys ...string) error {
	l.generation.Add(1)
	for _, k := range keys {
		l.group.Forget(k)
	}
	return l.store.Delete(ctx, keys...)
}
