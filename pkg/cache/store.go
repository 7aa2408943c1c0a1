package cache

import (
	"context"
	"time"
)

// Store is a key-value store with per-entry expiry. A non-positive ttl means the entry
// does not expire.
type Store[V any] interface {
	// Get returns ErrNotFound for missing or expired keys.
	Get(ctx context.Context, key string) (V, error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
