package slug

import (
	"strconv"
	"strings"
)

// DefaultMaxAttempts caps the suffix search performed by Unique.
const DefaultMaxAttempts = 10_000

type options struct {
	exclude     string
	fallback    string
	maxAttempts int
}

// Option configures Unique.
type Option func(*options)

// Exclude removes the caller's own current slug from the collision check.
// Use it when re-resolving the slug of an entity that already owns one.
func Exclude(current string) Option {
	return func(o *options) {
		o.exclude = strings.ToLower(current)
	}
}

// Fallback sets the base used when the primary base normalizes to "".
// The fallback is normalized with Make as well.
func Fallback(base string) Option {
	return func(o *options) {
		o.fallback = base
	}
}

// MaxAttempts overrides the number of suffixed candidates tried before giving up.
// Non-positive values keep the default.
func MaxAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// Unique normalizes base and returns the first candidate that is not present in existing:
// the base itself, then base-2, base-3 and so on. The result is deterministic for the same
// arguments.
func Unique(base string, existing Set, opts ...Option) (string, error) {
	o := &options{maxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		opt(o)
	}

	candidate := Make(base)
	if candidate == "" {
		candidate = Make(o.fallback)
	}
	if candidate == "" {
		return "", ErrInvalidBase
	}

	taken := func(s string) bool {
		if o.exclude != "" && s == o.exclude {
			return false
		}
		return existing.Has(s)
	}

	if !taken(candidate) {
		return candidate, nil
	}

	for n := 2; n <= o.maxAttempts+1; n++ {
		next := Make(candidate + "-" + strconv.Itoa(n))
		if !taken(next) {
			return next, nil
		}
	}

	return "", ErrCollisionExhausted
}
