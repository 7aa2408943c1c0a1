package slug

import "errors"

var (
	// ErrInvalidBase is returned when neither the base nor the fallback normalizes to a
	// non-empty slug.
	ErrInvalidBase = errors.New("slug: base normalizes to an empty slug")

	// ErrCollisionExhausted is returned when no free candidate was found within the attempt
	// cap, or when concurrent writers kept taking the resolved slug.
	ErrCollisionExhausted = errors.New("slug: collision attempts exhausted")

	// ErrTaken is returned by stores when a unique constraint rejected the slug.
	ErrTaken = errors.New("slug: already taken")
)
