package profile

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/directory/pkg/override"
	"github.com/dmitrymomot/directory/pkg/slug"
)

// Repository opens transactions over profile storage.
type Repository interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of reads and writes available inside one transaction.
// Create and Update return an error wrapping slug.ErrTaken when the store rejects the slug.
type Tx interface {
	override.Tracker

	ListSlugs(ctx context.Context) (slug.Set, error)
	Get(ctx context.Context, id uuid.UUID) (Profile, error)
	GetBySlug(ctx context.Context, s string) (Profile, error)
	Create(ctx context.Context, p Profile) (Profile, error)
	Update(ctx context.Context, p Profile) (Profile, error)
	// ListWithoutSlug returns up to limit profiles whose slug is empty, oldest first.
	ListWithoutSlug(ctx context.Context, limit int) ([]uuid.UUID, error)
}
