package taxonomy

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/directory/pkg/override"
	"github.com/dmitrymomot/directory/pkg/slug"
)

// Repository is the persistence port of the taxonomy. Every Graph operation runs inside a
// single WithinTx call: if fn returns an error nothing it wrote may become visible.
type Repository interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the unit of work handed to WithinTx.
//
// The override.Tracker methods operate on the node's manual-slug flag and return an error
// wrapping ErrNotFound for unknown ids.
type Tx interface {
	override.Tracker

	// LockHierarchy blocks other structural mutations until the transaction ends.
	// It must be called before reading edges that a mutation depends on.
	LockHierarchy(ctx context.Context) error

	ListEdges(ctx context.Context) ([]Edge, error)
	ListSlugs(ctx context.Context) (slug.Set, error)
	List(ctx context.Context) ([]Node, error)

	// Get and GetBySlug return ErrNotFound for unknown nodes. GetBySlug ignores case.
	Get(ctx context.Context, id uuid.UUID) (Node, error)
	GetBySlug(ctx context.Context, s string) (Node, error)

	// Create stores a new node and assigns its id. It returns slug.ErrTaken when the slug
	// is already used and ErrParentNotFound when the parent row is missing.
	Create(ctx context.Context, n Node) (Node, error)

	// Update writes name, slug and visibility of an existing node. The stored parent is
	// left untouched. It returns slug.ErrTaken when the slug is already used by another node.
	Update(ctx context.Context, n Node) (Node, error)

	// SetParent moves the node. Callers hold the hierarchy lock and have checked for cycles.
	// It returns ErrParentNotFound when the parent row is missing.
	SetParent(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) (Node, error)

	// Delete removes the node. Stores that enforce references return ErrChildrenExist or
	// ErrReferencesExist when rows still point at the node.
	Delete(ctx context.Context, id uuid.UUID) error

	CountChildren(ctx context.Context, id uuid.UUID) (int, error)
	CountLinkedEntities(ctx context.Context, id uuid.UUID) (int, error)
}
