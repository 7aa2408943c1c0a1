package taxonomy

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/directory/pkg/id"
	"github.com/dmitrymomot/directory/pkg/logger"
	"github.com/dmitrymomot/directory/pkg/override"
	"github.com/dmitrymomot/directory/pkg/slug"
)

// Graph validates and commits structural changes to the category hierarchy and keeps
// category slugs unique. It holds no state besides its collaborators; every call reads a
// fresh snapshot through the Repository.
type Graph struct {
	repo        Repository
	logger      *slog.Logger
	fallback    func() string
	slugRetries int
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithSlugRetries sets how many times a write is retried after the store rejected the
// resolved slug as taken. Defaults to slug.DefaultRetryAttempts.
func WithSlugRetries(n int) Option {
	return func(g *Graph) {
		if n > 0 {
			g.slugRetries = n
		}
	}
}

// WithFallbackBase sets the generator of slug bases for names that normalize to an empty
// slug. Defaults to "category-" followed by a short sortable id.
func WithFallbackBase(fn func() string) Option {
	return func(g *Graph) {
		if fn != nil {
			g.fallback = fn
		}
	}
}

// NewGraph creates a Graph on top of repo.
func NewGraph(repo Repository, opts ...Option) *Graph {
	g := &Graph{
		repo:        repo,
		logger:      logger.NewNope(),
		fallback:    func() string { return id.Fallback("category") },
		slugRetries: slug.DefaultRetryAttempts,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Insert creates a node. A non-nil ParentID must reference an existing node.
// The slug is resolved against every category slug; an explicit Slug marks it manual.
func (g *Graph) Insert(ctx context.Context, in InsertInput) (Node, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Node{}, ErrInvalidName
	}

	var created Node
	err := g.retry(ctx, "insert", func(ctx context.Context) error {
		return g.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
			if in.ParentID != nil {
				if _, err := tx.Get(ctx, *in.ParentID); err != nil {
					return parentErr(err)
				}
			}

			existing, err := tx.ListSlugs(ctx)
			if err != nil {
				return err
			}

			manual := strings.TrimSpace(in.Slug) != ""
			var s string
			if manual {
				s, err = slug.Unique(in.Slug, existing)
			} else {
				s, err = slug.Unique(name, existing, slug.Fallback(g.fallback()))
			}
			if err != nil {
				return err
			}

			n, err := tx.Create(ctx, Node{
				Name:     name,
				Slug:     s,
				ParentID: in.ParentID,
				Visible:  in.Visible,
			})
			if err != nil {
				return err
			}

			if manual {
				if err := tx.MarkManual(ctx, n.ID); err != nil {
					return err
				}
				n.ManualSlug = true
			}

			created = n
			return nil
		})
	})
	if err != nil {
		return Node{}, err
	}

	g.logger.InfoContext(ctx, "category created",
		slog.String("category_id", created.ID.String()),
		slog.String("slug", created.Slug),
	)
	return created, nil
}

// Reparent moves the node under newParentID, or detaches it when newParentID is nil.
// The move is rejected with ErrCycleDetected when newParentID is a descendant of the node;
// a rejected move leaves every edge unchanged.
func (g *Graph) Reparent(ctx context.Context, nodeID uuid.UUID, newParentID *uuid.UUID) error {
	if newParentID != nil && *newParentID == nodeID {
		return ErrSelfParent
	}

	err := g.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.LockHierarchy(ctx); err != nil {
			return err
		}

		node, err := tx.Get(ctx, nodeID)
		if err != nil {
			return err
		}

		if newParentID != nil {
			if _, err := tx.Get(ctx, *newParentID); err != nil {
				return parentErr(err)
			}

			edges, err := tx.ListEdges(ctx)
			if err != nil {
				return err
			}
			if _, ok := Descendants(edges, nodeID)[*newParentID]; ok {
				return ErrCycleDetected
			}
		}

		if sameParent(node.ParentID, newParentID) {
			return nil
		}

		_, err = tx.SetParent(ctx, nodeID, newParentID)
		return err
	})
	if err != nil {
		g.reject(ctx, "reparent", nodeID, err)
		return err
	}

	g.logger.InfoContext(ctx, "category moved",
		slog.String("category_id", nodeID.String()),
		slog.Any("parent_id", newParentID),
	)
	return nil
}

// Delete removes a node that has neither children nor linked entities. It never cascades.
func (g *Graph) Delete(ctx context.Context, nodeID uuid.UUID) error {
	err := g.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.LockHierarchy(ctx); err != nil {
			return err
		}

		if _, err := tx.Get(ctx, nodeID); err != nil {
			return err
		}

		children, err := tx.CountChildren(ctx, nodeID)
		if err != nil {
			return err
		}
		if children > 0 {
			return ErrChildrenExist
		}

		links, err := tx.CountLinkedEntities(ctx, nodeID)
		if err != nil {
			return err
		}
		if links > 0 {
			return ErrReferencesExist
		}

		return tx.Delete(ctx, nodeID)
	})
	if err != nil {
		g.reject(ctx, "delete", nodeID, err)
		return err
	}

	g.logger.InfoContext(ctx, "category deleted", slog.String("category_id", nodeID.String()))
	return nil
}

// Rename changes the display name. The slug is re-derived from the name unless the node
// carries a manual slug override.
func (g *Graph) Rename(ctx context.Context, nodeID uuid.UUID, name string) (Node, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Node{}, ErrInvalidName
	}

	var updated Node
	err := g.retry(ctx, "rename", func(ctx context.Context) error {
		return g.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
			node, err := tx.Get(ctx, nodeID)
			if err != nil {
				return err
			}

			manual, err := tx.IsManual(ctx, nodeID)
			if err != nil {
				return err
			}

			// Every rename is a label edit, even to the current name.
			action := override.Decide(manual, true)
			node.Name = name
			if action == override.Regenerate {
				if node.Slug, err = g.resolve(ctx, tx, name, node.Slug); err != nil {
					return err
				}
			}

			updated, err = tx.Update(ctx, node)
			updated.ManualSlug = manual
			return err
		})
	})
	if err != nil {
		return Node{}, err
	}
	return updated, nil
}

// SetSlug assigns a caller-chosen slug and freezes it against later renames.
// The value is normalized and suffixed if another node already uses it.
func (g *Graph) SetSlug(ctx context.Context, nodeID uuid.UUID, value string) (Node, error) {
	var updated Node
	err := g.retry(ctx, "set_slug", func(ctx context.Context) error {
		return g.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
			node, err := tx.Get(ctx, nodeID)
			if err != nil {
				return err
			}

			existing, err := tx.ListSlugs(ctx)
			if err != nil {
				return err
			}
			if node.Slug, err = slug.Unique(value, existing, slug.Exclude(node.Slug)); err != nil {
				return err
			}

			if updated, err = tx.Update(ctx, node); err != nil {
				return err
			}
			if err := tx.MarkManual(ctx, nodeID); err != nil {
				return err
			}
			updated.ManualSlug = true
			return nil
		})
	})
	if err != nil {
		return Node{}, err
	}
	return updated, nil
}

// RegenerateSlug clears the manual override and derives the slug from the current name.
func (g *Graph) RegenerateSlug(ctx context.Context, nodeID uuid.UUID) (Node, error) {
	var updated Node
	err := g.retry(ctx, "regenerate_slug", func(ctx context.Context) error {
		return g.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
			node, err := tx.Get(ctx, nodeID)
			if err != nil {
				return err
			}
			if err := tx.Clear(ctx, nodeID); err != nil {
				return err
			}
			if node.Slug, err = g.resolve(ctx, tx, node.Name, node.Slug); err != nil {
				return err
			}
			updated, err = tx.Update(ctx, node)
			updated.ManualSlug = false
			return err
		})
	})
	if err != nil {
		return Node{}, err
	}
	return updated, nil
}

// SetVisibility toggles the node's visibility flag. The hierarchy is not affected.
func (g *Graph) SetVisibility(ctx context.Context, nodeID uuid.UUID, visible bool) (Node, error) {
	var updated Node
	err := g.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		node, err := tx.Get(ctx, nodeID)
		if err != nil {
			return err
		}
		if node.Visible == visible {
			updated = node
			return nil
		}
		node.Visible = visible
		updated, err = tx.Update(ctx, node)
		return err
	})
	if err != nil {
		return Node{}, err
	}
	return updated, nil
}

// Get returns the node with the given id.
func (g *Graph) Get(ctx context.Context, nodeID uuid.UUID) (Node, error) {
	var n Node
	err := g.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		n, err = tx.Get(ctx, nodeID)
		return err
	})
	return n, err
}

// GetBySlug normalizes value and returns the matching node.
func (g *Graph) GetBySlug(ctx context.Context, value string) (Node, error) {
	s := slug.Make(value)
	if s == "" {
		return Node{}, ErrNotFound
	}

	var n Node
	err := g.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		n, err = tx.GetBySlug(ctx, s)
		return err
	})
	return n, err
}

// List returns every node in storage order.
func (g *Graph) List(ctx context.Context) ([]Node, error) {
	var nodes []Node
	err := g.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		nodes, err = tx.List(ctx)
		return err
	})
	return nodes, err
}

// Tree returns the whole hierarchy as nested nodes.
func (g *Graph) Tree(ctx context.Context) ([]*TreeNode, error) {
	nodes, err := g.List(ctx)
	if err != nil {
		return nil, err
	}
	return BuildTree(nodes), nil
}

// Path returns the chain from the root down to and including the node.
func (g *Graph) Path(ctx context.Context, nodeID uuid.UUID) ([]Node, error) {
	var path []Node
	err := g.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		node, err := tx.Get(ctx, nodeID)
		if err != nil {
			return err
		}

		nodes, err := tx.List(ctx)
		if err != nil {
			return err
		}

		byID := make(map[uuid.UUID]Node, len(nodes))
		edges := make([]Edge, 0, len(nodes))
		for _, n := range nodes {
			byID[n.ID] = n
			edges = append(edges, n.Edge())
		}

		for _, a := range Ancestors(edges, nodeID) {
			path = append(path, byID[a])
		}
		path = append(path, node)
		return nil
	})
	return path, err
}

// MarkManual freezes the node's slug.
func (g *Graph) MarkManual(ctx context.Context, nodeID uuid.UUID) error {
	return g.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.MarkManual(ctx, nodeID)
	})
}

// Clear returns the node's slug to automatic maintenance without regenerating it.
func (g *Graph) Clear(ctx context.Context, nodeID uuid.UUID) error {
	return g.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.Clear(ctx, nodeID)
	})
}

// IsManual reports whether the node's slug is frozen.
func (g *Graph) IsManual(ctx context.Context, nodeID uuid.UUID) (bool, error) {
	var manual bool
	err := g.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		manual, err = tx.IsManual(ctx, nodeID)
		return err
	})
	return manual, err
}

var _ override.Tracker = (*Graph)(nil)

// resolve derives a unique slug from name for a node that currently owns current.
// A name without usable characters keeps the current slug.
func (g *Graph) resolve(ctx context.Context, tx Tx, name, current string) (string, error) {
	existing, err := tx.ListSlugs(ctx)
	if err != nil {
		return "", err
	}
	fallback := current
	if fallback == "" {
		fallback = g.fallback()
	}
	return slug.Unique(name, existing, slug.Exclude(current), slug.Fallback(fallback))
}

func (g *Graph) retry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempt := 0
	return slug.Retry(ctx, g.slugRetries, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if errors.Is(err, slug.ErrTaken) {
			g.logger.WarnContext(ctx, "category slug taken concurrently, retrying",
				slog.String("op", op),
				slog.Int("attempt", attempt),
			)
		}
		return err
	})
}

func (g *Graph) reject(ctx context.Context, op string, nodeID uuid.UUID, err error) {
	if isStructural(err) {
		g.logger.InfoContext(ctx, "category change rejected",
			slog.String("op", op),
			slog.String("category_id", nodeID.String()),
			slog.String("reason", err.Error()),
		)
		return
	}
	g.logger.ErrorContext(ctx, "category change failed",
		slog.String("op", op),
		slog.String("category_id", nodeID.String()),
		slog.Any("error", err),
	)
}

func isStructural(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrParentNotFound, ErrSelfParent, ErrCycleDetected,
		ErrChildrenExist, ErrReferencesExist,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func parentErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrParentNotFound
	}
	return err
}
