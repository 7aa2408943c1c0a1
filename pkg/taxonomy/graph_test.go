package taxonomy_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/directory/pkg/slug"
	"github.com/dmitrymomot/directory/pkg/taxonomy"
)

// chain builds A -> B -> C (A is the root, C the leaf).
func chain(t *testing.T, g *taxonomy.Graph) (a, b, c taxonomy.Node) {
	t.Helper()

	ctx := context.Background()
	a, err := g.Insert(ctx, taxonomy.InsertInput{Name: "A"})
	require.NoError(t, err)
	b, err = g.Insert(ctx, taxonomy.InsertInput{Name: "B", ParentID: &a.ID})
	require.NoError(t, err)
	c, err = g.Insert(ctx, taxonomy.InsertInput{Name: "C", ParentID: &b.ID})
	require.NoError(t, err)
	return a, b, c
}

func TestGraph_Insert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("derives slug from name", func(t *testing.T) {
		t.Parallel()

		g := taxonomy.NewGraph(taxonomy.NewMemory())
		n, err := g.Insert(ctx, taxonomy.InsertInput{Name: "  Family Law  ", Visible: true})
		require.NoError(t, err)
		assert.Equal(t, "Family Law", n.Name)
		assert.Equal(t, "family-law", n.Slug)
		assert.True(t, n.Visible)
		assert.False(t, n.ManualSlug)
		assert.True(t, n.IsRoot())
		assert.NotEqual(t, uuid.Nil, n.ID)
	})

	t.Run("suffixes colliding slugs", func(t *testing.T) {
		t.Parallel()

		g := taxonomy.NewGraph(taxonomy.NewMemory())
		first, err := g.Insert(ctx, taxonomy.InsertInput{Name: "Dentist"})
		require.NoError(t, err)
		second, err := g.Insert(ctx, taxonomy.InsertInput{Name: "dentist"})
		require.NoError(t, err)
		third, err := g.Insert(ctx, taxonomy.InsertInput{Name: "DENTIST!"})
		require.NoError(t, err)

		assert.Equal(t, "dentist", first.Slug)
		assert.Equal(t, "dentist-2", second.Slug)
		assert.Equal(t, "dentist-3", third.Slug)
	})

	t.Run("explicit slug is manual", func(t *testing.T) {
		t.Parallel()

		g := taxonomy.NewGraph(taxonomy.NewMemory())
		n, err := g.Insert(ctx, taxonomy.InsertInput{Name: "Information Technology", Slug: "IT"})
		require.NoError(t, err)
		assert.Equal(t, "it", n.Slug)
		assert.True(t, n.ManualSlug)

		manual, err := g.IsManual(ctx, n.ID)
		require.NoError(t, err)
		assert.True(t, manual)
	})

	t.Run("explicit slug without usable characters", func(t *testing.T) {
		t.Parallel()

		g := taxonomy.NewGraph(taxonomy.NewMemory())
		_, err := g.Insert(ctx, taxonomy.InsertInput{Name: "Valid", Slug: "!!!"})
		require.ErrorIs(t, err, slug.ErrInvalidBase)
	})

	t.Run("name without usable characters uses fallback", func(t *testing.T) {
		t.Parallel()

		g := taxonomy.NewGraph(taxonomy.NewMemory(),
			taxonomy.WithFallbackBase(func() string { return "category-x1" }))
		n, err := g.Insert(ctx, taxonomy.InsertInput{Name: "日本語"})
		require.NoError(t, err)
		assert.Equal(t, "category-x1", n.Slug)
	})

	t.Run("blank name", func(t *testing.T) {
		t.Parallel()

		g := taxonomy.NewGraph(taxonomy.NewMemory())
		_, err := g.Insert(ctx, taxonomy.InsertInput{Name: "   "})
		require.ErrorIs(t, err, taxonomy.ErrInvalidName)
	})

	t.Run("missing parent", func(t *testing.T) {
		t.Parallel()

		repo := taxonomy.NewMemory()
		g := taxonomy.NewGraph(repo)
		_, err := g.Insert(ctx, taxonomy.InsertInput{Name: "Child", ParentID: ptr(uuid.New())})
		require.ErrorIs(t, err, taxonomy.ErrParentNotFound)
		assert.Empty(t, repo.Export())
	})
}

func TestGraph_Reparent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("root under its own leaf is a cycle", func(t *testing.T) {
		t.Parallel()

		repo := taxonomy.NewMemory()
		g := taxonomy.NewGraph(repo)
		a, _, c := chain(t, g)
		before := repo.Export()

		err := g.Reparent(ctx, a.ID, &c.ID)
		require.ErrorIs(t, err, taxonomy.ErrCycleDetected)
		assert.Equal(t, before, repo.Export())
	})

	t.Run("under direct child is a cycle", func(t *testing.T) {
		t.Parallel()

		g := taxonomy.NewGraph(taxonomy.NewMemory())
		a, b, _ := chain(t, g)
		require.ErrorIs(t, g.Reparent(ctx, a.ID, &b.ID), taxonomy.ErrCycleDetected)
	})

	t.Run("self parent", func(t *testing.T) {
		t.Parallel()

		g := taxonomy.NewGraph(taxonomy.NewMemory())
		a, _, _ := chain(t, g)
		require.ErrorIs(t, g.Reparent(ctx, a.ID, &a.ID), taxonomy.ErrSelfParent)
	})

	t.Run("missing parent", func(t *testing.T) {
		t.Parallel()

		g := taxonomy.NewGraph(taxonomy.NewMemory())
		a, _, _ := chain(t, g)
		require.ErrorIs(t, g.Reparent(ctx, a.ID, ptr(uuid.New())), taxonomy.ErrParentNotFound)
	})

	t.Run("missing node", func(t *testing.T) {
		t.Parallel()

		g := taxonomy.NewGraph(taxonomy.NewMemory())
		require.ErrorIs(t, g.Reparent(ctx, uuid.New(), nil), taxonomy.ErrNotFound)
	})

	t.Run("move leaf to root and back", func(t *testing.T) {
		t.Parallel()

		g := taxonomy.NewGraph(taxonomy.NewMemory())
		a, b, c := chain(t, g)

		require.NoError(t, g.Reparent(ctx, c.ID, nil))
		got, err := g.Get(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, got.IsRoot())

		require.NoError(t, g.Reparent(ctx, c.ID, &a.ID))
		got, err = g.Get(ctx, c.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ParentID)
		assert.Equal(t, a.ID, *got.ParentID)

		require.NoError(t, g.Reparent(ctx, b.ID, &c.ID), "siblings may nest")
	})

	t.Run("unchanged parent is a no-op", func(t *testing.T) {
		t.Parallel()

		g := taxonomy.NewGraph(taxonomy.NewMemory())
		a, b, _ := chain(t, g)
		require.NoError(t, g.Reparent(ctx, b.ID, &a.ID))
	})

	t.Run("detects cycle even when stored edges are corrupted", func(t *testing.T) {
		t.Parallel()

		repo := taxonomy.NewMemory()
		x := taxonomy.Node{ID: uuid.New(), Name: "X", Slug: "x"}
		y := taxonomy.Node{ID: uuid.New(), Name: "Y", Slug: "y", ParentID: ptr(x.ID)}
		x.ParentID = ptr(y.ID)
		z := taxonomy.Node{ID: uuid.New(), Name: "Z", Slug: "z"}
		repo.Import(x, y, z)

		g := taxonomy.NewGraph(repo)
		require.ErrorIs(t, g.Reparent(ctx, x.ID, &y.ID), taxonomy.ErrCycleDetected)
		require.NoError(t, g.Reparent(ctx, x.ID, &z.ID))
	})
}

func TestGraph_CycleInvariant(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rng := rand.New(rand.NewPCG(42, 7))
	repo := taxonomy.NewMemory()
	g := taxonomy.NewGraph(repo)

	var ids []uuid.UUID
	for i := range 300 {
		if len(ids) < 3 || rng.IntN(3) == 0 {
			in := taxonomy.InsertInput{Name: "node"}
			if len(ids) > 0 && rng.IntN(2) == 0 {
				in.ParentID = ptr(ids[rng.IntN(len(ids))])
			}
			n, err := g.Insert(ctx, in)
			require.NoError(t, err, "step %d", i)
			ids = append(ids, n.ID)
		} else {
			node := ids[rng.IntN(len(ids))]
			var parent *uuid.UUID
			if rng.IntN(5) > 0 {
				parent = ptr(ids[rng.IntN(len(ids))])
			}

			edges := edgesOf(repo.Export())
			before := repo.Export()
			err := g.Reparent(ctx, node, parent)

			switch {
			case parent != nil && *parent == node:
				require.ErrorIs(t, err, taxonomy.ErrSelfParent)
				assert.Equal(t, before, repo.Export())
			case parent != nil && isDescendant(edges, node, *parent):
				require.ErrorIs(t, err, taxonomy.ErrCycleDetected)
				assert.Equal(t, before, repo.Export())
			default:
				require.NoError(t, err, "step %d", i)
			}
		}

		edges := edgesOf(repo.Export())
		for _, e := range edges {
			for _, ancestor := range taxonomy.Ancestors(edges, e.ID) {
				require.NotEqual(t, e.ID, ancestor, "node is its own ancestor at step %d", i)
			}
			_, own := taxonomy.Descendants(edges, e.ID)[e.ID]
			require.False(t, own, "node is its own descendant at step %d", i)
		}
	}
}

func TestGraph_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("node with children", func(t *testing.T) {
		t.Parallel()

		repo := taxonomy.NewMemory()
		g := taxonomy.NewGraph(repo)
		_, b, _ := chain(t, g)

		require.ErrorIs(t, g.Delete(ctx, b.ID), taxonomy.ErrChildrenExist)
		assert.Len(t, repo.Export(), 3)
	})

	t.Run("node with linked entities", func(t *testing.T) {
		t.Parallel()

		repo := taxonomy.NewMemory()
		g := taxonomy.NewGraph(repo)
		_, _, c := chain(t, g)
		repo.SetLinks(c.ID, 2)

		require.ErrorIs(t, g.Delete(ctx, c.ID), taxonomy.ErrReferencesExist)
		assert.Len(t, repo.Export(), 3)

		repo.SetLinks(c.ID, 0)
		require.NoError(t, g.Delete(ctx, c.ID))
		assert.Len(t, repo.Export(), 2)
	})

	t.Run("both guards hold regardless of order", func(t *testing.T) {
		t.Parallel()

		repo := taxonomy.NewMemory()
		g := taxonomy.NewGraph(repo)
		a, b, _ := chain(t, g)
		repo.SetLinks(b.ID, 1)
		repo.SetLinks(a.ID, 1)

		err := g.Delete(ctx, b.ID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, taxonomy.ErrChildrenExist) || errors.Is(err, taxonomy.ErrReferencesExist))
		assert.Len(t, repo.Export(), 3)
	})

	t.Run("leaf bottom up", func(t *testing.T) {
		t.Parallel()

		repo := taxonomy.NewMemory()
		g := taxonomy.NewGraph(repo)
		a, b, c := chain(t, g)

		require.NoError(t, g.Delete(ctx, c.ID))
		require.NoError(t, g.Delete(ctx, b.ID))
		require.NoError(t, g.Delete(ctx, a.ID))
		assert.Empty(t, repo.Export())
	})

	t.Run("unknown node", func(t *testing.T) {
		t.Parallel()

		g := taxonomy.NewGraph(taxonomy.NewMemory())
		require.ErrorIs(t, g.Delete(ctx, uuid.New()), taxonomy.ErrNotFound)
	})
}

func TestGraph_RenameAndOverride(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("rename follows name", func(t *testing.T) {
		t.Parallel()

		g := taxonomy.NewGraph(taxonomy.NewMemory())
		n, err := g.Insert(ctx, taxonomy.InsertInput{Name: "Tax"})
		require.NoError(t, err)
		_, err = g.Insert(ctx, taxonomy.InsertInput{Name: "Tax Law"})
		require.NoError(t, err)

		renamed, err := g.Rename(ctx, n.ID, "Tax Law")
		require.NoError(t, err)
		assert.Equal(t, "Tax Law", renamed.Name)
		assert.Equal(t, "tax-law-2", renamed.Slug)
	})

	t.Run("rename keeps own slug", func(t *testing.T) {
		t.Parallel()

		g := taxonomy.NewGraph(taxonomy.NewMemory())
		n, err := g.Insert(ctx, taxonomy.InsertInput{Name: "Tax Law"})
		require.NoError(t, err)

		renamed, err := g.Rename(ctx, n.ID, "TAX LAW")
		require.NoError(t, err)
		assert.Equal(t, "tax-law", renamed.Slug)
	})

	t.Run("rename to unusable name keeps slug", func(t *testing.T) {
		t.Parallel()

		g := taxonomy.NewGraph(taxonomy.NewMemory())
		n, err := g.Insert(ctx, taxonomy.InsertInput{Name: "Tax"})
		require.NoError(t, err)

		renamed, err := g.Rename(ctx, n.ID, "税")
		require.NoError(t, err)
		assert.Equal(t, "tax", renamed.Slug)
	})

	t.Run("manual slug is frozen until cleared", func(t *testing.T) {
		t.Parallel()

		g := taxonomy.NewGraph(taxonomy.NewMemory())
		n, err := g.Insert(ctx, taxonomy.InsertInput{Name: "Acme Corp"})
		require.NoError(t, err)
		assert.Equal(t, "acme-corp", n.Slug)

		n, err = g.SetSlug(ctx, n.ID, "Acme Legal")
		require.NoError(t, err)
		assert.Equal(t, "acme-legal", n.Slug)
		assert.True(t, n.ManualSlug)

		for _, name := range []string{"Acme Corp LLC", "Something Else", "Acme"} {
			n, err = g.Rename(ctx, n.ID, name)
			require.NoError(t, err)
			assert.Equal(t, "acme-legal", n.Slug)
			assert.Equal(t, name, n.Name)
		}

		n, err = g.RegenerateSlug(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, "acme", n.Slug)
		assert.False(t, n.ManualSlug)

		n, err = g.Rename(ctx, n.ID, "Acme Corp LLC")
		require.NoError(t, err)
		assert.Equal(t, "acme-corp-llc", n.Slug)
	})

	t.Run("tracker methods", func(t *testing.T) {
		t.Parallel()

		g := taxonomy.NewGraph(taxonomy.NewMemory())
		n, err := g.Insert(ctx, taxonomy.InsertInput{Name: "Plumbing"})
		require.NoError(t, err)

		require.NoError(t, g.MarkManual(ctx, n.ID))
		renamed, err := g.Rename(ctx, n.ID, "Pipes")
		require.NoError(t, err)
		assert.Equal(t, "plumbing", renamed.Slug)

		require.NoError(t, g.Clear(ctx, n.ID))
		manual, err := g.IsManual(ctx, n.ID)
		require.NoError(t, err)
		assert.False(t, manual)

		renamed, err = g.Rename(ctx, n.ID, "Pipes")
		require.NoError(t, err)
		assert.Equal(t, "pipes", renamed.Slug)

		require.ErrorIs(t, g.MarkManual(ctx, uuid.New()), taxonomy.ErrNotFound)
	})

	t.Run("set slug avoids other nodes", func(t *testing.T) {
		t.Parallel()

		g := taxonomy.NewGraph(taxonomy.NewMemory())
		_, err := g.Insert(ctx, taxonomy.InsertInput{Name: "Legal"})
		require.NoError(t, err)
		n, err := g.Insert(ctx, taxonomy.InsertInput{Name: "Other"})
		require.NoError(t, err)

		n, err = g.SetSlug(ctx, n.ID, "LEGAL")
		require.NoError(t, err)
		assert.Equal(t, "legal-2", n.Slug)
	})

	t.Run("unknown node", func(t *testing.T) {
		t.Parallel()

		g := taxonomy.NewGraph(taxonomy.NewMemory())
		_, err := g.Rename(ctx, uuid.New(), "X")
		require.ErrorIs(t, err, taxonomy.ErrNotFound)
		_, err = g.SetSlug(ctx, uuid.New(), "x")
		require.ErrorIs(t, err, taxonomy.ErrNotFound)
		_, err = g.RegenerateSlug(ctx, uuid.New())
		require.ErrorIs(t, err, taxonomy.ErrNotFound)
	})
}

func TestGraph_ReadSide(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g := taxonomy.NewGraph(taxonomy.NewMemory())
	a, b, c := chain(t, g)

	t.Run("get by slug normalizes input", func(t *testing.T) {
		n, err := g.GetBySlug(ctx, "  B ")
		require.NoError(t, err)
		assert.Equal(t, b.ID, n.ID)

		_, err = g.GetBySlug(ctx, "missing")
		require.ErrorIs(t, err, taxonomy.ErrNotFound)

		_, err = g.GetBySlug(ctx, "???")
		require.ErrorIs(t, err, taxonomy.ErrNotFound)
	})

	t.Run("path", func(t *testing.T) {
		path, err := g.Path(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, path, 3)
		assert.Equal(t, []uuid.UUID{a.ID, b.ID, c.ID}, []uuid.UUID{path[0].ID, path[1].ID, path[2].ID})

		_, err = g.Path(ctx, uuid.New())
		require.ErrorIs(t, err, taxonomy.ErrNotFound)
	})

	t.Run("tree", func(t *testing.T) {
		tree, err := g.Tree(ctx)
		require.NoError(t, err)
		require.Len(t, tree, 1)
		assert.Equal(t, a.ID, tree[0].ID)
		require.Len(t, tree[0].Children, 1)
		assert.Equal(t, b.ID, tree[0].Children[0].ID)
	})

	t.Run("visibility", func(t *testing.T) {
		n, err := g.SetVisibility(ctx, a.ID, true)
		require.NoError(t, err)
		assert.True(t, n.Visible)
		assert.Equal(t, "a", n.Slug)
	})
}

// conflictingRepo reports the first n creates and updates as losing a slug race.
type conflictingRepo struct {
	*taxonomy.Memory
	conflicts int
	calls     int
}

func (r *conflictingRepo) WithinTx(ctx context.Context, fn func(ctx context.Context, tx taxonomy.Tx) error) error {
	return r.Memory.WithinTx(ctx, func(ctx context.Context, tx taxonomy.Tx) error {
		return fn(ctx, &conflictingTx{Tx: tx, repo: r})
	})
}

type conflictingTx struct {
	taxonomy.Tx
	repo *conflictingRepo
}

func (tx *conflictingTx) Create(ctx context.Context, n taxonomy.Node) (taxonomy.Node, error) {
	tx.repo.calls++
	if tx.repo.calls <= tx.repo.conflicts {
		return taxonomy.Node{}, slug.ErrTaken
	}
	return tx.Tx.Create(ctx, n)
}

func TestGraph_SlugRace(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("retries transient conflicts", func(t *testing.T) {
		t.Parallel()

		repo := &conflictingRepo{Memory: taxonomy.NewMemory(), conflicts: 2}
		g := taxonomy.NewGraph(repo)

		n, err := g.Insert(ctx, taxonomy.InsertInput{Name: "Dentist"})
		require.NoError(t, err)
		assert.Equal(t, "dentist", n.Slug)
		assert.Equal(t, 3, repo.calls)
	})

	t.Run("surfaces exhaustion", func(t *testing.T) {
		t.Parallel()

		repo := &conflictingRepo{Memory: taxonomy.NewMemory(), conflicts: 10}
		g := taxonomy.NewGraph(repo, taxonomy.WithSlugRetries(3))

		_, err := g.Insert(ctx, taxonomy.InsertInput{Name: "Dentist"})
		require.ErrorIs(t, err, slug.ErrCollisionExhausted)
		assert.Equal(t, 3, repo.calls)
		assert.Empty(t, repo.Export())
	})
}

func edgesOf(nodes []taxonomy.Node) []taxonomy.Edge {
	edges := make([]taxonomy.Edge, 0, len(nodes))
	for _, n := range nodes {
		edges = append(edges, n.Edge())
	}
	return edges
}

func isDescendant(edges []taxonomy.Edge, root, candidate uuid.UUID) bool {
	_, ok := taxonomy.Descendants(edges, root)[candidate]
	return ok
}

// staleRepo hands out transactions whose Get returns a snapshot taken before later moves.
type staleRepo struct {
	*taxonomy.Memory
	snapshot taxonomy.Node
}

func (r *staleRepo) WithinTx(ctx context.Context, fn func(ctx context.Context, tx taxonomy.Tx) error) error {
	return r.Memory.WithinTx(ctx, func(ctx context.Context, tx taxonomy.Tx) error {
		return fn(ctx, &staleTx{Tx: tx, snapshot: r.snapshot})
	})
}

type staleTx struct {
	taxonomy.Tx
	snapshot taxonomy.Node
}

func (tx *staleTx) Get(ctx context.Context, id uuid.UUID) (taxonomy.Node, error) {
	if id == tx.snapshot.ID {
		return tx.snapshot, nil
	}
	return tx.Tx.Get(ctx, id)
}

func TestGraph_NonStructuralWritesKeepParent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := taxonomy.NewMemory()
	g := taxonomy.NewGraph(mem)

	p, err := g.Insert(ctx, taxonomy.InsertInput{Name: "Parent"})
	require.NoError(t, err)
	x, err := g.Insert(ctx, taxonomy.InsertInput{Name: "Child", ParentID: &p.ID})
	require.NoError(t, err)

	// X becomes a root and P moves under it after the snapshot was read.
	require.NoError(t, g.Reparent(ctx, x.ID, nil))
	require.NoError(t, g.Reparent(ctx, p.ID, &x.ID))

	stale := taxonomy.NewGraph(&staleRepo{Memory: mem, snapshot: x})

	tests := []struct {
		name string
		op   func() error
	}{
		{name: "rename", op: func() error {
			_, err := stale.Rename(ctx, x.ID, "Renamed")
			return err
		}},
		{name: "set slug", op: func() error {
			_, err := stale.SetSlug(ctx, x.ID, "custom")
			return err
		}},
		{name: "regenerate slug", op: func() error {
			_, err := stale.RegenerateSlug(ctx, x.ID)
			return err
		}},
		{name: "visibility", op: func() error {
			_, err := stale.SetVisibility(ctx, x.ID, false)
			return err
		}},
	}

	for _, tt := range tests {
		require.NoError(t, tt.op(), tt.name)

		nodes, err := g.List(ctx)
		require.NoError(t, err)
		byID := make(map[uuid.UUID]taxonomy.Node, len(nodes))
		for _, n := range nodes {
			byID[n.ID] = n
		}
		assert.Nil(t, byID[x.ID].ParentID, tt.name)
		require.NotNil(t, byID[p.ID].ParentID, tt.name)
		assert.Equal(t, x.ID, *byID[p.ID].ParentID, tt.name)
		assert.False(t, isDescendant(edgesOf(nodes), p.ID, x.ID), tt.name)
	}
}
