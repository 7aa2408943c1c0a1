package repository_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/directory/internal/repository"
	"github.com/dmitrymomot/directory/pkg/profile"
	"github.com/dmitrymomot/directory/pkg/slug"
	"github.com/dmitrymomot/directory/pkg/taxonomy"
)

func TestCategories_Hierarchy(t *testing.T) {
	pool := newPool(t)
	ctx := context.Background()
	g := taxonomy.NewGraph(repository.NewCategories(pool))

	a, err := g.Insert(ctx, taxonomy.InsertInput{Name: "A"})
	require.NoError(t, err)
	b, err := g.Insert(ctx, taxonomy.InsertInput{Name: "B", ParentID: &a.ID})
	require.NoError(t, err)
	c, err := g.Insert(ctx, taxonomy.InsertInput{Name: "C", ParentID: &b.ID})
	require.NoError(t, err)

	require.ErrorIs(t, g.Reparent(ctx, a.ID, &c.ID), taxonomy.ErrCycleDetected)
	got, err := g.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentID)

	require.ErrorIs(t, g.Reparent(ctx, a.ID, &a.ID), taxonomy.ErrSelfParent)
	require.ErrorIs(t, g.Reparent(ctx, a.ID, ptr(uuid.New())), taxonomy.ErrParentNotFound)
	_, err = g.Insert(ctx, taxonomy.InsertInput{Name: "D", ParentID: ptr(uuid.New())})
	require.ErrorIs(t, err, taxonomy.ErrParentNotFound)

	require.ErrorIs(t, g.Delete(ctx, b.ID), taxonomy.ErrChildrenExist)

	path, err := g.Path(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, path, 3)
	assert.Equal(t, a.ID, path[0].ID)

	tree, err := g.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "b", tree[0].Children[0].Slug)

	require.NoError(t, g.Reparent(ctx, c.ID, nil))
	require.NoError(t, g.Delete(ctx, b.ID))
	_, err = g.Get(ctx, b.ID)
	require.ErrorIs(t, err, taxonomy.ErrNotFound)
}

func TestCategories_DeleteWithLinks(t *testing.T) {
	pool := newPool(t)
	ctx := context.Background()
	g := taxonomy.NewGraph(repository.NewCategories(pool))
	profiles := profile.NewService(repository.NewProfiles(pool))
	links := repository.NewLinks(pool)

	cat, err := g.Insert(ctx, taxonomy.InsertInput{Name: "Dentistry"})
	require.NoError(t, err)
	p, err := profiles.Create(ctx, profile.CreateInput{Kind: profile.Individual, PersonalName: "Ann"})
	require.NoError(t, err)

	require.NoError(t, links.Link(ctx, p.ID, cat.ID))
	require.NoError(t, links.Link(ctx, p.ID, cat.ID))
	require.ErrorIs(t, links.Link(ctx, uuid.New(), cat.ID), profile.ErrNotFound)
	require.ErrorIs(t, links.Link(ctx, p.ID, uuid.New()), taxonomy.ErrNotFound)

	ids, err := links.CategoriesOf(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{cat.ID}, ids)

	require.ErrorIs(t, g.Delete(ctx, cat.ID), taxonomy.ErrReferencesExist)

	require.NoError(t, links.Unlink(ctx, p.ID, cat.ID))
	require.NoError(t, g.Delete(ctx, cat.ID))
}

func TestCategories_ForeignKeyIsFinalAuthority(t *testing.T) {
	pool := newPool(t)
	ctx := context.Background()
	repo := repository.NewCategories(pool)
	g := taxonomy.NewGraph(repo)

	parent, err := g.Insert(ctx, taxonomy.InsertInput{Name: "Parent"})
	require.NoError(t, err)
	_, err = g.Insert(ctx, taxonomy.InsertInput{Name: "Child", ParentID: &parent.ID})
	require.NoError(t, err)

	err = repo.WithinTx(ctx, func(ctx context.Context, tx taxonomy.Tx) error {
		return tx.Delete(ctx, parent.ID)
	})
	require.ErrorIs(t, err, taxonomy.ErrChildrenExist)
}

func TestCategories_SlugRace(t *testing.T) {
	pool := newPool(t)
	ctx := context.Background()
	g := taxonomy.NewGraph(repository.NewCategories(pool), taxonomy.WithSlugRetries(10))

	const writers = 8
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		slugs []string
		errs  []error
	)
	for range writers {
		wg.Go(func() {
			n, err := g.Insert(ctx, taxonomy.InsertInput{Name: "Dentist"})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			slugs = append(slugs, n.Slug)
		})
	}
	wg.Wait()

	require.Empty(t, errs)
	require.Len(t, slugs, writers)
	assert.Len(t, slug.NewSet(slugs...), writers, "slugs must be distinct: %v", slugs)
}

func TestCategories_ManualOverride(t *testing.T) {
	pool := newPool(t)
	ctx := context.Background()
	g := taxonomy.NewGraph(repository.NewCategories(pool))

	n, err := g.Insert(ctx, taxonomy.InsertInput{Name: "Acme Corp"})
	require.NoError(t, err)
	n, err = g.SetSlug(ctx, n.ID, "acme-legal")
	require.NoError(t, err)

	n, err = g.Rename(ctx, n.ID, "Acme Corp LLC")
	require.NoError(t, err)
	assert.Equal(t, "acme-legal", n.Slug)
	assert.True(t, n.ManualSlug)

	byslug, err := g.GetBySlug(ctx, "ACME-LEGAL")
	require.NoError(t, err)
	assert.Equal(t, n.ID, byslug.ID)

	n, err = g.RegenerateSlug(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme-corp-llc", n.Slug)
	assert.False(t, n.ManualSlug)

	require.ErrorIs(t, g.MarkManual(ctx, uuid.New()), taxonomy.ErrNotFound)
}

func TestCategories_UpdateKeepsParent(t *testing.T) {
	pool := newPool(t)
	ctx := context.Background()
	repo := repository.NewCategories(pool)
	g := taxonomy.NewGraph(repo)

	p, err := g.Insert(ctx, taxonomy.InsertInput{Name: "Parent"})
	require.NoError(t, err)
	x, err := g.Insert(ctx, taxonomy.InsertInput{Name: "Child", ParentID: &p.ID})
	require.NoError(t, err)

	// A snapshot taken before X became a root must not move it back.
	stale := x
	require.NoError(t, g.Reparent(ctx, x.ID, nil))
	require.NoError(t, g.Reparent(ctx, p.ID, &x.ID))

	stale.Name = "Renamed"
	require.NoError(t, repo.WithinTx(ctx, func(ctx context.Context, tx taxonomy.Tx) error {
		updated, err := tx.Update(ctx, stale)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Name)
		assert.Nil(t, updated.ParentID)
		return nil
	}))

	got, err := g.Get(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, x.ID, *got.ParentID)
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }
