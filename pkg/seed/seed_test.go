package seed_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/directory/pkg/seed"
	"github.com/dmitrymomot/directory/pkg/taxonomy"
)

const tree = `
categories:
  - name: Home Services
    children:
      - name: Plumbing
        children:
          - name: Emergency Repairs
      - name: Electrical
        slug: electricians
  - name: <b>Archived</b>
    visible: false
`

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("nested", func(t *testing.T) {
		t.Parallel()

		f, err := seed.Parse(strings.NewReader(tree))
		require.NoError(t, err)
		require.Len(t, f.Categories, 2)
		assert.Equal(t, "Home Services", f.Categories[0].Name)
		require.Len(t, f.Categories[0].Children, 2)
		assert.Equal(t, "electricians", f.Categories[0].Children[1].Slug)
		require.NotNil(t, f.Categories[1].Visible)
		assert.False(t, *f.Categories[1].Visible)
	})

	t.Run("empty document", func(t *testing.T) {
		t.Parallel()

		f, err := seed.Parse(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, f.Categories)
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()

		_, err := seed.Parse(strings.NewReader("categories:\n  - title: Plumbing\n"))
		require.ErrorIs(t, err, seed.ErrInvalidFile)
	})

	t.Run("malformed", func(t *testing.T) {
		t.Parallel()

		_, err := seed.Parse(strings.NewReader("categories: [\n"))
		require.ErrorIs(t, err, seed.ErrInvalidFile)
	})

	t.Run("file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "categories.yaml")
		require.NoError(t, os.WriteFile(path, []byte(tree), 0o600))

		f, err := seed.ParseFile(path)
		require.NoError(t, err)
		assert.Len(t, f.Categories, 2)

		_, err = seed.ParseFile(filepath.Join(t.TempDir(), "missing.yaml"))
		require.ErrorIs(t, err, seed.ErrInvalidFile)
	})
}

func TestApply(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("creates parents before children", func(t *testing.T) {
		t.Parallel()

		g := taxonomy.NewGraph(taxonomy.NewMemory())
		f, err := seed.Parse(strings.NewReader(tree))
		require.NoError(t, err)

		res, err := seed.Apply(ctx, g, f)
		require.NoError(t, err)
		assert.Equal(t, seed.Result{Created: 5}, res)

		home, err := g.GetBySlug(ctx, "home-services")
		require.NoError(t, err)
		assert.True(t, home.IsRoot())
		assert.True(t, home.Visible)

		emergency, err := g.GetBySlug(ctx, "emergency-repairs")
		require.NoError(t, err)
		path, err := g.Path(ctx, emergency.ID)
		require.NoError(t, err)
		require.Len(t, path, 3)
		assert.Equal(t, "home-services", path[0].Slug)
		assert.Equal(t, "plumbing", path[1].Slug)

		electrical, err := g.GetBySlug(ctx, "electricians")
		require.NoError(t, err)
		assert.True(t, electrical.ManualSlug)
		assert.Equal(t, home.ID, *electrical.ParentID)

		archived, err := g.GetBySlug(ctx, "archived")
		require.NoError(t, err)
		assert.Equal(t, "Archived", archived.Name)
		assert.False(t, archived.Visible)
	})

	t.Run("second run reuses existing nodes", func(t *testing.T) {
		t.Parallel()

		g := taxonomy.NewGraph(taxonomy.NewMemory())
		f, err := seed.Parse(strings.NewReader(tree))
		require.NoError(t, err)

		_, err = seed.Apply(ctx, g, f)
		require.NoError(t, err)
		res, err := seed.Apply(ctx, g, f)
		require.NoError(t, err)
		assert.Equal(t, seed.Result{Existing: 5}, res)

		nodes, err := g.List(ctx)
		require.NoError(t, err)
		assert.Len(t, nodes, 5)
	})

	t.Run("same name under different parents", func(t *testing.T) {
		t.Parallel()

		g := taxonomy.NewGraph(taxonomy.NewMemory())
		f := seed.File{Categories: []seed.Category{
			{Name: "Cars", Children: []seed.Category{{Name: "Other"}}},
			{Name: "Boats", Children: []seed.Category{{Name: "Other"}}},
		}}

		res, err := seed.Apply(ctx, g, f)
		require.NoError(t, err)
		assert.Equal(t, 4, res.Created)

		_, err = g.GetBySlug(ctx, "other")
		require.NoError(t, err)
		_, err = g.GetBySlug(ctx, "other-2")
		require.NoError(t, err)

		res, err = seed.Apply(ctx, g, f)
		require.NoError(t, err)
		assert.Equal(t, seed.Result{Existing: 4}, res)
	})

	t.Run("empty name stops the run", func(t *testing.T) {
		t.Parallel()

		g := taxonomy.NewGraph(taxonomy.NewMemory())
		f := seed.File{Categories: []seed.Category{
			{Name: "Pets", Children: []seed.Category{{Name: "  <i></i> "}}},
		}}

		res, err := seed.Apply(ctx, g, f)
		require.ErrorIs(t, err, seed.ErrEmptyName)
		assert.Contains(t, err.Error(), "categories[0].children[0]")
		assert.Equal(t, 1, res.Created)
	})
}
