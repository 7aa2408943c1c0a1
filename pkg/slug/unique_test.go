package slug_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/directory/pkg/slug"
)

func TestUnique(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		base     string
		existing slug.Set
		opts     []slug.Option
		expected string
		err      error
	}{
		{
			name:     "free base is returned unchanged",
			base:     "dentist",
			existing: slug.NewSet("lawyer"),
			expected: "dentist",
		},
		{
			name:     "base is normalized",
			base:     "Family Dentist",
			existing: nil,
			expected: "family-dentist",
		},
		{
			name:     "first free suffix",
			base:     "dentist",
			existing: slug.NewSet("dentist", "dentist-2"),
			expected: "dentist-3",
		},
		{
			name:     "suffixes are not reused out of order",
			base:     "dentist",
			existing: slug.NewSet("dentist", "dentist-3"),
			expected: "dentist-2",
		},
		{
			name:     "comparison ignores case",
			base:     "Dentist",
			existing: slug.NewSet("DENTIST", "Dentist-2"),
			expected: "dentist-3",
		},
		{
			name:     "suffix after trailing dash stays canonical",
			base:     "a -",
			existing: slug.NewSet("a-"),
			expected: "a-2",
		},
		{
			name:     "own slug is excluded",
			base:     "Acme Corp",
			existing: slug.NewSet("acme-corp", "other"),
			opts:     []slug.Option{slug.Exclude("acme-corp")},
			expected: "acme-corp",
		},
		{
			name:     "exclusion ignores case",
			base:     "acme corp",
			existing: slug.NewSet("acme-corp"),
			opts:     []slug.Option{slug.Exclude("ACME-CORP")},
			expected: "acme-corp",
		},
		{
			name:     "exclusion does not free other candidates",
			base:     "acme",
			existing: slug.NewSet("acme", "acme-2"),
			opts:     []slug.Option{slug.Exclude("acme-2")},
			expected: "acme-2",
		},
		{
			name:     "fallback used for empty base",
			base:     "!!!",
			existing: slug.NewSet("profile-01h"),
			opts:     []slug.Option{slug.Fallback("profile-01H")},
			expected: "profile-01h-2",
		},
		{
			name:     "empty base without fallback",
			base:     "—",
			existing: nil,
			err:      slug.ErrInvalidBase,
		},
		{
			name:     "empty base and empty fallback",
			base:     "",
			opts:     []slug.Option{slug.Fallback("???")},
			err:      slug.ErrInvalidBase,
		},
		{
			name:     "cap exhausted",
			base:     "x",
			existing: slug.NewSet("x", "x-2", "x-3"),
			opts:     []slug.Option{slug.MaxAttempts(2)},
			err:      slug.ErrCollisionExhausted,
		},
		{
			name:     "cap reached exactly",
			base:     "x",
			existing: slug.NewSet("x", "x-2"),
			opts:     []slug.Option{slug.MaxAttempts(2)},
			expected: "x-3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := slug.Unique(tt.base, tt.existing, tt.opts...)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestUnique_NeverCollidesAndIsDeterministic(t *testing.T) {
	t.Parallel()

	existing := slug.NewSet()
	for i := range 50 {
		first, err := slug.Unique("Plumber", existing)
		require.NoError(t, err)

		second, err := slug.Unique("Plumber", existing)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.False(t, existing.Has(first))
		if i == 0 {
			assert.Equal(t, "plumber", first)
		} else {
			assert.Equal(t, "plumber-"+strconv.Itoa(i+1), first)
		}
		existing.Add(first)
	}
}

func TestUnique_DefaultCap(t *testing.T) {
	t.Parallel()

	existing := slug.NewSet("a")
	for n := 2; n <= slug.DefaultMaxAttempts+1; n++ {
		existing.Add("a-" + strconv.Itoa(n))
	}

	_, err := slug.Unique("a", existing)
	require.ErrorIs(t, err, slug.ErrCollisionExhausted)

	existing.Remove("a-" + strconv.Itoa(slug.DefaultMaxAttempts+1))
	got, err := slug.Unique("a", existing)
	require.NoError(t, err)
	assert.Equal(t, "a-"+strconv.Itoa(slug.DefaultMaxAttempts+1), got)
}

func TestSet(t *testing.T) {
	t.Parallel()

	s := slug.NewSet("One", "", "two")
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has("ONE"))
	assert.False(t, s.Has(""))

	s.Remove("TWO")
	assert.False(t, s.Has("two"))

	var empty slug.Set
	assert.False(t, empty.Has("one"))
}
