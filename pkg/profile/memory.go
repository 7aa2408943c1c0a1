package profile

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/directory/pkg/override"
	"github.com/dmitrymomot/directory/pkg/slug"
)

// Memory is an in-process Repository with the constraints of the profiles table:
// non-empty slugs are unique ignoring case. Transactions are serialized and committed
// only when fn returns nil.
type Memory struct {
	profiles map[uuid.UUID]Profile
	now      func() time.Time
	mu       sync.Mutex
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{profiles: make(map[uuid.UUID]Profile), now: time.Now}
}

// WithinTx runs fn against a copy of the stored profiles.
func (m *Memory) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{profiles: maps.Clone(m.profiles), now: m.now()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.profiles = tx.profiles
	return nil
}

// Import stores profiles as given, bypassing constraints. Profiles with an empty slug model
// rows written before slugs existed.
func (m *Memory) Import(profiles ...Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range profiles {
		if p.CreatedAt.IsZero() {
			p.CreatedAt = m.now()
		}
		m.profiles[p.ID] = p
	}
}

// Export returns every stored profile, oldest first.
func (m *Memory) Export() []Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sorted(m.profiles)
}

type memoryTx struct {
	profiles map[uuid.UUID]Profile
	now      time.Time
}

func (tx *memoryTx) ListSlugs(context.Context) (slug.Set, error) {
	set := make(slug.Set, len(tx.profiles))
	for _, p := range tx.profiles {
		set.Add(p.Slug)
	}
	return set, nil
}

func (tx *memoryTx) Get(_ context.Context, id uuid.UUID) (Profile, error) {
	p, ok := tx.profiles[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (tx *memoryTx) GetBySlug(_ context.Context, s string) (Profile, error) {
	if s == "" {
		return Profile{}, ErrNotFound
	}
	for _, p := range tx.profiles {
		if strings.EqualFold(p.Slug, s) {
			return p, nil
		}
	}
	return Profile{}, ErrNotFound
}

func (tx *memoryTx) Create(_ context.Context, p Profile) (Profile, error) {
	if tx.taken(p.Slug, uuid.Nil) {
		return Profile{}, fmt.Errorf("create profile %q: %w", p.Slug, slug.ErrTaken)
	}
	p.ID = uuid.New()
	p.ManualSlug = false
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.profiles[p.ID] = p
	return p, nil
}

func (tx *memoryTx) Update(_ context.Context, p Profile) (Profile, error) {
	current, ok := tx.profiles[p.ID]
	if !ok {
		return Profile{}, ErrNotFound
	}
	if tx.taken(p.Slug, p.ID) {
		return Profile{}, fmt.Errorf("update profile %q: %w", p.Slug, slug.ErrTaken)
	}
	current.Kind = p.Kind
	current.BusinessName = p.BusinessName
	current.PersonalName = p.PersonalName
	current.Slug = p.Slug
	current.UpdatedAt = tx.now
	tx.profiles[p.ID] = current
	return current, nil
}

func (tx *memoryTx) ListWithoutSlug(_ context.Context, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, p := range sorted(tx.profiles) {
		if len(ids) == limit {
			break
		}
		if p.Slug == "" {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (tx *memoryTx) MarkManual(_ context.Context, id uuid.UUID) error {
	return tx.setManual(id, true)
}

func (tx *memoryTx) Clear(_ context.Context, id uuid.UUID) error {
	return tx.setManual(id, false)
}

func (tx *memoryTx) IsManual(_ context.Context, id uuid.UUID) (bool, error) {
	p, ok := tx.profiles[id]
	if !ok {
		return false, fmt.Errorf("%w: %w", ErrNotFound, override.ErrUnknownEntity)
	}
	return p.ManualSlug, nil
}

func (tx *memoryTx) setManual(id uuid.UUID, manual bool) error {
	p, ok := tx.profiles[id]
	if !ok {
		return fmt.Errorf("%w: %w", ErrNotFound, override.ErrUnknownEntity)
	}
	p.ManualSlug = manual
	tx.profiles[id] = p
	return nil
}

func (tx *memoryTx) taken(s string, self uuid.UUID) bool {
	if s == "" {
		return false
	}
	for _, p := range tx.profiles {
		if p.ID != self && strings.EqualFold(p.Slug, s) {
			return true
		}
	}
	return false
}

func sorted(profiles map[uuid.UUID]Profile) []Profile {
	list := slices.Collect(maps.Values(profiles))
	slices.SortFunc(list, func(a, b Profile) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID.String(), b.ID.String()))
	})
	return list
}

var (
	_ Repository = (*Memory)(nil)
	_ Tx         = (*memoryTx)(nil)
)
