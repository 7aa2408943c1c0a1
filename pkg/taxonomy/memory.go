package taxonomy

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

// Memory is an in-process Repository. Transactions are serialized and work on a copy of
// the state that replaces the stored state only when fn returns nil.
//
// It enforces the same constraints as the Postgres schema: unique slugs ignoring case,
// existing parents, and no deletion of referenced nodes.
type Memory struct {
	state memoryState
	now   func() time.Time
	mu    sync.Mutex
}

type memoryState struct {
	nodes map[uuid.UUID]Node
	links map[uuid.UUID]int
}

func (s memoryState) clone() memoryState {
	return memoryState{
		nodes: maps.Clone(s.nodes),
		links: maps.Clone(s.links),
	}
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		state: memoryState{
			nodes: make(map[uuid.UUID]Node),
			links: make(map[uuid.UUID]int),
		},
		now: time.Now,
	}
}

// WithinTx runs fn against a transactional copy of the state.
func (m *Memory) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{state: m.state.clone(), now: m.now()}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	m.state = tx.state
	return nil
}

// Import stores nodes as given, bypassing every constraint. Use it to load fixtures,
// including edge sets that would never pass validation.
func (m *Memory) Import(nodes ...Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range nodes {
		m.state.nodes[n.ID] = n
	}
}

// Export returns a copy of all stored nodes ordered by name.
func (m *Memory) Export() []Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedNodes(m.state.nodes)
}

// SetLinks records how many external entities reference the node.
func (m *Memory) SetLinks(nodeID uuid.UUID, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if count <= 0 {
		delete(m.state.links, nodeID)
		return
	}
	m.state.links[nodeID] = count
}

type memoryTx struct {
	state memoryState
	now   time.Time
}

func (tx *memoryTx) LockHierarchy(context.Context) error { return nil }

func (tx *memoryTx) ListEdges(context.Context) ([]Edge, error) {
	edges := make([]Edge, 0, len(tx.state.nodes))
	for _, n := range tx.state.nodes {
		edges = append(edges, n.Edge())
	}
	return edges, nil
}

func (tx *memoryTx) ListSlugs(context.Context) (slug.Set, error) {
	set := make(slug.Set, len(tx.state.nodes))
	for _, n := range tx.state.nodes {
		set.Add(n.Slug)
	}
	return set, nil
}

func (tx *memoryTx) List(context.Context) ([]Node, error) {
	return sortedNodes(tx.state.nodes), nil
}

func (tx *memoryTx) Get(_ context.Context, id uuid.UUID) (Node, error) {
	n, ok := tx.state.nodes[id]
	if !ok {
		return Node{}, ErrNotFound
	}
	return n, nil
}

func (tx *memoryTx) GetBySlug(_ context.Context, s string) (Node, error) {
	for _, n := range tx.state.nodes {
		if strings.EqualFold(n.Slug, s) {
			return n, nil
		}
	}
	return Node{}, ErrNotFound
}

func (tx *memoryTx) Create(_ context.Context, n Node) (Node, error) {
	if tx.slugTaken(n.Slug, uuid.Nil) {
		return Node{}, fmt.Errorf("create category %q: %w", n.Slug, slug.ErrTaken)
	}
	if n.ParentID != nil {
		if _, ok := tx.state.nodes[*n.ParentID]; !ok {
			return Node{}, ErrParentNotFound
		}
	}

	n.ID = uuid.New()
	n.ParentID = copyID(n.ParentID)
	n.ManualSlug = false
	n.CreatedAt = tx.now
	n.UpdatedAt = tx.now
	tx.state.nodes[n.ID] = n
	return n, nil
}

func (tx *memoryTx) Update(_ context.Context, n Node) (Node, error) {
	current, ok := tx.state.nodes[n.ID]
	if !ok {
		return Node{}, ErrNotFound
	}
	if tx.slugTaken(n.Slug, n.ID) {
		return Node{}, fmt.Errorf("update category %q: %w", n.Slug, slug.ErrTaken)
	}

	current.Name = n.Name
	current.Slug = n.Slug
	current.Visible = n.Visible
	current.UpdatedAt = tx.now
	tx.state.nodes[n.ID] = current
	return current, nil
}

func (tx *memoryTx) SetParent(_ context.Context, id uuid.UUID, parentID *uuid.UUID) (Node, error) {
	current, ok := tx.state.nodes[id]
	if !ok {
		return Node{}, ErrNotFound
	}
	if parentID != nil {
		if _, ok := tx.state.nodes[*parentID]; !ok {
			return Node{}, ErrParentNotFound
		}
	}

	current.ParentID = copyID(parentID)
	current.UpdatedAt = tx.now
	tx.state.nodes[id] = current
	return current, nil
}

func (tx *memoryTx) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := tx.state.nodes[id]; !ok {
		return ErrNotFound
	}
	if n, _ := tx.CountChildren(ctx, id); n > 0 {
		return ErrChildrenExist
	}
	if tx.state.links[id] > 0 {
		return ErrReferencesExist
	}
	delete(tx.state.nodes, id)
	return nil
}

func (tx *memoryTx) CountChildren(_ context.Context, id uuid.UUID) (int, error) {
	count := 0
	for _, n := range tx.state.nodes {
		if n.ParentID != nil && *n.ParentID == id {
			count++
		}
	}
	return count, nil
}

func (tx *memoryTx) CountLinkedEntities(_ context.Context, id uuid.UUID) (int, error) {
	return tx.state.links[id], nil
}

func (tx *memoryTx) MarkManual(_ context.Context, id uuid.UUID) error {
	return tx.setManual(id, true)
}

func (tx *memoryTx) Clear(_ context.Context, id uuid.UUID) error {
	return tx.setManual(id, false)
}

func (tx *memoryTx) IsManual(_ context.Context, id uuid.UUID) (bool, error) {
	n, ok := tx.state.nodes[id]
	if !ok {
		return false, fmt.Errorf("%w: %w", ErrNotFound, override.ErrUnknownEntity)
	}
	return n.ManualSlug, nil
}

func (tx *memoryTx) setManual(id uuid.UUID, manual bool) error {
	n, ok := tx.state.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %w", ErrNotFound, override.ErrUnknownEntity)
	}
	n.ManualSlug = manual
	tx.state.nodes[id] = n
	return nil
}

func (tx *memoryTx) slugTaken(s string, self uuid.UUID) bool {
	for _, n := range tx.state.nodes {
		if n.ID != self && strings.EqualFold(n.Slug, s) {
			return true
		}
	}
	return false
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func sortedNodes(nodes map[uuid.UUID]Node) []Node {
	list := slices.Collect(maps.Values(nodes))
	slices.SortFunc(list, func(a, b Node) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Slug, b.Slug))
	})
	return list
}

var (
	_ Repository = (*Memory)(nil)
	_ Tx         = (*memoryTx)(nil)
)
