package override

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Tracker stores the manual-override flag per entity.
type Tracker interface {
	// MarkManual freezes the entity's slug against label edits.
	MarkManual(ctx context.Context, id uuid.UUID) error
	// Clear returns the entity to automatic slug maintenance.
	Clear(ctx context.Context, id uuid.UUID) error
	// IsManual reports whether the entity's slug is frozen.
	IsManual(ctx context.Context, id uuid.UUID) (bool, error)
}

// Action is the outcome of Decide.
type Action int

const (
	// Keep leaves the current slug untouched.
	Keep Action = iota
	// Regenerate re-derives the slug from the label.
	Regenerate
)

func (a Action) String() string {
	if a == Regenerate {
		return "regenerate"
	}
	return "keep"
}

// Decide returns Regenerate only when the label changed and the slug is not frozen.
func Decide(manual, labelChanged bool) Action {
	if manual || !labelChanged {
		return Keep
	}
	return Regenerate
}

// Memory is a Tracker held in process memory. The zero value is ready to use and treats
// every id as automatic until marked.
type Memory struct {
	manual map[uuid.UUID]struct{}
	mu     sync.RWMutex
}

// NewMemory creates an empty in-memory tracker.
func NewMemory() *Memory {
	return &Memory{manual: make(map[uuid.UUID]struct{})}
}

func (m *Memory) MarkManual(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.manual == nil {
		m.manual = make(map[uuid.UUID]struct{})
	}
	m.manual[id] = struct{}{}
	return nil
}

func (m *Memory) Clear(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.manual, id)
	return nil
}

func (m *Memory) IsManual(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.manual[id]
	return ok, nil
}

var _ Tracker = (*Memory)(nil)
