package taxonomy

import (
	"time"

	"github.com/google/uuid"
)

// Node is a single category in the hierarchy.
type Node struct {
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ParentID   *uuid.UUID `json:"parent_id"`
	Name       string     `json:"name"`
	Slug       string     `json:"slug"`
	ID         uuid.UUID  `json:"id"`
	Visible    bool       `json:"visible"`
	ManualSlug bool       `json:"manual_slug"`
}

// IsRoot reports whether the node has no parent.
func (n Node) IsRoot() bool { return n.ParentID == nil }

// Edge is the parent link of a node as stored. ParentID is nil for roots.
type Edge struct {
	ParentID *uuid.UUID
	ID       uuid.UUID
}

// Edge returns the node's parent link.
func (n Node) Edge() Edge { return Edge{ID: n.ID, ParentID: n.ParentID} }

// InsertInput describes a new node. Slug is optional: when set it is used instead of the
// name and the node starts with a manual slug override.
type InsertInput struct {
	ParentID *uuid.UUID
	Name     string
	Slug     string
	Visible  bool
}

// TreeNode is a node with its children, as returned by Tree.
type TreeNode struct {
	Node
	Children []*TreeNode `json:"children"`
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
