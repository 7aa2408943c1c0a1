package taxonomy

import "errors"

var (
	// ErrNotFound is returned when a node id or slug is unknown to the repository.
	ErrNotFound = errors.New("taxonomy: node not found")

	// ErrParentNotFound is returned when the requested parent does not exist.
	ErrParentNotFound = errors.New("taxonomy: parent not found")

	// ErrSelfParent is returned when a node is asked to become its own parent.
	ErrSelfParent = errors.New("taxonomy: node cannot be its own parent")

	// ErrCycleDetected is returned when the new parent is a descendant of the node.
	ErrCycleDetected = errors.New("taxonomy: reparent would create a cycle")

	// ErrChildrenExist is returned when deleting a node that still has child nodes.
	ErrChildrenExist = errors.New("taxonomy: node has children")

	// ErrReferencesExist is returned when deleting a node that is still linked to entities.
	ErrReferencesExist = errors.New("taxonomy: node is referenced by other entities")

	// ErrInvalidName is returned when the display name is blank.
	ErrInvalidName = errors.New("taxonomy: display name is required")
)
