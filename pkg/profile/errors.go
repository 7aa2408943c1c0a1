package profile

import "errors"

var (
	ErrNotFound    = errors.New("profile: not found")
	ErrInvalidKind = errors.New("profile: invalid kind")
)
