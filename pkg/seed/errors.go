package seed

import "errors"

var (
	ErrInvalidFile = errors.New("seed: invalid file")
	ErrEmptyName   = errors.New("seed: category name is empty")
)
