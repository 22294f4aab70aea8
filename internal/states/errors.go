package states

import "errors"

var (
	ErrNotFound = errors.New("state not found")
)
