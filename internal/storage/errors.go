package storage

import "errors"

var (
	ErrNotFound          = errors.New("entity not found")
	ErrCommitFailed      = errors.New("commit failed")
	ErrUnsupportedEngine = errors.New("unsupported storage engine")
)
