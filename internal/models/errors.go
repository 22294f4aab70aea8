package models

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownClass  = errors.New("unknown class")
	ErrInvalidRecord = errors.New("invalid record")
)

// UnknownClassError is returned when a type tag has no registered factory.
type UnknownClassError struct {
	Class string
}

func (e *UnknownClassError) Error() string {
	return fmt.Sprintf("class %q is not registered", e.Class)
}

func (e *UnknownClassError) Is(target error) bool {
	return target == ErrUnknownClass
}
