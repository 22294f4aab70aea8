package console

import "errors"

var (
	ErrClassMissing   = errors.New("class name missing")
	ErrIDMissing      = errors.New("instance id missing")
	ErrNoInstance     = errors.New("no instance found")
	ErrUnknownCommand = errors.New("unknown command")
)
