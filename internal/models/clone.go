package models

import "github.com/mitchellh/copystructure"

// Clone returns a deep copy of e sharing no memory with the engine's instance.
func Clone[T Entity](e T) T {
	return copystructure.Must(copystructure.Copy(e)).(T) //nolint:forcetypeassert // Copy keeps the dynamic type
}
