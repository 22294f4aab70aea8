package models

import "strings"

// Key returns the composite key <Class>.<id> of an entity.
func Key(e Entity) string {
	return KeyOf(e.Class(), e.Base().ID)
}

// KeyOf returns the composite key of class and id.
func KeyOf(class, id string) string {
	return class + "." + id
}

// SplitKey is the inverse of KeyOf. Ids never contain dots, class names neither.
func SplitKey(key string) (string, string, bool) {
	class, id, ok := strings.Cut(key, ".")
	if !ok || class == "" || id == "" {
		return "", "", false
	}

	return class, id, true
}
