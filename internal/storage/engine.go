package storage

import (
	"context"
	"fmt"

	"github.com/hbnb/hbnb/internal/models"
)

// Engine is the persistence contract shared by every backend.
//
// Entities returned by All are transient references: they stay valid until
// the next Reload or Close.
type Engine interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	// All returns the live entities keyed by composite key. An empty class
	// returns every class; a class with no entities yields an empty map.
	All(ctx context.Context, class string) (map[string]models.Entity, error)

	// New registers e for the next Save. Registering the same key again
	// replaces the previous registration. A nil entity is ignored.
	New(e models.Entity)

	// Save durably commits every pending registration and deletion, or none.
	Save(ctx context.Context) error

	// Delete removes e together with the entities that depend on it.
	// A nil or unknown entity is ignored.
	Delete(ctx context.Context, e models.Entity) error

	// Reload discards in-memory state and repopulates it from the backing medium.
	Reload(ctx context.Context) error

	// Close releases the current session. The engine stays usable.
	Close(ctx context.Context) error

	// Resolver returns the relationship resolver bound to this engine.
	Resolver() Resolver
}

// SaveEntity refreshes the update timestamp of e, registers it and commits.
func SaveEntity(ctx context.Context, engine Engine, e models.Entity) error {
	e.Base().Touch()
	engine.New(e)

	if err := engine.Save(ctx); err != nil {
		return fmt.Errorf("failed to save %s: %w", models.Key(e), err)
	}

	return nil
}

// Get returns the entity stored under class and id.
func Get(ctx context.Context, engine Engine, class, id string) (models.Entity, error) {
	all, err := engine.All(ctx, class)
	if err != nil {
		return nil, err
	}

	entity, ok := all[models.KeyOf(class, id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, models.KeyOf(class, id))
	}

	return entity, nil
}
