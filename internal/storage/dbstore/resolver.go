package dbstore

import (
	"context"
	"fmt"

	"github.com/hbnb/hbnb/internal/models"
	"github.com/hbnb/hbnb/internal/storage"
)

// joinResolver resolves children with a join on the foreign key column.
type joinResolver struct {
	engine *Engine
}

// Children implements storage.Resolver.
func (r *joinResolver) Children(
	ctx context.Context,
	parent models.Entity,
	rel models.Relation,
) ([]models.Entity, error) {
	r.engine.mu.Lock()
	defer r.engine.mu.Unlock()

	return r.engine.children(ctx, parent, rel)
}

// lockedResolver is used while the engine lock is already held.
type lockedResolver struct {
	engine *Engine
}

// Children implements storage.Resolver.
func (r lockedResolver) Children(
	ctx context.Context,
	parent models.Entity,
	rel models.Relation,
) ([]models.Entity, error) {
	return r.engine.children(ctx, parent, rel)
}

func (e *Engine) children(ctx context.Context, parent models.Entity, rel models.Relation) ([]models.Entity, error) {
	if parent == nil || parent.Class() != rel.Parent {
		return nil, nil
	}

	child, ok := e.schema.table(rel.Child)
	if !ok {
		return nil, &models.UnknownClassError{Class: rel.Child}
	}
	owner, ok := e.schema.table(rel.Parent)
	if !ok {
		return nil, &models.UnknownClassError{Class: rel.Parent}
	}

	query := fmt.Sprintf(
		"SELECT %s FROM %s c INNER JOIN %s p ON c.%s = p.%s WHERE p.%s = ?",
		e.schema.selectColumns(e.dialect, child, "c"),
		e.dialect.quote(child.name),
		e.dialect.quote(owner.name),
		e.dialect.quote(rel.ForeignKey),
		e.dialect.quote("id"),
		e.dialect.quote("id"),
	)

	committed, err := e.query(ctx, child, query, parent.Base().ID)
	if err != nil {
		return nil, err
	}

	return e.session.MergeChildren(committed, parent, rel), nil
}

var (
	_ storage.Resolver = (*joinResolver)(nil)
	_ storage.Resolver = lockedResolver{}
)
