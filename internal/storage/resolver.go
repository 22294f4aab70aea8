package storage

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/hbnb/hbnb/internal/models"
	"github.com/samber/lo"
)

// Resolver computes the children side of a one-to-many relation. The inverse
// view is never stored; every engine derives it from the foreign keys.
type Resolver interface {
	// Children returns the entities of rel.Child referencing parent, sorted by key.
	Children(ctx context.Context, parent models.Entity, rel models.Relation) ([]models.Entity, error)
}

// ListFunc lists the live entities of one class.
type ListFunc func(ctx context.Context, class string) (map[string]models.Entity, error)

// ScanResolver resolves children by scanning every entity of the child class.
type ScanResolver struct {
	list ListFunc
}

// NewScanResolver resolves children from the entities returned by list.
func NewScanResolver(list ListFunc) *ScanResolver {
	return &ScanResolver{list: list}
}

// Children implements Resolver.
func (r *ScanResolver) Children(
	ctx context.Context,
	parent models.Entity,
	rel models.Relation,
) ([]models.Entity, error) {
	if parent == nil || parent.Class() != rel.Parent {
		return nil, nil
	}

	all, err := r.list(ctx, rel.Child)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", rel.Child, err)
	}

	parentID := parent.Base().ID
	children := lo.Filter(lo.Values(all), func(e models.Entity, _ int) bool {
		return models.ForeignKey(e, rel.ForeignKey) == parentID
	})
	SortByKey(children)

	return children, nil
}

var _ Resolver = (*ScanResolver)(nil)

// SortByKey orders entities by composite key.
func SortByKey(entities []models.Entity) {
	slices.SortFunc(entities, func(a, b models.Entity) int {
		return strings.Compare(models.Key(a), models.Key(b))
	})
}

// Cities returns the cities of state.
func Cities(ctx context.Context, r Resolver, state *models.State) ([]*models.City, error) {
	children, err := r.Children(ctx, state, models.StateCities)
	if err != nil {
		return nil, err
	}

	return lo.FilterMap(children, func(e models.Entity, _ int) (*models.City, bool) {
		city, ok := e.(*models.City)
		return city, ok
	}), nil
}

// Descendants returns every entity that transitively depends on e, each once,
// parents before their own children.
func Descendants(ctx context.Context, r Resolver, e models.Entity) ([]models.Entity, error) {
	if e == nil {
		return nil, nil
	}

	seen := map[string]struct{}{models.Key(e): {}}
	queue := []models.Entity{e}
	var result []models.Entity

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, rel := range models.RelationsOf(current.Class()) {
			children, err := r.Children(ctx, current, rel)
			if err != nil {
				return nil, err
			}

			for _, child := range children {
				key := models.Key(child)
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}
				result = append(result, child)
				queue = append(queue, child)
			}
		}
	}

	return result, nil
}
