package storage

import (
	"reflect"
	"slices"

	"github.com/hbnb/hbnb/internal/models"
	"github.com/samber/lo"
)

type change struct {
	entity  models.Entity
	deleted bool
}

type tracked struct {
	entity   models.Entity
	snapshot map[string]any
}

// UnitOfWork collects the changes of one session until they are committed.
// It also keeps an identity map of the committed entities handed out during
// the session, so in-place modifications are flushed on commit.
//
// UnitOfWork is not safe for concurrent use; engines guard it with their own lock.
type UnitOfWork struct {
	order  []string
	staged map[string]change
	loaded map[string]tracked
}

func NewUnitOfWork() *UnitOfWork {
	u := new(UnitOfWork)
	u.Reset()

	return u
}

// Reset drops every staged change and the identity map.
func (u *UnitOfWork) Reset() {
	u.order = nil
	u.staged = make(map[string]change)
	u.loaded = make(map[string]tracked)
}

// Add stages an insert or update of e.
func (u *UnitOfWork) Add(e models.Entity) {
	u.stage(models.Key(e), change{entity: e, deleted: false})
}

// Remove stages the deletion of e.
func (u *UnitOfWork) Remove(e models.Entity) {
	u.stage(models.Key(e), change{entity: e, deleted: true})
}

func (u *UnitOfWork) stage(key string, c change) {
	if _, ok := u.staged[key]; !ok {
		u.order = append(u.order, key)
	}
	u.staged[key] = c
}

// IsDeleted reports whether key has a staged deletion.
func (u *UnitOfWork) IsDeleted(key string) bool {
	c, ok := u.staged[key]
	return ok && c.deleted
}

// Pending returns the number of staged changes.
func (u *UnitOfWork) Pending() int {
	return len(u.order)
}

// Track returns the session instance for a freshly loaded committed entity.
func (u *UnitOfWork) Track(e models.Entity) models.Entity {
	key := models.Key(e)
	if c, ok := u.staged[key]; ok && !c.deleted {
		return c.entity
	}
	if t, ok := u.loaded[key]; ok {
		return t.entity
	}

	u.loaded[key] = tracked{entity: e, snapshot: models.ToMap(e)}

	return e
}

// Merge overlays the staged changes on committed, limited to class when set.
func (u *UnitOfWork) Merge(committed map[string]models.Entity, class string) map[string]models.Entity {
	result := make(map[string]models.Entity, len(committed)+len(u.order))
	for key, e := range committed {
		if u.IsDeleted(key) {
			continue
		}
		result[key] = u.Track(e)
	}

	for _, key := range u.order {
		c := u.staged[key]
		if c.deleted || (class != "" && c.entity.Class() != class) {
			continue
		}
		result[key] = c.entity
	}

	return result
}

// MergeChildren overlays the staged changes on the committed children of parent.
func (u *UnitOfWork) MergeChildren(
	committed []models.Entity,
	parent models.Entity,
	rel models.Relation,
) []models.Entity {
	if u.IsDeleted(models.Key(parent)) {
		return nil
	}

	candidates := make(map[string]models.Entity, len(committed))
	for _, e := range committed {
		key := models.Key(e)
		if u.IsDeleted(key) {
			continue
		}
		candidates[key] = u.Track(e)
	}

	// in-session instances may point to another parent than their committed row
	for key, t := range u.loaded {
		if t.entity.Class() == rel.Child && !u.IsDeleted(key) {
			candidates[key] = t.entity
		}
	}
	for _, key := range u.order {
		c := u.staged[key]
		if !c.deleted && c.entity.Class() == rel.Child {
			candidates[key] = c.entity
		}
	}

	parentID := parent.Base().ID
	children := lo.Filter(lo.Values(candidates), func(e models.Entity, _ int) bool {
		return models.ForeignKey(e, rel.ForeignKey) == parentID
	})
	SortByKey(children)

	return children
}

// Changes returns the entities to write, parents first, and the entities to
// delete, children first. Tracked entities modified in place count as writes.
func (u *UnitOfWork) Changes() ([]models.Entity, []models.Entity) {
	var upserts, deletes []models.Entity
	for _, key := range u.order {
		c := u.staged[key]
		if c.deleted {
			deletes = append(deletes, c.entity)
		} else {
			upserts = append(upserts, c.entity)
		}
	}

	keys := lo.Keys(u.loaded)
	slices.Sort(keys)
	for _, key := range keys {
		if _, ok := u.staged[key]; ok {
			continue
		}

		t := u.loaded[key]
		if !reflect.DeepEqual(models.ToMap(t.entity), t.snapshot) {
			upserts = append(upserts, t.entity)
		}
	}

	slices.SortStableFunc(upserts, func(a, b models.Entity) int {
		return classRank(a.Class()) - classRank(b.Class())
	})
	slices.SortStableFunc(deletes, func(a, b models.Entity) int {
		return classRank(b.Class()) - classRank(a.Class())
	})

	return upserts, deletes
}

// Committed marks every change as durable and refreshes the identity map.
func (u *UnitOfWork) Committed() {
	for _, key := range u.order {
		c := u.staged[key]
		if c.deleted {
			delete(u.loaded, key)
			continue
		}
		u.loaded[key] = tracked{entity: c.entity, snapshot: nil}
	}

	for key, t := range u.loaded {
		t.snapshot = models.ToMap(t.entity)
		u.loaded[key] = t
	}

	u.order = nil
	u.staged = make(map[string]change)
}

func classRank(class string) int {
	if i := slices.Index(models.Classes(), class); i >= 0 {
		return i
	}

	return len(models.Classes())
}
