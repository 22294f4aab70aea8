package storage

import (
	"testing"

	"github.com/hbnb/hbnb/internal/models"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classesOf(entities []models.Entity) []string {
	return lo.Map(entities, func(e models.Entity, _ int) string { return e.Class() })
}

func TestUnitOfWork_ChangesOrdering(t *testing.T) {
	u := NewUnitOfWork()

	user := &models.User{BaseModel: models.NewBase(), Email: "a@b.c", Password: "x"}
	state := models.NewState("California")
	city := models.NewCity(state.ID, "San Francisco")
	review := &models.Review{BaseModel: models.NewBase(), UserID: user.ID, PlaceID: "p"}

	u.Add(review)
	u.Add(city)
	u.Add(state)
	u.Add(user)

	upserts, deletes := u.Changes()
	assert.Empty(t, deletes)
	assert.Equal(t,
		[]string{models.ClassUser, models.ClassState, models.ClassCity, models.ClassReview},
		classesOf(upserts),
	)

	u.Reset()
	u.Remove(state)
	u.Remove(review)
	u.Remove(city)

	upserts, deletes = u.Changes()
	assert.Empty(t, upserts)
	assert.Equal(t,
		[]string{models.ClassReview, models.ClassCity, models.ClassState},
		classesOf(deletes),
	)
}

func TestUnitOfWork_LastStageWins(t *testing.T) {
	u := NewUnitOfWork()
	state := models.NewState("Nevada")

	u.Add(state)
	u.Remove(state)
	assert.True(t, u.IsDeleted(models.Key(state)))
	assert.Equal(t, 1, u.Pending())

	u.Add(state)
	assert.False(t, u.IsDeleted(models.Key(state)))

	upserts, deletes := u.Changes()
	assert.Len(t, upserts, 1)
	assert.Empty(t, deletes)
}

func TestUnitOfWork_TrackDetectsInPlaceChanges(t *testing.T) {
	u := NewUnitOfWork()

	loaded := models.NewState("Oregon")
	again := &models.State{BaseModel: loaded.BaseModel, Name: loaded.Name}

	assert.Same(t, loaded, u.Track(loaded))
	assert.Same(t, loaded, u.Track(again), "identity map keeps the first instance")

	upserts, _ := u.Changes()
	assert.Empty(t, upserts)

	loaded.Name = "Washington"
	upserts, _ = u.Changes()
	require.Len(t, upserts, 1)
	assert.Same(t, loaded, upserts[0])

	u.Committed()
	upserts, deletes := u.Changes()
	assert.Empty(t, upserts)
	assert.Empty(t, deletes)
	assert.Zero(t, u.Pending())
}

func TestUnitOfWork_Merge(t *testing.T) {
	u := NewUnitOfWork()

	kept := models.NewState("Utah")
	removed := models.NewState("Idaho")
	committed := map[string]models.Entity{
		models.Key(kept):    kept,
		models.Key(removed): removed,
	}

	added := models.NewState("Texas")
	city := models.NewCity(kept.ID, "Salt Lake City")
	u.Add(added)
	u.Add(city)
	u.Remove(removed)

	states := u.Merge(committed, models.ClassState)
	assert.ElementsMatch(t,
		[]string{models.Key(kept), models.Key(added)},
		lo.Keys(states),
	)

	all := u.Merge(committed, "")
	assert.Len(t, all, 3)
	assert.Contains(t, all, models.Key(city))
}

func TestUnitOfWork_MergeChildren(t *testing.T) {
	u := NewUnitOfWork()

	state := models.NewState("California")
	other := models.NewState("Nevada")
	sf := models.NewCity(state.ID, "San Francisco")
	la := models.NewCity(state.ID, "Los Angeles")
	reno := models.NewCity(other.ID, "Reno")

	// moved to another state in this session
	moved := u.Track(la).(*models.City)
	moved.StateID = other.ID

	u.Add(reno)

	children := u.MergeChildren([]models.Entity{sf, la}, state, models.StateCities)
	assert.Equal(t, []string{sf.ID}, lo.Map(children, func(e models.Entity, _ int) string { return e.Base().ID }))

	children = u.MergeChildren(nil, other, models.StateCities)
	assert.ElementsMatch(t,
		[]string{la.ID, reno.ID},
		lo.Map(children, func(e models.Entity, _ int) string { return e.Base().ID }),
	)

	u.Remove(state)
	assert.Empty(t, u.MergeChildren([]models.Entity{sf}, state, models.StateCities))
}
