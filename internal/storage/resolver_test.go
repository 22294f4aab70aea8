package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/hbnb/hbnb/internal/models"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listOf(entities ...models.Entity) ListFunc {
	return func(_ context.Context, class string) (map[string]models.Entity, error) {
		result := make(map[string]models.Entity)
		for _, e := range entities {
			if class == "" || e.Class() == class {
				result[models.Key(e)] = e
			}
		}
		return result, nil
	}
}

func ids(entities []models.Entity) []string {
	return lo.Map(entities, func(e models.Entity, _ int) string { return e.Base().ID })
}

func TestScanResolver_Children(t *testing.T) {
	ctx := context.Background()

	state := models.NewState("California")
	other := models.NewState("Nevada")
	sf := models.NewCity(state.ID, "San Francisco")
	la := models.NewCity(state.ID, "Los Angeles")
	reno := models.NewCity(other.ID, "Reno")

	r := NewScanResolver(listOf(state, other, sf, la, reno))

	children, err := r.Children(ctx, state, models.StateCities)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{sf.ID, la.ID}, ids(children))
	assert.True(t, models.Key(children[0]) < models.Key(children[1]), "sorted by key")

	cities, err := Cities(ctx, r, other)
	require.NoError(t, err)
	require.Len(t, cities, 1)
	assert.Equal(t, "Reno", cities[0].Name)

	// relation of another parent class
	none, err := r.Children(ctx, sf, models.StateCities)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestScanResolver_ListError(t *testing.T) {
	boom := errors.New("boom")
	r := NewScanResolver(func(context.Context, string) (map[string]models.Entity, error) {
		return nil, boom
	})

	_, err := r.Children(context.Background(), models.NewState("X"), models.StateCities)
	require.ErrorIs(t, err, boom)
}

func TestDescendants(t *testing.T) {
	ctx := context.Background()

	user := &models.User{BaseModel: models.NewBase()}
	guest := &models.User{BaseModel: models.NewBase()}
	state := models.NewState("California")
	city := models.NewCity(state.ID, "San Francisco")
	place := &models.Place{BaseModel: models.NewBase(), CityID: city.ID, UserID: user.ID}
	own := &models.Review{BaseModel: models.NewBase(), PlaceID: place.ID, UserID: user.ID}
	visit := &models.Review{BaseModel: models.NewBase(), PlaceID: place.ID, UserID: guest.ID}

	r := NewScanResolver(listOf(user, guest, state, city, place, own, visit))

	fromState, err := Descendants(ctx, r, state)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{city.ID, place.ID, own.ID, visit.ID}, ids(fromState))
	assert.Equal(t, city.ID, fromState[0].Base().ID, "parents first")

	// own review is reachable both through the place and directly
	fromUser, err := Descendants(ctx, r, user)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{place.ID, own.ID, visit.ID}, ids(fromUser))

	fromGuest, err := Descendants(ctx, r, guest)
	require.NoError(t, err)
	assert.Equal(t, []string{visit.ID}, ids(fromGuest))

	leaf, err := Descendants(ctx, r, &models.Amenity{BaseModel: models.NewBase()})
	require.NoError(t, err)
	assert.Empty(t, leaf)

	empty, err := Descendants(ctx, r, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
