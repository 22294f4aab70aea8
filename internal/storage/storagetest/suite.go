// Package storagetest holds the behaviour every storage engine must share.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hbnb/hbnb/internal/models"
	"github.com/hbnb/hbnb/internal/storage"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Opener returns a new, reloaded engine instance over the backing medium of
// one test. Every call simulates a process restart on the same data.
type Opener func() storage.Engine

// Medium prepares an empty backing medium for one test.
type Medium func(t *testing.T) Opener

// Dataset is a small graph touching every class.
type Dataset struct {
	User    *models.User
	State   *models.State
	SF      *models.City
	LA      *models.City
	Amenity *models.Amenity
	Place   *models.Place
	Review  *models.Review
}

// Entities lists the dataset parents first.
func (d Dataset) Entities() []models.Entity {
	return []models.Entity{d.User, d.State, d.SF, d.LA, d.Amenity, d.Place, d.Review}
}

// NewDataset builds California with San Francisco and Los Angeles, one host,
// one place in San Francisco and one review of it.
func NewDataset() Dataset {
	user := &models.User{
		BaseModel: models.NewBase(),
		Email:     "host@hbnb.io",
		Password:  "secret",
		FirstName: "Betty",
		LastName:  "Holberton",
	}
	state := models.NewState("California")
	sf := models.NewCity(state.ID, "San Francisco")
	la := models.NewCity(state.ID, "Los Angeles")
	amenity := &models.Amenity{BaseModel: models.NewBase(), Name: "Wifi"}
	place := &models.Place{
		BaseModel:       models.NewBase(),
		CityID:          sf.ID,
		UserID:          user.ID,
		Name:            "Painted lady",
		Description:     "Victorian house",
		NumberRooms:     3,
		NumberBathrooms: 2,
		MaxGuest:        6,
		PriceByNight:    250,
		Latitude:        37.7763,
		Longitude:       -122.4328,
		AmenityIDs:      []string{amenity.ID},
	}
	review := &models.Review{
		BaseModel: models.NewBase(),
		PlaceID:   place.ID,
		UserID:    user.ID,
		Text:      "Lovely stay",
	}

	return Dataset{
		User:    user,
		State:   state,
		SF:      sf,
		LA:      la,
		Amenity: amenity,
		Place:   place,
		Review:  review,
	}
}

// Store registers every entity of d and commits.
func Store(t *testing.T, engine storage.Engine, d Dataset) {
	t.Helper()

	for _, e := range d.Entities() {
		engine.New(e)
	}
	require.NoError(t, engine.Save(context.Background()))
}

// Run executes the shared engine behaviour against medium.
func Run(t *testing.T, medium Medium) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, open Opener)
	}{
		{"RoundTrip", testRoundTrip},
		{"CitiesOfState", testCitiesOfState},
		{"CascadeDelete", testCascadeDelete},
		{"IdempotentReload", testIdempotentReload},
		{"FilteredPartition", testFilteredPartition},
		{"SessionVisibility", testSessionVisibility},
		{"DeleteIgnoresNilAndMissing", testDeleteIgnoresNilAndMissing},
		{"UnknownFilterIsEmpty", testUnknownFilterIsEmpty},
		{"CloseDiscardsUnsaved", testCloseDiscardsUnsaved},
		{"InPlaceUpdate", testInPlaceUpdate},
		{"ReplaceRegistration", testReplaceRegistration},
		{"ConcurrentSaves", testConcurrentSaves},
		{"ConcurrentUnitsWithTeardown", testConcurrentUnitsWithTeardown},
		{"CloseWaitsForRunningUnit", testCloseWaitsForRunningUnit},
		{"FailedUnitIsDiscarded", testFailedUnitIsDiscarded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, medium(t))
		})
	}
}

func testRoundTrip(t *testing.T, open Opener) {
	ctx := context.Background()
	d := NewDataset()
	Store(t, open(), d)

	restored := open()
	for _, want := range d.Entities() {
		all, err := restored.All(ctx, want.Class())
		require.NoError(t, err)

		got, ok := all[models.Key(want)]
		require.True(t, ok, "missing %s", models.Key(want))
		assert.Equal(t, models.ToMap(want), models.ToMap(got))
		assert.Equal(t, *want.Base(), *got.Base())
	}
}

func testCitiesOfState(t *testing.T, open Opener) {
	ctx := context.Background()
	d := NewDataset()
	Store(t, open(), d)

	engine := open()

	cities, err := storage.Cities(ctx, engine.Resolver(), d.State)
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{d.SF.ID, d.LA.ID},
		lo.Map(cities, func(c *models.City, _ int) string { return c.ID }),
	)

	all, err := engine.All(ctx, models.ClassCity)
	require.NoError(t, err)
	filtered := lo.FilterMap(lo.Values(all), func(e models.Entity, _ int) (string, bool) {
		return e.Base().ID, models.ForeignKey(e, models.StateCities.ForeignKey) == d.State.ID
	})
	assert.ElementsMatch(t, []string{d.SF.ID, d.LA.ID}, filtered)

	other := models.NewState("Nevada")
	none, err := storage.Cities(ctx, engine.Resolver(), other)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testCascadeDelete(t *testing.T, open Opener) {
	ctx := context.Background()
	d := NewDataset()
	Store(t, open(), d)

	engine := open()
	require.NoError(t, engine.Delete(ctx, d.State))

	// visible before save
	cities, err := engine.All(ctx, models.ClassCity)
	require.NoError(t, err)
	assert.Empty(t, cities)

	require.NoError(t, engine.Save(ctx))

	restored := open()
	for _, class := range []string{models.ClassState, models.ClassCity, models.ClassPlace, models.ClassReview} {
		all, allErr := restored.All(ctx, class)
		require.NoError(t, allErr)
		assert.Empty(t, all, class)
	}

	resolved, err := storage.Cities(ctx, restored.Resolver(), d.State)
	require.NoError(t, err)
	assert.Empty(t, resolved)

	users, err := restored.All(ctx, models.ClassUser)
	require.NoError(t, err)
	assert.Contains(t, users, models.Key(d.User))

	amenities, err := restored.All(ctx, models.ClassAmenity)
	require.NoError(t, err)
	assert.Contains(t, amenities, models.Key(d.Amenity))
}

func testIdempotentReload(t *testing.T, open Opener) {
	ctx := context.Background()
	Store(t, open(), NewDataset())

	engine := open()

	require.NoError(t, engine.Reload(ctx))
	first, err := engine.All(ctx, "")
	require.NoError(t, err)
	firstRecords := records(first)

	require.NoError(t, engine.Reload(ctx))
	second, err := engine.All(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, firstRecords, records(second))
}

func testFilteredPartition(t *testing.T, open Opener) {
	ctx := context.Background()
	d := NewDataset()
	Store(t, open(), d)

	engine := open()

	all, err := engine.All(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, len(d.Entities()))

	union := make(map[string]models.Entity)
	total := 0
	for _, class := range models.Classes() {
		byClass, classErr := engine.All(ctx, class)
		require.NoError(t, classErr)

		for key, e := range byClass {
			assert.Equal(t, class, e.Class())
			union[key] = e
		}
		total += len(byClass)
	}

	assert.Equal(t, len(union), total, "classes overlap")
	assert.Equal(t, records(all), records(union))
}

func testSessionVisibility(t *testing.T, open Opener) {
	ctx := context.Background()
	engine := open()

	state := models.NewState("Oregon")
	engine.New(state)

	all, err := engine.All(ctx, models.ClassState)
	require.NoError(t, err)
	assert.Contains(t, all, models.Key(state))

	city := models.NewCity(state.ID, "Portland")
	engine.New(city)

	cities, err := storage.Cities(ctx, engine.Resolver(), state)
	require.NoError(t, err)
	require.Len(t, cities, 1)
	assert.Equal(t, city.ID, cities[0].ID)

	require.NoError(t, engine.Delete(ctx, city))
	all, err = engine.All(ctx, models.ClassCity)
	require.NoError(t, err)
	assert.NotContains(t, all, models.Key(city))

	require.NoError(t, engine.Save(ctx))

	restored := open()
	states, err := restored.All(ctx, models.ClassState)
	require.NoError(t, err)
	assert.Contains(t, states, models.Key(state))

	cities, err = storage.Cities(ctx, restored.Resolver(), state)
	require.NoError(t, err)
	assert.Empty(t, cities)
}

func testDeleteIgnoresNilAndMissing(t *testing.T, open Opener) {
	ctx := context.Background()
	engine := open()

	require.NoError(t, engine.Delete(ctx, nil))
	require.NoError(t, engine.Delete(ctx, models.NewState("Nowhere")))
	require.NoError(t, engine.Save(ctx))

	engine.New(nil)
	all, err := engine.All(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testUnknownFilterIsEmpty(t *testing.T, open Opener) {
	ctx := context.Background()
	engine := open()
	Store(t, engine, NewDataset())

	all, err := engine.All(ctx, "Spaceship")
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func testCloseDiscardsUnsaved(t *testing.T, open Opener) {
	ctx := context.Background()
	engine := open()

	saved := models.NewState("Utah")
	require.NoError(t, storage.SaveEntity(ctx, engine, saved))

	unsaved := models.NewState("Idaho")
	engine.New(unsaved)
	require.NoError(t, engine.Close(ctx))

	all, err := engine.All(ctx, models.ClassState)
	require.NoError(t, err)
	assert.Contains(t, all, models.Key(saved))
	assert.NotContains(t, all, models.Key(unsaved))
}

func testInPlaceUpdate(t *testing.T, open Opener) {
	ctx := context.Background()
	d := NewDataset()
	Store(t, open(), d)

	engine := open()
	found, err := storage.Get(ctx, engine, models.ClassCity, d.LA.ID)
	require.NoError(t, err)

	city, ok := found.(*models.City)
	require.True(t, ok)
	city.Name = "Los Angeles County"
	require.NoError(t, engine.Save(ctx))

	restored, err := storage.Get(ctx, open(), models.ClassCity, d.LA.ID)
	require.NoError(t, err)
	assert.Equal(t, "Los Angeles County", restored.(*models.City).Name)
}

func testReplaceRegistration(t *testing.T, open Opener) {
	ctx := context.Background()
	engine := open()

	state := models.NewState("Texas")
	engine.New(state)

	replacement := &models.State{BaseModel: state.BaseModel, Name: "Lone Star"}
	engine.New(replacement)
	require.NoError(t, engine.Save(ctx))

	all, err := open().All(ctx, models.ClassState)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Lone Star", all[models.Key(state)].(*models.State).Name)

	_, err = storage.Get(ctx, engine, models.ClassState, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

const (
	workers = 8
	rounds  = 20
)

// createConcurrently runs workers goroutines, each creating rounds states
// through create, and returns the ids of the successful creates.
func createConcurrently(create func(state *models.State) error) []string {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created []string
	)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range rounds {
				state := models.NewState("Concurrent")
				if err := create(state); err != nil {
					continue
				}

				mu.Lock()
				created = append(created, state.ID)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return created
}

func assertStatesStored(t *testing.T, engine storage.Engine, ids []string) {
	t.Helper()

	all, err := engine.All(context.Background(), models.ClassState)
	require.NoError(t, err)
	assert.Len(t, all, len(ids))
	for _, id := range ids {
		assert.Contains(t, all, models.KeyOf(models.ClassState, id))
	}
}

func testConcurrentSaves(t *testing.T, open Opener) {
	ctx := context.Background()
	engine := open()

	created := createConcurrently(func(state *models.State) error {
		return storage.SaveEntity(ctx, engine, state)
	})
	require.Len(t, created, workers*rounds)

	assertStatesStored(t, open(), created)
}

func testConcurrentUnitsWithTeardown(t *testing.T, open Opener) {
	ctx := context.Background()
	sessions := storage.NewSessions(open())

	created := createConcurrently(func(state *models.State) error {
		err := sessions.Run(ctx, func(ctx context.Context, engine storage.Engine) error {
			return storage.SaveEntity(ctx, engine, state)
		})
		// teardown of a concurrent request
		_ = sessions.Close(ctx)

		return err
	})
	require.Len(t, created, workers*rounds)

	assertStatesStored(t, open(), created)
}

var errInterleaved = errors.New("close ran inside a unit of work")

func testCloseWaitsForRunningUnit(t *testing.T, open Opener) {
	ctx := context.Background()
	sessions := storage.NewSessions(open())

	state := models.NewState("Colorado")
	staged := make(chan struct{})
	closed := make(chan error, 1)

	go func() {
		<-staged
		closed <- sessions.Close(ctx)
	}()

	err := sessions.Run(ctx, func(ctx context.Context, engine storage.Engine) error {
		engine.New(state)
		close(staged)

		select {
		case <-closed:
			return errInterleaved
		case <-time.After(50 * time.Millisecond):
		}

		return engine.Save(ctx)
	})
	require.NoError(t, err)
	require.NoError(t, <-closed)

	assertStatesStored(t, open(), []string{state.ID})
}

func testFailedUnitIsDiscarded(t *testing.T, open Opener) {
	ctx := context.Background()
	engine := open()
	sessions := storage.NewSessions(engine)

	boom := errors.New("boom")
	err := sessions.Run(ctx, func(_ context.Context, engine storage.Engine) error {
		engine.New(models.NewState("Unsaved"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	all, err := engine.All(ctx, models.ClassState)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, engine.Save(ctx))
	assertStatesStored(t, open(), nil)
}

func records(all map[string]models.Entity) map[string]map[string]any {
	return lo.MapValues(all, func(e models.Entity, _ string) map[string]any {
		return models.ToMap(e)
	})
}
