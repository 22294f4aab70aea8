package states

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/hbnb/hbnb/internal/models"
	"github.com/hbnb/hbnb/internal/storage"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Service runs every call as one unit of work and returns detached copies,
// so results stay valid after the session closes.
type Service struct {
	sessions *storage.Sessions

	logger *zap.Logger
}

func NewService(sessions *storage.Sessions, logger *zap.Logger) *Service {
	return &Service{
		sessions: sessions,

		logger: logger,
	}
}

// List returns every state ordered by name.
func (s *Service) List(ctx context.Context) ([]*models.State, error) {
	s.logger.Debug("listing states")

	var states []*models.State
	err := s.sessions.Run(ctx, func(ctx context.Context, engine storage.Engine) error {
		all, err := engine.All(ctx, models.ClassState)
		if err != nil {
			return err
		}

		states = lo.FilterMap(lo.Values(all), func(e models.Entity, _ int) (*models.State, bool) {
			state, ok := e.(*models.State)
			if !ok {
				return nil, false
			}
			return models.Clone(state), true
		})
		return nil
	})
	if err != nil {
		s.logger.Error("failed to list states", zap.Error(err))
		return nil, fmt.Errorf("failed to list states: %w", err)
	}

	slices.SortFunc(states, func(a, b *models.State) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})

	return states, nil
}

// Get returns a state and its cities ordered by name.
func (s *Service) Get(ctx context.Context, id string) (*StateWithCities, error) {
	s.logger.Debug("getting state", zap.String("id", id))

	var result *StateWithCities
	err := s.sessions.Run(ctx, func(ctx context.Context, engine storage.Engine) error {
		state, err := s.get(ctx, engine, id)
		if err != nil {
			return err
		}

		cities, err := s.cities(ctx, engine, state)
		if err != nil {
			return err
		}

		result = &StateWithCities{State: models.Clone(state), Cities: cities}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Cities returns the cities of a state ordered by name.
func (s *Service) Cities(ctx context.Context, id string) ([]*models.City, error) {
	var cities []*models.City
	err := s.sessions.Run(ctx, func(ctx context.Context, engine storage.Engine) error {
		state, err := s.get(ctx, engine, id)
		if err != nil {
			return err
		}

		cities, err = s.cities(ctx, engine, state)
		return err
	})
	if err != nil {
		return nil, err
	}

	return cities, nil
}

// Create stores a new state.
func (s *Service) Create(ctx context.Context, name string) (*models.State, error) {
	s.logger.Info("creating state", zap.String("name", name))

	var created *models.State
	err := s.sessions.Run(ctx, func(ctx context.Context, engine storage.Engine) error {
		state := models.NewState(name)
		if err := storage.SaveEntity(ctx, engine, state); err != nil {
			return err
		}

		created = models.Clone(state)
		return nil
	})
	if err != nil {
		s.logger.Error("failed to create state", zap.Error(err))
		return nil, err
	}

	s.logger.Info("state created", zap.String("id", created.ID))
	return created, nil
}

// Rename changes the name of a state.
func (s *Service) Rename(ctx context.Context, id, name string) (*models.State, error) {
	s.logger.Info("renaming state", zap.String("id", id), zap.String("name", name))

	var renamed *models.State
	err := s.sessions.Run(ctx, func(ctx context.Context, engine storage.Engine) error {
		state, err := s.get(ctx, engine, id)
		if err != nil {
			return err
		}

		state.Name = name
		if saveErr := storage.SaveEntity(ctx, engine, state); saveErr != nil {
			s.logger.Error("failed to rename state", zap.Error(saveErr))
			return saveErr
		}

		renamed = models.Clone(state)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return renamed, nil
}

// Delete removes a state and its cities.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.logger.Info("deleting state", zap.String("id", id))

	return s.sessions.Run(ctx, func(ctx context.Context, engine storage.Engine) error {
		state, err := s.get(ctx, engine, id)
		if err != nil {
			return err
		}

		if delErr := engine.Delete(ctx, state); delErr != nil {
			return fmt.Errorf("failed to delete state: %w", delErr)
		}

		if saveErr := engine.Save(ctx); saveErr != nil {
			s.logger.Error("failed to delete state", zap.Error(saveErr))
			return fmt.Errorf("failed to delete state: %w", saveErr)
		}

		return nil
	})
}

// AddCity stores a new city owned by the state.
func (s *Service) AddCity(ctx context.Context, stateID, name string) (*models.City, error) {
	s.logger.Info("adding city", zap.String("state_id", stateID), zap.String("name", name))

	var added *models.City
	err := s.sessions.Run(ctx, func(ctx context.Context, engine storage.Engine) error {
		state, err := s.get(ctx, engine, stateID)
		if err != nil {
			return err
		}

		city := models.NewCity(state.ID, name)
		if saveErr := storage.SaveEntity(ctx, engine, city); saveErr != nil {
			s.logger.Error("failed to add city", zap.Error(saveErr))
			return saveErr
		}

		added = models.Clone(city)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return added, nil
}

func (s *Service) get(ctx context.Context, engine storage.Engine, id string) (*models.State, error) {
	entity, err := storage.Get(ctx, engine, models.ClassState, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get state: %w", err)
	}

	state, ok := entity.(*models.State)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return state, nil
}

// cities returns copies of the cities of state ordered by name.
func (s *Service) cities(ctx context.Context, engine storage.Engine, state *models.State) ([]*models.City, error) {
	cities, err := storage.Cities(ctx, engine.Resolver(), state)
	if err != nil {
		s.logger.Error("failed to resolve cities", zap.String("state_id", state.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to resolve cities: %w", err)
	}

	cities = lo.Map(cities, func(c *models.City, _ int) *models.City { return models.Clone(c) })
	slices.SortFunc(cities, func(a, b *models.City) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})

	return cities, nil
}
