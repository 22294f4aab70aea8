package states

import "github.com/hbnb/hbnb/internal/models"

// StateWithCities is a state together with its resolved cities.
type StateWithCities struct {
	State  *models.State
	Cities []*models.City
}
