package states

import (
	"time"

	"github.com/hbnb/hbnb/internal/models"
)

// POSTRequest represents the request payload for creating a state.
type POSTRequest struct {
	Name string `json:"name" validate:"required,min=1,max=128"`
}

// PATCHRequest represents the request payload for renaming a state.
type PATCHRequest struct {
	Name string `json:"name" validate:"required,min=1,max=128"`
}

// POSTCityRequest represents the request payload for adding a city to a state.
type POSTCityRequest struct {
	Name string `json:"name" validate:"required,min=1,max=128"`
}

type CityResponse struct {
	ID        string    `json:"id"`
	StateID   string    `json:"state_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type StateResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Cities    []CityResponse `json:"cities,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func newCityResponse(city *models.City) CityResponse {
	return CityResponse{
		ID:        city.ID,
		StateID:   city.StateID,
		Name:      city.Name,
		CreatedAt: city.CreatedAt,
		UpdatedAt: city.UpdatedAt,
	}
}

func newStateResponse(state *models.State, cities []*models.City) StateResponse {
	response := StateResponse{
		ID:        state.ID,
		Name:      state.Name,
		Cities:    nil,
		CreatedAt: state.CreatedAt,
		UpdatedAt: state.UpdatedAt,
	}

	for _, city := range cities {
		response.Cities = append(response.Cities, newCityResponse(city))
	}

	return response
}
