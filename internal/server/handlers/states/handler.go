package states

import (
	"errors"
	"fmt"

	"github.com/go-core-fx/fiberfx/handler"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hbnb/hbnb/internal/server/validation"
	"github.com/hbnb/hbnb/internal/states"
	"go.uber.org/zap"
)

type Handler struct {
	statesSvc *states.Service

	validator *validator.Validate
	logger    *zap.Logger
}

func NewHandler(statesSvc *states.Service, validator *validator.Validate, logger *zap.Logger) handler.Handler {
	return &Handler{
		statesSvc: statesSvc,

		validator: validator,
		logger:    logger,
	}
}

// Register implements handler.Handler.
func (h *Handler) Register(r fiber.Router) {
	r = r.Group("/states")

	r.Use(h.errorsHandler)
	r.Get("/", h.list)
	r.Post("/", validation.DecorateWithBodyEx(h.validator, h.post))
	r.Get("/:id", h.get)
	r.Patch("/:id", validation.DecorateWithBodyEx(h.validator, h.patch))
	r.Delete("/:id", h.delete)
	r.Get("/:id/cities", h.listCities)
	r.Post("/:id/cities", validation.DecorateWithBodyEx(h.validator, h.postCity))
}

// List all states.
func (h *Handler) list(c *fiber.Ctx) error {
	items, err := h.statesSvc.List(c.Context())
	if err != nil {
		return fmt.Errorf("failed to list states: %w", err)
	}

	responses := make([]StateResponse, len(items))
	for i, state := range items {
		responses[i] = newStateResponse(state, nil)
	}

	return c.JSON(responses)
}

// Create a new state.
func (h *Handler) post(c *fiber.Ctx, req *POSTRequest) error {
	state, err := h.statesSvc.Create(c.Context(), req.Name)
	if err != nil {
		return fmt.Errorf("failed to create state: %w", err)
	}

	return c.Status(fiber.StatusCreated).JSON(newStateResponse(state, nil))
}

// Get a state with its cities.
func (h *Handler) get(c *fiber.Ctx) error {
	found, err := h.statesSvc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return fmt.Errorf("failed to get state: %w", err)
	}

	return c.JSON(newStateResponse(found.State, found.Cities))
}

// Rename a state.
func (h *Handler) patch(c *fiber.Ctx, req *PATCHRequest) error {
	state, err := h.statesSvc.Rename(c.Context(), c.Params("id"), req.Name)
	if err != nil {
		return fmt.Errorf("failed to update state: %w", err)
	}

	return c.JSON(newStateResponse(state, nil))
}

// Delete a state and its cities.
func (h *Handler) delete(c *fiber.Ctx) error {
	if err := h.statesSvc.Delete(c.Context(), c.Params("id")); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// List the cities of a state.
func (h *Handler) listCities(c *fiber.Ctx) error {
	cities, err := h.statesSvc.Cities(c.Context(), c.Params("id"))
	if err != nil {
		return fmt.Errorf("failed to list cities: %w", err)
	}

	responses := make([]CityResponse, len(cities))
	for i, city := range cities {
		responses[i] = newCityResponse(city)
	}

	return c.JSON(responses)
}

// Add a city to a state.
func (h *Handler) postCity(c *fiber.Ctx, req *POSTCityRequest) error {
	city, err := h.statesSvc.AddCity(c.Context(), c.Params("id"), req.Name)
	if err != nil {
		return fmt.Errorf("failed to add city: %w", err)
	}

	return c.Status(fiber.StatusCreated).JSON(newCityResponse(city))
}

func (h *Handler) errorsHandler(c *fiber.Ctx) error {
	err := c.Next()
	if err == nil {
		return nil
	}

	if errors.Is(err, states.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	return err //nolint:wrapcheck //already wrapped
}
