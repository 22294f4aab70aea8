package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hbnb/hbnb/internal/storage"
	"go.uber.org/zap"
)

// NewTeardown closes the storage session once the request is handled. It waits
// for a running unit of work; the engine itself is reused by the next request.
func NewTeardown(sessions *storage.Sessions, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if closeErr := sessions.Close(c.Context()); closeErr != nil {
			logger.Error("failed to close storage session", zap.Error(closeErr))
		}

		return err
	}
}
