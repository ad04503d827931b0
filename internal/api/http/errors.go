package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// ErrorHandler is the centralized fiber error handler. Domain errors are
// mapped onto status codes; everything else is a 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
		message = fe.Message
	case errors.Is(err, weather.ErrLookupFailure), errors.Is(err, weather.ErrForecastFailure):
		code = fiber.StatusBadGateway
	case errors.Is(err, weather.ErrPersistenceWrite):
		code = fiber.StatusServiceUnavailable
	case errors.Is(err, store.ErrNotFound):
		code = fiber.StatusNotFound
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
