package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"go-stock-ledger/internal/model"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidArgument):
		return fiber.StatusBadRequest
	case errors.Is(err, model.ErrItemNotFound), errors.Is(err, model.ErrCatalogNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, model.ErrInsufficientStock), errors.Is(err, model.ErrConcurrencyConflict):
		return fiber.StatusConflict
	case errors.Is(err, model.ErrExceptionNotApproved):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, model.ErrCatalogUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func errorJSON(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		return c.Status(status).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
