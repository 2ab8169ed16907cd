package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/custodialabs/payment-service/internal/domain"
)

// writeError maps the domain error taxonomy onto HTTP statuses. Internal
// dependency faults never leak details to the caller.
func writeError(c *fiber.Ctx, err error) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: verr.Error()})
	}

	switch {
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInsufficientBalance):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "internal error"})
}
