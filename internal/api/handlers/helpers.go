package handlers

import (
	"errors"
	"strconv"

	"github.com/crossposthq/crosspost/internal/lock"
	"github.com/crossposthq/crosspost/internal/provider"
	"github.com/crossposthq/crosspost/internal/service"
	"github.com/gofiber/fiber/v2"
)

func GetUserID(c *fiber.Ctx) int64 {
	userID, _ := strconv.Atoi(c.Locals("user_id").(string))
	return int64(userID)
}

// respondError maps domain and provider errors onto transport status codes.
// Provider error kinds keep their canonical meaning at the edge.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	var cfgErr *provider.ConfigurationError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrPostImmutable),
		errors.Is(err, lock.ErrLeaseHeld):
		status = fiber.StatusConflict
	case errors.Is(err, service.ErrPastScheduleTime),
		errors.Is(err, service.ErrNoTargets),
		errors.Is(err, service.ErrInvalidInput):
		status = fiber.StatusBadRequest
	case errors.As(err, &cfgErr):
		status = fiber.StatusBadRequest
	default:
		if pe, ok := provider.AsError(err); ok {
			switch pe.Kind {
			case provider.KindValidation:
				status = fiber.StatusBadRequest
			case provider.KindNotFound:
				status = fiber.StatusNotFound
			case provider.KindAuthentication:
				status = fiber.StatusUnauthorized
			case provider.KindRateLimit:
				status = fiber.StatusTooManyRequests
			default:
				status = fiber.StatusBadGateway
			}
		}
	}

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return int64(id), nil
}
