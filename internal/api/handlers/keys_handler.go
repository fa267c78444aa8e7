package handlers

import (
	"github.com/crossposthq/crosspost/internal/service"
	"github.com/gofiber/fiber/v2"
)

type ApiKeyHandler struct {
	s service.ApiKeyService
}

func NewApiKeyHandler(service service.ApiKeyService) *ApiKeyHandler {
	return &ApiKeyHandler{s: service}
}

func (h *ApiKeyHandler) CreateApiKey(c *fiber.Ctx) error {
	userID := GetUserID(c)

	key, err := h.s.Create(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	// The plaintext key is returned exactly once.
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"api_key": key,
	})
}

func (h *ApiKeyHandler) ListKeys(c *fiber.Ctx) error {
	userID := GetUserID(c)

	keys, err := h.s.List(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(keys)
}

func (h *ApiKeyHandler) RemoveAPIKey(c *fiber.Ctx) error {
	userID := GetUserID(c)
	keyID, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.s.RemoveAPIKey(c.Context(), userID, keyID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}
