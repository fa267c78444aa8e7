package handlers

import (
	"github.com/crossposthq/crosspost/internal/service"
	"github.com/crossposthq/crosspost/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type ProviderConfigHandler struct {
	s service.ProviderConfigService
}

func NewProviderConfigHandler(service service.ProviderConfigService) *ProviderConfigHandler {
	return &ProviderConfigHandler{s: service}
}

func (h *ProviderConfigHandler) SaveConfig(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var pcc transfer.ProviderConfigCreation
	if err := c.BodyParser(&pcc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unable to parse request body",
		})
	}

	pcfg, err := h.s.Save(c.Context(), userID, &pcc)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(pcfg)
}

func (h *ProviderConfigHandler) ListConfigs(c *fiber.Ctx) error {
	userID := GetUserID(c)

	configs, err := h.s.List(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(configs)
}

func (h *ProviderConfigHandler) ListVariants(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"variants": h.s.Variants(c.Context()),
	})
}

func (h *ProviderConfigHandler) TestConfig(c *fiber.Ctx) error {
	userID := GetUserID(c)

	ok, err := h.s.Test(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"connected": ok,
	})
}

func (h *ProviderConfigHandler) RemoveConfig(c *fiber.Ctx) error {
	userID := GetUserID(c)
	configID, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.s.Remove(c.Context(), userID, configID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}
