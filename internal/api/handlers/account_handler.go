package handlers

import (
	"github.com/crossposthq/crosspost/internal/service"
	"github.com/crossposthq/crosspost/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type AccountHandler struct {
	s service.AccountService
}

func NewAccountHandler(service service.AccountService) *AccountHandler {
	return &AccountHandler{s: service}
}

func (h *AccountHandler) RegisterAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var ar transfer.AccountRegistration
	if err := c.BodyParser(&ar); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unable to parse request body",
		})
	}

	account, err := h.s.Register(c.Context(), userID, &ar)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(account)
}

func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	accounts, err := h.s.List(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(accounts)
}

func (h *AccountHandler) GetAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	account, err := h.s.Get(c.Context(), userID, accountID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(account)
}

func (h *AccountHandler) SetPrimaryAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.s.SetPrimary(c.Context(), userID, accountID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

// SyncAccounts imports the profiles connected at the provider as local
// accounts.
func (h *AccountHandler) SyncAccounts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	accounts, err := h.s.SyncProfiles(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(accounts)
}

func (h *AccountHandler) TestConnection(c *fiber.Ctx) error {
	userID := GetUserID(c)

	ok := h.s.TestConnection(c.Context(), userID)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"connected": ok,
	})
}

func (h *AccountHandler) RemoveAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.s.Remove(c.Context(), userID, accountID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}
