package handlers

import (
	"github.com/crossposthq/crosspost/internal/service"
	"github.com/crossposthq/crosspost/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type CampaignHandler struct {
	s service.CampaignService
}

func NewCampaignHandler(service service.CampaignService) *CampaignHandler {
	return &CampaignHandler{s: service}
}

func (h *CampaignHandler) CreateCampaign(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var cc transfer.CampaignCreation
	if err := c.BodyParser(&cc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unable to parse request body",
		})
	}

	campaign, err := h.s.Create(c.Context(), userID, &cc)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(campaign)
}

func (h *CampaignHandler) ListCampaigns(c *fiber.Ctx) error {
	userID := GetUserID(c)

	campaigns, err := h.s.List(c.Context(), userID,
		c.Query("status"), c.Query("campaign_type"),
		c.QueryInt("limit", 0), c.QueryInt("offset", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(campaigns)
}

func (h *CampaignHandler) GetCampaign(c *fiber.Ctx) error {
	userID := GetUserID(c)
	campaignID, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	campaign, err := h.s.Get(c.Context(), userID, campaignID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(campaign)
}

func (h *CampaignHandler) UpdateCampaign(c *fiber.Ctx) error {
	userID := GetUserID(c)
	campaignID, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var cu transfer.CampaignUpdate
	if err := c.BodyParser(&cu); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unable to parse request body",
		})
	}

	campaign, err := h.s.Update(c.Context(), userID, campaignID, &cu)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(campaign)
}

func (h *CampaignHandler) ListCampaignPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)
	campaignID, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	posts, err := h.s.Posts(c.Context(), userID, campaignID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *CampaignHandler) RemoveCampaign(c *fiber.Ctx) error {
	userID := GetUserID(c)
	campaignID, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.s.Remove(c.Context(), userID, campaignID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}
