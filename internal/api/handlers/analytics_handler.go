package handlers

import (
	"time"

	"github.com/crossposthq/crosspost/internal/service"
	"github.com/crossposthq/crosspost/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type AnalyticsHandler struct {
	s service.AnalyticsService
}

func NewAnalyticsHandler(service service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{s: service}
}

func analyticsFilter(c *fiber.Ctx) transfer.AnalyticsFilter {
	filter := transfer.AnalyticsFilter{
		Limit:  c.QueryInt("limit", 0),
		Offset: c.QueryInt("offset", 0),
	}
	if start, err := time.Parse(time.RFC3339, c.Query("start")); err == nil {
		filter.Start = start
	}
	if end, err := time.Parse(time.RFC3339, c.Query("end")); err == nil {
		filter.End = end
	}
	return filter
}

func (h *AnalyticsHandler) SyncPost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	outcome, err := h.s.SyncPost(c.Context(), userID, postID)
	if err != nil {
		if outcome != nil {
			return c.Status(fiber.StatusBadGateway).JSON(outcome)
		}
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(outcome)
}

func (h *AnalyticsHandler) SyncRecent(c *fiber.Ctx) error {
	userID := GetUserID(c)
	days := c.QueryInt("days", 7)

	report, err := h.s.SyncRecent(c.Context(), userID, time.Duration(days)*24*time.Hour)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(report)
}

func (h *AnalyticsHandler) ListPostAnalytics(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	records, err := h.s.ListByPost(c.Context(), userID, postID, analyticsFilter(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(records)
}

func (h *AnalyticsHandler) ListAnalytics(c *fiber.Ctx) error {
	userID := GetUserID(c)

	records, err := h.s.ListByUser(c.Context(), userID, analyticsFilter(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(records)
}

func (h *AnalyticsHandler) PostSummary(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	summary, err := h.s.SummaryForPost(c.Context(), userID, postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(summary)
}

func (h *AnalyticsHandler) AccountSummary(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	summary, err := h.s.SummaryForAccount(c.Context(), userID, accountID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(summary)
}

func (h *AnalyticsHandler) CampaignSummary(c *fiber.Ctx) error {
	userID := GetUserID(c)
	campaignID, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	summary, err := h.s.SummaryForCampaign(c.Context(), userID, campaignID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(summary)
}

func (h *AnalyticsHandler) UserSummary(c *fiber.Ctx) error {
	userID := GetUserID(c)

	summary, err := h.s.SummaryForUser(c.Context(), userID, analyticsFilter(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(summary)
}
