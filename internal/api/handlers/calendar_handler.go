package handlers

import (
	"time"

	"github.com/crossposthq/crosspost/internal/service"
	"github.com/gofiber/fiber/v2"
)

type CalendarHandler struct {
	s service.CalendarService
}

func NewCalendarHandler(service service.CalendarService) *CalendarHandler {
	return &CalendarHandler{s: service}
}

// GetCalendar returns the user's posts between start and end grouped by day.
// Dates accept RFC 3339 or plain YYYY-MM-DD; a bare end date covers the whole
// day.
func (h *CalendarHandler) GetCalendar(c *fiber.Ctx) error {
	userID := GetUserID(c)

	start, err := parseCalendarDate(c.Query("start"), false)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid start date"})
	}
	end, err := parseCalendarDate(c.Query("end"), true)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid end date"})
	}

	days, err := h.s.Range(c.Context(), userID, start, end)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"days": days,
	})
}

func parseCalendarDate(value string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
