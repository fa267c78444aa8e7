package handlers

import (
	"time"

	"github.com/crossposthq/crosspost/internal/service"
	"github.com/crossposthq/crosspost/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type PostHandler struct {
	s service.PostService
}

func NewPostHandler(service service.PostService) *PostHandler {
	return &PostHandler{s: service}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var pc transfer.PostCreation
	if err := c.BodyParser(&pc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unable to parse request body",
		})
	}

	post, err := h.s.Create(c.Context(), userID, &pc)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	filter := transfer.PostFilter{
		Status:     c.Query("status"),
		PostType:   c.Query("post_type"),
		CampaignID: int64(c.QueryInt("campaign_id", 0)),
		Limit:      c.QueryInt("limit", 0),
		Offset:     c.QueryInt("offset", 0),
	}
	if start, err := time.Parse(time.RFC3339, c.Query("start")); err == nil {
		filter.Start = start
	}
	if end, err := time.Parse(time.RFC3339, c.Query("end")); err == nil {
		filter.End = end
	}

	posts, err := h.s.List(c.Context(), userID, filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	post, err := h.s.Get(c.Context(), userID, postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) GetPostTargets(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	targets, err := h.s.Targets(c.Context(), userID, postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(targets)
}

func (h *PostHandler) UpdatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var pu transfer.PostUpdate
	if err := c.BodyParser(&pu); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unable to parse request body",
		})
	}

	post, err := h.s.Update(c.Context(), userID, postID, &pu)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.s.Remove(c.Context(), userID, postID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *PostHandler) SchedulePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	result, err := h.s.Schedule(c.Context(), userID, postID)
	if err != nil {
		if result != nil {
			// Partial bookkeeping happened; return it with the error.
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error":  err.Error(),
				"result": result,
			})
		}
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *PostHandler) PublishPostNow(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	result, err := h.s.PublishNow(c.Context(), userID, postID)
	if err != nil {
		if result != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error":  err.Error(),
				"result": result,
			})
		}
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *PostHandler) CancelPost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	post, err := h.s.Cancel(c.Context(), userID, postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) ReschedulePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var body struct {
		ScheduledTime time.Time `json:"scheduled_time"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unable to parse request body",
		})
	}

	result, err := h.s.Reschedule(c.Context(), userID, postID, body.ScheduledTime)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *PostHandler) BulkSchedule(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var body struct {
		Posts []*transfer.PostCreation `json:"posts"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unable to parse request body",
		})
	}
	if len(body.Posts) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "posts list is empty",
		})
	}

	outcomes, err := h.s.BulkSchedule(c.Context(), userID, body.Posts)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"outcomes": outcomes,
	})
}
