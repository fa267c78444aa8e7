package handlers

import (
	"log/slog"

	"github.com/crossposthq/crosspost/internal/service"
	"github.com/gofiber/fiber/v2"
)

type MediaHandler struct {
	s service.MediaService
}

func NewMediaHandler(service service.MediaService) *MediaHandler {
	return &MediaHandler{s: service}
}

func (h *MediaHandler) UploadMedia(c *fiber.Ctx) error {
	userID := GetUserID(c)

	form, err := c.MultipartForm()
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unable to parse form",
		})
	}

	files := form.File["files"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "no files selected",
		})
	}

	assets, err := h.s.Upload(c.Context(), userID, files)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(assets)
}

func (h *MediaHandler) ListMedia(c *fiber.Ctx) error {
	userID := GetUserID(c)

	assets, err := h.s.List(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(assets)
}
