package middleware

import (
	"fmt"
	"log/slog"

	config "github.com/crossposthq/crosspost/configs"
	"github.com/crossposthq/crosspost/internal/service"
	"github.com/crossposthq/crosspost/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type AuthMiddleware struct {
	s   service.ApiKeyService
	cfg *config.Config
}

func NewAuthMiddleware(cfg *config.Config, service service.ApiKeyService) *AuthMiddleware {
	return &AuthMiddleware{s: service, cfg: cfg}
}

func (m *AuthMiddleware) AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Cookies(m.cfg.CookieName)
		apiKey := c.Query("api_key")
		if apiKey == "" {
			apiKey = c.Get("X-API-Key")
		}

		if tokenString == "" && apiKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing session cookie or API key",
			})
		}

		if apiKey != "" {
			userID, err := m.s.GetUserID(c.Context(), apiKey)
			if err != nil {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "invalid API key",
				})
			}
			c.Locals("user_id", fmt.Sprintf("%d", userID))
			return c.Next()
		}

		claims, err := utils.ValidateToken(m.cfg.SecretKey, tokenString)
		if err != nil {
			c.Cookie(&fiber.Cookie{
				Name:   m.cfg.CookieName,
				Value:  "",
				Path:   "/",
				MaxAge: -1,
			})

			slog.Info(err.Error())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired token",
			})
		}

		c.Locals("user_id", claims.UserID)
		return c.Next()
	}
}
