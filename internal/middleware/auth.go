package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mroshb/matchday/internal/security"
	"github.com/mroshb/matchday/pkg/errors"
)

const userIDKey = "user_id"

// RequireAuth validates the bearer token and stores its user id on the context.
func RequireAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return errors.New(errors.ErrCodeUnauthorized, "missing bearer token")
		}

		claims, err := security.ValidateJWT(strings.TrimSpace(token), secret)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeUnauthorized, "invalid token")
		}

		c.Locals(userIDKey, claims.UserID)
		return c.Next()
	}
}

// UserID returns the authenticated user id, or zero on public routes.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(userIDKey).(uint)
	return id
}
