package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/mroshb/matchday/pkg/errors"
	"github.com/mroshb/matchday/pkg/logger"
)

// RateLimit rejects callers over their per-IP budget and, once authenticated,
// their per-user budget.
func RateLimit(rl *RateLimiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()
		if !rl.CheckIPLimit(ip) {
			logger.Warn("IP rate limit exceeded", "ip", ip, "path", c.Path())
			return errors.New(errors.ErrCodeRateLimitExceeded, "too many requests")
		}

		if userID := UserID(c); userID != 0 {
			if !rl.CheckUserLimit(userID) {
				logger.Warn("User rate limit exceeded", "user_id", userID, "path", c.Path())
				return errors.New(errors.ErrCodeRateLimitExceeded, "too many requests")
			}
			c.Set("X-RateLimit-Remaining", strconv.Itoa(rl.GetUserRemaining(userID)))
		}

		return c.Next()
	}
}
