package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/exdb-api/internal/utils"
)

// RateLimit limits requests per authenticated user, or per client IP when the
// route runs before authentication (login).
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Second
	}

	return limiter.New(limiter.Config{
		Max:          max,
		Expiration:   window,
		KeyGenerator: rateLimitKey(identifier),
		LimitReached: func(c *fiber.Ctx) error {
			return utils.SendError(c, fiber.StatusTooManyRequests, "too many requests, try again later")
		},
	})
}

func rateLimitKey(identifier string) func(c *fiber.Ctx) string {
	return func(c *fiber.Ctx) string {
		if userID, ok := c.Locals("user_id").(uint); ok && userID != 0 {
			return fmt.Sprintf("%s:user:%d", identifier, userID)
		}
		return fmt.Sprintf("%s:ip:%s", identifier, c.IP())
	}
}
