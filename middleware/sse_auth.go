// middleware/sse_auth.go
package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SSEAuthMiddleware validates the `token` query param. EventSource clients
// cannot set headers, so the event stream authenticates this way.
//
// Usage:
//
//	app.Get("/events/stream", middleware.SSEAuthMiddleware(token), handler)
func SSEAuthMiddleware(expectedToken string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := strings.TrimSpace(c.Query("token"))
		if accessToken == "" {
			log.Printf("[SSEAuth] ❌ Missing token query param for %s", c.Path())
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Missing token in query",
			})
		}
		if !tokenEqual(accessToken, expectedToken) {
			log.Printf("[SSEAuth] ❌ Invalid token (len=%d) from %s", len(accessToken), c.IP())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		return c.Next()
	}
}
