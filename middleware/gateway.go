// middleware/gateway.go
package middleware

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// EventsServiceAuthMiddleware validates the Bearer token used by the events
// service when it mirrors competitions into this service.
func EventsServiceAuthMiddleware() fiber.Handler {
	expectedToken := os.Getenv("EVENTS_SERVICE_TOKEN")
	if expectedToken == "" {
		log.Fatal("❌ EVENTS_SERVICE_TOKEN is not set — service cannot authenticate the events service")
	}

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			log.Printf("🚫 [EVENTS_AUTH] Missing Authorization header for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "service authentication token missing",
			})
		}

		// Accepts both "Bearer <token>" and a raw token value.
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token != expectedToken {
			log.Printf("❌ [EVENTS_AUTH] Invalid token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid service authentication token",
			})
		}

		return c.Next()
	}
}
