// middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

type sessionClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// ReviewerContextMiddleware verifies the session token issued by the auth
// service and attaches the caller's identity to the request. Approval calls
// read user_id from here to populate reviewed_by.
func ReviewerContextMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get("Authorization")
		if auth == "" || !strings.HasPrefix(strings.ToLower(auth), "bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
		}
		tokenStr := strings.TrimSpace(auth[7:])

		var claims sessionClaims
		token, err := jwt.ParseWithClaims(
			tokenStr,
			&claims,
			func(t *jwt.Token) (any, error) {
				if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, fiber.NewError(fiber.StatusUnauthorized, "unsupported alg")
				}
				return []byte(secret), nil
			},
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		)
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}
		if claims.Subject == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing subject"})
		}

		c.Locals("user_id", claims.Subject)
		c.Locals("user_role", claims.Role)
		return c.Next()
	}
}

// RequireAdmin guards the review queues and approval endpoints.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		if role != "admin" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin role required"})
		}
		return c.Next()
	}
}
