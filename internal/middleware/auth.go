package middleware

import (
	"kh-travel-backend/internal/application/auth"
	"kh-travel-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// RequireAuth ensures a user is in the session. Returns 401 with standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetUser(c) == nil {
			return response.Unauthorized(c, "Authentication required")
		}
		return c.Next()
	}
}

// GetUser returns the session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) *auth.SessionUser {
	u, _ := c.Locals(userLocal).(*auth.SessionUser)
	return u
}
