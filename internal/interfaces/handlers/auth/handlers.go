package auth

import (
	"time"

	authsvc "kh-travel-backend/internal/application/auth"
	"kh-travel-backend/internal/middleware"
	"kh-travel-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for auth endpoints. Login lives in the OAuth
// front-end; the API only reads and destroys the sessions it writes.
type Handlers struct {
	Sessions *authsvc.RedisSessionProvider
	Config   middleware.SessionConfig
}

// Me GET /api/v1/auth/me: current session user or 401.
func (h *Handlers) Me(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		log.Debug().Str("trace_id", middleware.GetTraceID(c)).
			Bool("cookie_present", c.Cookies(authsvc.SessionCookieName) != "").
			Msg("auth/me: not authenticated")
		return response.Unauthorized(c, "Not authenticated")
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": user}, nil)
}

// Logout DELETE /api/v1/auth/logout: drops the Redis session and clear the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	cookie := c.Cookies(authsvc.SessionCookieName)
	if h.Sessions != nil && cookie != "" {
		if err := h.Sessions.Destroy(c.UserContext(), cookie, middleware.GetUser(c)); err != nil {
			return response.FromError(c, "auth.logout", err)
		}
	}

	expired := middleware.SessionCookie(h.Config)
	expired.Expires = time.Now().Add(-24 * time.Hour)
	c.Cookie(&expired)
	return response.Success(c, "Logged out successfully", nil, nil)
}
