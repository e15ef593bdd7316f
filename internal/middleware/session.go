package middleware

import (
	"kh-travel-backend/internal/application/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const userLocal = "user"

// SessionConfig controls the session cookie the API clears on logout.
type SessionConfig struct {
	AllowCrossSiteDev bool
	IsProduction      bool
	CookieDomain      string
}

// Session resolves the caller through provider and stores it under Locals("user").
// Provider failures are logged and the request continues anonymously.
func Session(provider auth.Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(userLocal, (*auth.SessionUser)(nil))
		if provider == nil {
			return c.Next()
		}
		user, err := provider.Session(c.UserContext(), auth.SessionRequest{
			Cookie:        c.Cookies(auth.SessionCookieName),
			Authorization: c.Get(fiber.HeaderAuthorization),
		})
		if err != nil {
			log.Warn().Err(err).Str("trace_id", GetTraceID(c)).Msg("session lookup failed")
		}
		if user != nil {
			c.Locals(userLocal, user)
		}
		return c.Next()
	}
}

// SessionCookie returns the cookie attributes the front-end sets on kh.sid.
func SessionCookie(cfg SessionConfig) fiber.Cookie {
	sameSite := fiber.CookieSameSiteLaxMode
	if cfg.AllowCrossSiteDev {
		sameSite = fiber.CookieSameSiteNoneMode
	}
	return fiber.Cookie{
		Name:     auth.SessionCookieName,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		HTTPOnly: true,
		Secure:   cfg.IsProduction || cfg.AllowCrossSiteDev,
		SameSite: sameSite,
	}
}
