package middleware

import (
	"strconv"

	"kh-travel-backend/internal/application/ratelimit"
	"kh-travel-backend/internal/pkg/apperrors"
	"kh-travel-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// KeyFunc picks the identifier a request is counted under.
type KeyFunc func(c *fiber.Ctx) string

// ByIP counts anonymous traffic per client address.
func ByIP(c *fiber.Ctx) string {
	return "ip:" + c.IP()
}

// ByUserOrIP counts per signed-in user, falling back to the client address.
func ByUserOrIP(c *fiber.Ctx) string {
	if u := GetUser(c); u != nil {
		return "user:" + u.UserID.String()
	}
	return ByIP(c)
}

// RateLimit rejects requests over the limiter's budget with 429 RATE_LIMITED.
// Limiter errors are logged and the request is let through.
func RateLimit(limiter ratelimit.Limiter, key KeyFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if limiter == nil {
			return c.Next()
		}
		res, err := limiter.Limit(c.UserContext(), key(c))
		if err != nil {
			log.Warn().Err(err).Str("trace_id", GetTraceID(c)).Str("path", c.Path()).Msg("rate limiter unavailable, allowing request")
			return c.Next()
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset.Unix(), 10))
		if !res.Success {
			return response.Error(c, fiber.StatusTooManyRequests, apperrors.CodeRateLimited, "Too many requests, try again later", nil)
		}
		return c.Next()
	}
}
