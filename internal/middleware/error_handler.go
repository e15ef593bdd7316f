package middleware

import (
	"context"
	"errors"
	"time"

	"kh-travel-backend/internal/application/health"
	"kh-travel-backend/internal/pkg/apperrors"
	"kh-travel-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrorHandler returns the global fiber error handler. Taxonomy errors map
// onto their status; anything else is a 500 that is logged and, when rdb is
// set, pushed onto the health error log.
func ErrorHandler(rdb *redis.Client) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if !errors.As(err, &fe) {
			if isTaxonomy(err) {
				return response.FromError(c, "request", err)
			}
			fe = fiber.ErrInternalServerError
		}

		code := codeForStatus(fe.Code)
		message := fe.Message
		if fe.Code >= fiber.StatusInternalServerError {
			message = "Internal Server Error"
			traceID := GetTraceID(c)
			log.Error().Err(err).Str("trace_id", traceID).Str("method", c.Method()).Str("path", c.Path()).Msg("unhandled error")
			if rdb != nil {
				entry := map[string]interface{}{
					"time":     time.Now().UTC(),
					"trace_id": traceID,
					"method":   c.Method(),
					"path":     c.OriginalURL(),
					"status":   fe.Code,
					"message":  err.Error(),
				}
				if lerr := health.LogError(context.Background(), rdb, entry); lerr != nil {
					log.Warn().Err(lerr).Msg("could not record error in health log")
				}
			}
		}
		return response.Error(c, fe.Code, code, message, nil)
	}
}

func isTaxonomy(err error) bool {
	for _, target := range []error{
		apperrors.ErrValidation, apperrors.ErrUnauthorized, apperrors.ErrForbidden,
		apperrors.ErrAdminRequired, apperrors.ErrNotFound, apperrors.ErrRateLimited,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity, fiber.StatusRequestEntityTooLarge:
		return apperrors.CodeValidation
	case fiber.StatusUnauthorized:
		return apperrors.CodeUnauthorized
	case fiber.StatusForbidden:
		return apperrors.CodeForbidden
	case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
		return apperrors.CodeNotFound
	case fiber.StatusTooManyRequests:
		return apperrors.CodeRateLimited
	}
	return apperrors.CodeInternal
}
