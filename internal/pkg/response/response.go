package response

import (
	"errors"
	"fmt"

	"kh-travel-backend/internal/pkg/apperrors"

	"github.com/gofiber/fiber/v2"
)

// SuccessBody is the standardized success JSON shape.
type SuccessBody struct {
	Success  bool        `json:"success"`
	Message  string      `json:"message,omitempty"`
	Data     interface{} `json:"data"`
	Metadata interface{} `json:"metadata,omitempty"`
}

// ErrorBody is the standardized error JSON shape.
type ErrorBody struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Success sends a 200 OK response with the standard success format.
func Success(c *fiber.Ctx, message string, data interface{}, metadata interface{}) error {
	return c.Status(fiber.StatusOK).JSON(SuccessBody{
		Success:  true,
		Message:  message,
		Data:     data,
		Metadata: metadata,
	})
}

// SuccessCreated sends a 201 Created response with the standard success format.
func SuccessCreated(c *fiber.Ctx, message string, data interface{}, metadata interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(SuccessBody{
		Success:  true,
		Message:  message,
		Data:     data,
		Metadata: metadata,
	})
}

// Error sends a response with the standard error format.
func Error(c *fiber.Ctx, statusCode int, code, message string, details interface{}) error {
	return c.Status(statusCode).JSON(ErrorBody{
		Success: false,
		Error:   code,
		Message: message,
		Details: details,
	})
}

// Unauthorized sends 401 with the same shape as other errors.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, apperrors.CodeUnauthorized, message, nil)
}

// Validation sends 400 with field details.
func Validation(c *fiber.Ctx, message string, fields map[string]string) error {
	var details interface{}
	if len(fields) > 0 {
		details = fields
	}
	return Error(c, fiber.StatusBadRequest, apperrors.CodeValidation, message, details)
}

// FromError maps a service error onto the envelope. Anything outside the
// taxonomy is wrapped with op and returned to fiber's ErrorHandler, which
// logs it, records it in the health error log and renders an opaque INTERNAL.
func FromError(c *fiber.Ctx, op string, err error) error {
	var verr *apperrors.ValidationError
	switch {
	case errors.As(err, &verr):
		return Validation(c, "Invalid request", verr.Fields)
	case errors.Is(err, apperrors.ErrValidation):
		return Validation(c, err.Error(), nil)
	case errors.Is(err, apperrors.ErrNotFound):
		return Error(c, fiber.StatusNotFound, apperrors.CodeNotFound, err.Error(), nil)
	case errors.Is(err, apperrors.ErrUnauthorized):
		return Unauthorized(c, "Unauthorized")
	case errors.Is(err, apperrors.ErrAdminRequired):
		return Error(c, fiber.StatusForbidden, apperrors.CodeAdminRequired, "Admin role required", nil)
	case errors.Is(err, apperrors.ErrForbidden):
		return Error(c, fiber.StatusForbidden, apperrors.CodeForbidden, "Forbidden", nil)
	case errors.Is(err, apperrors.ErrRateLimited):
		return Error(c, fiber.StatusTooManyRequests, apperrors.CodeRateLimited, "Too many requests", nil)
	}
	return fmt.Errorf("%s: %w", op, err)
}
