package middleware

import (
	"kh-travel-backend/internal/pkg/apperrors"
	"kh-travel-backend/internal/pkg/constants"
	"kh-travel-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// AuthorizePermission checks the session user's role against constants.PermissionRoles.
// Admin-only permissions answer ADMIN_REQUIRED, everything else FORBIDDEN.
func AuthorizePermission(permission string) fiber.Handler {
	roles, ok := constants.PermissionRoles[permission]
	if !ok || len(roles) == 0 {
		log.Error().Str("permission", permission).Msg("permission has no roles configured")
	}
	adminOnly := constants.AdminOnly(permission)

	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil {
			return response.Unauthorized(c, "Authentication required")
		}
		if constants.AllowedRole(permission, user.Role) {
			return c.Next()
		}
		if adminOnly {
			return response.Error(c, fiber.StatusForbidden, apperrors.CodeAdminRequired, "Admin role required", nil)
		}
		return response.Error(c, fiber.StatusForbidden, apperrors.CodeForbidden, "User is forbidden from performing this action", nil)
	}
}
