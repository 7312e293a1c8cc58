package middleware

import (
	"procurement-portal/internal/constants"
	"procurement-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthorizePermission returns a handler that checks the session user's role against PermissionRoles.
// Unconfigured permission -> 500 "Permission configuration error"; role not allowed -> 403 "User is Forbidden from performing this action".
func AuthorizePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		if user.Role == "" {
			return response.Error(c, "Authorization error", 500, nil)
		}
		roles, ok := constants.PermissionRoles[permission]
		if !ok || len(roles) == 0 {
			return response.Error(c, "Permission configuration error", 500, nil)
		}
		if !constants.AllowedRole(permission, user.Role) {
			return response.Forbidden(c, "User is Forbidden from performing this action")
		}
		return c.Next()
	}
}
