package handlers

import (
	"procurement-portal/internal/middleware"
	"procurement-portal/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
)

// Actor returns the signed-in user. Routes using it sit behind RequireAuth.
func Actor(c *fiber.Ctx) middleware.Identity {
	id, _ := middleware.CurrentUser(c)
	return id
}

// IsAdmin reports whether the signed-in user is an admin.
func IsAdmin(c *fiber.Ctx) bool {
	return Actor(c).Role == constants.Admin
}
