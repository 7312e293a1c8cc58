package middleware

import (
	"procurement-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const userLocal = "user"

// Identity is the signed-in user as seen by handlers.
type Identity struct {
	ID    uuid.UUID
	Email string
	Role  string
}

// RequireAuth ensures a user is in the session. Returns 401 with standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentUser(c); !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// GetUser returns the session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}

// CurrentUser decodes the session user. ok is false when nobody is signed in
// or the session payload is malformed.
func CurrentUser(c *fiber.Ctx) (Identity, bool) {
	m, ok := GetUser(c).(map[string]interface{})
	if !ok {
		return Identity{}, false
	}
	rawID, _ := m["user_id"].(string)
	id, err := uuid.Parse(rawID)
	if err != nil {
		return Identity{}, false
	}
	role, _ := m["role"].(string)
	email, _ := m["email"].(string)
	return Identity{ID: id, Email: email, Role: role}, true
}
