package middleware

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SessionConfig for the Redis-backed session cookie.
type SessionConfig struct {
	Secret            string
	AllowCrossSiteDev bool
	IsProduction      bool
}

const (
	SessionCookieName  = "portal.sid"
	SessionRedisPrefix = "session:"
	sessionMaxAge      = 24 * time.Hour
)

// SessionUser is the shape stored in session under "user".
type SessionUser struct {
	UserID      string  `json:"user_id"`
	Email       string  `json:"email"`
	Role        string  `json:"role"`
	CompanyName *string `json:"company_name"`
}

// Session returns a Fiber middleware that loads the session from Redis before the handler
// and saves it afterwards. The cookie holds "s:"+id; the Redis key is "session:"+id.
func Session(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Cookies(SessionCookieName)
		// Cookie may be "s:id" or "s:id.signature"; use first part as id
		if strings.HasPrefix(sessionID, "s:") {
			parts := strings.SplitN(sessionID[2:], ".", 2)
			sessionID = parts[0]
		}

		var data map[string]interface{}
		if sessionID != "" && rdb != nil {
			b, err := rdb.Get(c.UserContext(), SessionRedisPrefix+sessionID).Bytes()
			if err == nil {
				_ = json.Unmarshal(b, &data)
			} else if err != redis.Nil {
				log.Warn().Err(err).Msg("session: load failed")
			}
		}
		if data == nil {
			data = make(map[string]interface{})
		}

		c.Locals("session_data", data)
		if u, ok := data["user"]; ok {
			c.Locals(userLocal, u)
		} else {
			c.Locals(userLocal, nil)
		}
		c.Locals("session_id", sessionID)

		if err := c.Next(); err != nil {
			return err
		}

		// Persist only sessions that carry a user; anonymous requests leave nothing in Redis.
		sid, _ := c.Locals("session_id").(string)
		updated, _ := c.Locals("session_data").(map[string]interface{})
		if rdb != nil && sid != "" && len(updated) > 0 {
			b, _ := json.Marshal(updated)
			if err := rdb.Set(c.UserContext(), SessionRedisPrefix+sid, b, sessionMaxAge).Err(); err != nil {
				log.Warn().Err(err).Msg("session: save failed")
			}
		}
		return nil
	}
}

// GetSessionID returns the current session ID from context (for login/logout).
func GetSessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals("session_id").(string)
	return sid
}

// SetSessionUser sets the user in the session and marks session for save.
// Call after login/register; use RegenerateSessionID first to get a new id.
func SetSessionUser(c *fiber.Ctx, user SessionUser) {
	data, _ := c.Locals("session_data").(map[string]interface{})
	if data == nil {
		data = make(map[string]interface{})
	}
	var company interface{}
	if user.CompanyName != nil {
		company = *user.CompanyName
	}
	data["user"] = map[string]interface{}{
		"user_id":      user.UserID,
		"email":        user.Email,
		"role":         user.Role,
		"company_name": company,
	}
	c.Locals("session_data", data)
	c.Locals(userLocal, data["user"])
}

// RegenerateSessionID creates a new session ID and sets it in Locals (cookie set by handler).
func RegenerateSessionID(c *fiber.Ctx) string {
	newID := uuid.New().String()
	c.Locals("session_id", newID)
	return newID
}

// DestroySession clears user and session data from Locals; caller must clear cookie and Redis.
func DestroySession(c *fiber.Ctx) {
	c.Locals("session_data", make(map[string]interface{}))
	c.Locals(userLocal, nil)
	c.Locals("session_id", "")
}

// SessionCookieConfig returns the cookie options for SetCookie/ClearCookie.
func SessionCookieConfig(cfg SessionConfig) fiber.Cookie {
	sameSite := "Lax"
	if cfg.AllowCrossSiteDev {
		sameSite = "None"
	}
	secure := cfg.IsProduction || cfg.AllowCrossSiteDev
	return fiber.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	}
}
