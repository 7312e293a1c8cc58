package middleware

import (
	"strings"

	"procurement-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// CORSConfig holds CORS configuration (suffix + dev password).
type CORSConfig struct {
	AllowedSuffix string
	DevPassword   string
}

// CORS returns a Fiber handler that allows origins ending with AllowedSuffix
// or requests with the correct dev-password header. Credentials allowed.
func CORS(cfg CORSConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin := c.Get("Origin")
		c.Vary("Origin")
		// No origin (e.g. same-origin or tools): allow
		if origin == "" {
			return c.Next()
		}
		allowed := false
		switch {
		// Localhost in dev
		case strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:"):
			allowed = c.Method() == fiber.MethodOptions || cfg.DevPassword == ""
		// Suffix match (e.g. .procurement.gov)
		case cfg.AllowedSuffix != "" && strings.HasSuffix(strings.ToLower(origin), strings.ToLower(cfg.AllowedSuffix)):
			allowed = true
		}
		// Dev password header
		if !allowed && cfg.DevPassword != "" && c.Get("dev-password") == cfg.DevPassword {
			allowed = true
		}
		if allowed {
			setCORSHeaders(c, origin)
			if c.Method() == fiber.MethodOptions {
				return c.SendStatus(fiber.StatusNoContent)
			}
			return c.Next()
		}
		log.Warn().Str("origin", origin).Str("path", c.Path()).Msg("cors: origin rejected")
		return response.Forbidden(c, "Not allowed by CORS")
	}
}

func setCORSHeaders(c *fiber.Ctx, origin string) {
	c.Set("Access-Control-Allow-Origin", origin)
	c.Set("Access-Control-Allow-Credentials", "true")
	c.Set("Access-Control-Allow-Headers", "Content-Type, dev-password")
	c.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	c.Set("Access-Control-Expose-Headers", "X-Trace-Id, Content-Disposition")
}
