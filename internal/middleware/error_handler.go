package middleware

import (
	"errors"

	"procurement-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ErrorHandler is the global error handler. Returns the standard error format.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"
	details := map[string]interface{}{}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("trace_id", GetTraceID(c)).Str("path", c.Path()).Msg("unhandled error")
	}

	return response.Error(c, message, code, details)
}
