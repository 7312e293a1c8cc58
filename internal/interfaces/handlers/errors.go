package handlers

import (
	"errors"

	authsvc "procurement-portal/internal/application/auth"
	"procurement-portal/internal/application/bids"
	"procurement-portal/internal/application/contracts"
	"procurement-portal/internal/application/documents"
	"procurement-portal/internal/application/lifecycle"
	"procurement-portal/internal/application/notifications"
	"procurement-portal/internal/application/profiles"
	"procurement-portal/internal/application/rfps"
	"procurement-portal/internal/middleware"
	"procurement-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type errorStatus struct {
	err    error
	status int
}

// statusTable maps application sentinels to HTTP status codes. First match wins.
var statusTable = []errorStatus{
	{lifecycle.ErrRFPNotFound, fiber.StatusNotFound},
	{lifecycle.ErrBidNotFound, fiber.StatusNotFound},
	{rfps.ErrCategoryNotFound, fiber.StatusNotFound},
	{rfps.ErrDocumentNotFound, fiber.StatusNotFound},
	{bids.ErrDocumentNotFound, fiber.StatusNotFound},
	{documents.ErrNotFound, fiber.StatusNotFound},
	{contracts.ErrContractNotFound, fiber.StatusNotFound},
	{notifications.ErrNotificationNotFound, fiber.StatusNotFound},
	{profiles.ErrProfileNotFound, fiber.StatusNotFound},

	{lifecycle.ErrDuplicateBid, fiber.StatusConflict},
	{lifecycle.ErrBidLocked, fiber.StatusConflict},
	{lifecycle.ErrRFPAlreadyAwarded, fiber.StatusConflict},
	{rfps.ErrCategoryExists, fiber.StatusConflict},
	{rfps.ErrDeadlineLocked, fiber.StatusConflict},
	{rfps.ErrRFPReadOnly, fiber.StatusConflict},
	{profiles.ErrEmailTaken, fiber.StatusConflict},
	{profiles.ErrLastAdmin, fiber.StatusConflict},
	{lifecycle.ErrInvariantViolation, fiber.StatusConflict},

	{lifecycle.ErrRFPNotOpen, fiber.StatusUnprocessableEntity},
	{lifecycle.ErrInvalidAmount, fiber.StatusUnprocessableEntity},
	{lifecycle.ErrInvalidProposal, fiber.StatusUnprocessableEntity},
	{lifecycle.ErrInvalidContractTerms, fiber.StatusUnprocessableEntity},
	{lifecycle.ErrInvalidTransition, fiber.StatusUnprocessableEntity},
	{rfps.ErrInvalidRFP, fiber.StatusUnprocessableEntity},
	{rfps.ErrDeadlineInPast, fiber.StatusUnprocessableEntity},
	{rfps.ErrInvalidCategory, fiber.StatusUnprocessableEntity},
	{rfps.ErrInvalidValue, fiber.StatusUnprocessableEntity},
	{profiles.ErrInvalidEmail, fiber.StatusUnprocessableEntity},
	{profiles.ErrInvalidPassword, fiber.StatusUnprocessableEntity},
	{profiles.ErrNoUpdateFields, fiber.StatusUnprocessableEntity},
	{profiles.ErrInvalidRole, fiber.StatusUnprocessableEntity},
	{notifications.ErrInvalidNotification, fiber.StatusUnprocessableEntity},

	{profiles.ErrCannotChangeOwnRole, fiber.StatusForbidden},
	{authsvc.ErrEmailPasswordRequired, fiber.StatusBadRequest},
	{authsvc.ErrInvalidCredentials, fiber.StatusUnauthorized},
	{authsvc.ErrNotAuthenticated, fiber.StatusUnauthorized},
	{notifications.ErrPushUnavailable, fiber.StatusServiceUnavailable},
}

// StatusFor returns the HTTP status for err, or 500 when it is not a known sentinel.
func StatusFor(err error) int {
	for _, e := range statusTable {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return fiber.StatusInternalServerError
}

// Fail renders err in the error envelope. Unknown errors are logged and hidden behind a generic message.
func Fail(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).
			Str("path", c.Path()).
			Str("trace_id", middleware.GetTraceID(c)).
			Msg("request failed")
		return response.Error(c, "Internal Server Error", status, nil)
	}
	return response.Error(c, err.Error(), status, nil)
}
