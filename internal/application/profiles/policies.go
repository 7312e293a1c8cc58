package profiles

import (
	"context"
	"errors"

	"procurement-portal/internal/domain"
	"procurement-portal/internal/middleware"
	"procurement-portal/internal/pkg/constants"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrInvalidRole         = errors.New("Role must be vendor or admin")
	ErrCannotChangeOwnRole = errors.New("Users cannot modify their own role")
	ErrLastAdmin           = errors.New("The portal must have at least one admin")
)

// UserSessionsPrefix keys the Redis set of a user's live session ids.
const UserSessionsPrefix = "user_sessions:"

// ValidateRoleChange checks a role assignment: valid role, not on oneself, and never demoting the last admin.
func ValidateRoleChange(db *gorm.DB, actorID, targetID uuid.UUID, role string) error {
	if !constants.IsValidRole(role) {
		return ErrInvalidRole
	}
	if actorID == targetID {
		return ErrCannotChangeOwnRole
	}
	var target domain.Profile
	if err := db.Select("id", "role").Where("id = ?", targetID).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProfileNotFound
		}
		return err
	}
	if target.Role == constants.Admin && role != constants.Admin {
		var admins int64
		if err := db.Model(&domain.Profile{}).Where("role = ?", constants.Admin).Count(&admins).Error; err != nil {
			return err
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}
	return nil
}

// DestroyUserSessions removes all sessions for a user.
// Deletes each session key (session:<sid>) and the user_sessions:<user_id> set.
func DestroyUserSessions(ctx context.Context, rdb *redis.Client, userID string) {
	if rdb == nil || userID == "" {
		return
	}
	key := UserSessionsPrefix + userID
	sessionIDs, err := rdb.SMembers(ctx, key).Result()
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("profiles: session lookup failed")
	}
	for _, sid := range sessionIDs {
		rdb.Del(ctx, middleware.SessionRedisPrefix+sid)
	}
	rdb.Del(ctx, key)
}
