package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"procurement-portal/internal/application/emails"
	"procurement-portal/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Notification types that are mirrored by email.
const (
	TypeContractAward = "contract_award"
	TypeBidUpdate     = "bid_update"
	TypeContractState = "contract_status"
)

var (
	ErrNotificationNotFound = errors.New("Notification not found")
	ErrInvalidNotification  = errors.New("Notification requires user, title, message and type")
	ErrPushUnavailable      = errors.New("Live notifications are not available")
)

const channelPrefix = "notifications:"

// Channel is the Redis pub/sub channel carrying a user's new notifications.
func Channel(userID uuid.UUID) string {
	return channelPrefix + userID.String()
}

// Service is the notification sink: an append-only inbox per user plus a push channel.
type Service struct {
	DB  *gorm.DB
	Rdb *redis.Client // nil disables push
	// EmailSender mirrors award notifications by email when set.
	EmailSender emails.Sender
}

// AppendInput is one notification to append to a user's inbox.
type AppendInput struct {
	UserID  uuid.UUID
	Title   string
	Message string
	Type    string
	Link    *string
}

// AppendTx inserts the notification using tx so it commits with the caller's transaction.
// The caller must call Publish after commit.
func (s *Service) AppendTx(tx *gorm.DB, in AppendInput) (*domain.Notification, error) {
	if in.UserID == uuid.Nil || strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Message) == "" || strings.TrimSpace(in.Type) == "" {
		return nil, ErrInvalidNotification
	}
	n := &domain.Notification{
		UserID:  in.UserID,
		Title:   strings.TrimSpace(in.Title),
		Message: strings.TrimSpace(in.Message),
		Type:    strings.TrimSpace(in.Type),
		Link:    in.Link,
	}
	if err := tx.Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

// Append inserts and publishes in one call.
func (s *Service) Append(ctx context.Context, in AppendInput) (*domain.Notification, error) {
	n, err := s.AppendTx(s.DB.WithContext(ctx), in)
	if err != nil {
		return nil, err
	}
	s.Publish(ctx, n)
	return n, nil
}

// Publish pushes a committed notification to live subscribers and, for awards, by email.
// Delivery is best effort: failures are logged, never returned.
func (s *Service) Publish(ctx context.Context, n *domain.Notification) {
	if n == nil {
		return
	}
	if s.Rdb != nil {
		b, err := json.Marshal(n)
		if err == nil {
			err = s.Rdb.Publish(ctx, Channel(n.UserID), b).Err()
		}
		if err != nil {
			log.Warn().Err(err).Str("notification_id", n.ID.String()).Str("user_id", n.UserID.String()).Msg("notifications: push failed")
		}
	}
	if s.EmailSender != nil && n.Type == TypeContractAward {
		s.sendEmail(ctx, n)
	}
}

func (s *Service) sendEmail(ctx context.Context, n *domain.Notification) {
	var p domain.Profile
	if err := s.DB.WithContext(ctx).Select("id", "email").Where("id = ?", n.UserID).First(&p).Error; err != nil {
		log.Warn().Err(err).Str("user_id", n.UserID.String()).Msg("notifications: recipient lookup failed")
		return
	}
	link := ""
	if n.Link != nil {
		link = *n.Link
	}
	if err := s.EmailSender.SendNotification(ctx, p.Email, n.Title, n.Message, link); err != nil {
		log.Warn().Err(err).Str("user_id", n.UserID.String()).Msg("notifications: email failed")
	}
}

// ListFilter narrows a user's inbox listing.
type ListFilter struct {
	UnreadOnly bool
	Limit      int
}

// List returns the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, f ListFilter) ([]domain.Notification, error) {
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := s.DB.WithContext(ctx).Where("user_id = ?", userID)
	if f.UnreadOnly {
		q = q.Where("read = ?", false)
	}
	var out []domain.Notification
	if err := q.Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UnreadCount returns how many notifications the user has not read.
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&n).Error
	return n, err
}

// MarkRead marks one of the user's notifications read. Marking a read entry again is a no-op.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	res := s.DB.WithContext(ctx).Model(&domain.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification of the user read and returns how many changed.
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}

// Subscribe streams notifications published for userID until ctx is done.
// Delivery is at most once: messages published while nobody listens are not replayed.
func (s *Service) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan domain.Notification, error) {
	if s.Rdb == nil {
		return nil, ErrPushUnavailable
	}
	ps := s.Rdb.Subscribe(ctx, Channel(userID))
	// Wait for the subscription to be confirmed so nothing published after return is missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	out := make(chan domain.Notification, 16)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var n domain.Notification
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					log.Warn().Err(err).Str("channel", msg.Channel).Msg("notifications: bad payload")
					continue
				}
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
