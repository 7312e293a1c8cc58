package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification is one entry in a user's append-only inbox.
type Notification struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Title     string    `gorm:"column:title;not null" json:"title"`
	Message   string    `gorm:"column:message;type:text;not null" json:"message"`
	Type      string    `gorm:"column:type;not null" json:"type"`
	Read      bool      `gorm:"column:read;not null;default:false" json:"read"`
	Link      *string   `gorm:"column:link" json:"link"`
	CreatedAt time.Time `gorm:"column:created_at;index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
