package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entity types recorded in lifecycle events.
const (
	EntityRFP      = "rfp"
	EntityBid      = "bid"
	EntityContract = "contract"
)

// LifecycleEvent is an audit row written in the same transaction as the state change it describes.
type LifecycleEvent struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EntityType string         `gorm:"column:entity_type;type:varchar(20);not null;index:idx_lifecycle_entity" json:"entity_type"`
	EntityID   uuid.UUID      `gorm:"column:entity_id;type:uuid;not null;index:idx_lifecycle_entity" json:"entity_id"`
	EventType  string         `gorm:"column:event_type;not null" json:"event_type"`
	ActorID    *uuid.UUID     `gorm:"column:actor_id;type:uuid" json:"actor_id"`
	EventData  datatypes.JSON `gorm:"column:event_data" json:"event_data"`
	CreatedAt  time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (LifecycleEvent) TableName() string {
	return "lifecycle_events"
}

func (e *LifecycleEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
