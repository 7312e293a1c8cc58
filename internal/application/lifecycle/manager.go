package lifecycle

import (
	"encoding/json"
	"math"
	"time"

	"procurement-portal/internal/application/documents"
	"procurement-portal/internal/application/notifications"
	"procurement-portal/internal/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Manager owns the RFP, bid and contract state machines and the award transaction.
// Every operation takes the acting user explicitly.
type Manager struct {
	DB            *gorm.DB
	Notifications *notifications.Service
	BidStore      documents.Store
	// Now is the clock used for deadlines and timestamps; defaults to time.Now.
	Now func() time.Time
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now().UTC()
	}
	return time.Now().UTC()
}

// validMoney reports whether v is a finite amount that stays positive once stored as numeric(18,2).
func validMoney(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return math.Round(v*100) >= 1
}

// RecordEvent appends an audit row using tx, so it commits or rolls back with the change it describes.
func RecordEvent(tx *gorm.DB, entityType string, entityID uuid.UUID, eventType string, actorID uuid.UUID, data map[string]interface{}) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	ev := &domain.LifecycleEvent{
		EntityType: entityType,
		EntityID:   entityID,
		EventType:  eventType,
		EventData:  datatypes.JSON(b),
	}
	if actorID != uuid.Nil {
		ev.ActorID = &actorID
	}
	return tx.Create(ev).Error
}
