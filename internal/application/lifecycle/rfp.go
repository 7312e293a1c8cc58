package lifecycle

import (
	"context"
	"errors"

	"procurement-portal/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SetRFPStatus applies a direct admin transition. Awarded is never a valid target here.
// The first entry into published stamps published_at; later entries keep the original stamp.
func (m *Manager) SetRFPStatus(ctx context.Context, adminID, rfpID uuid.UUID, next domain.RFPStatus) (*domain.RFP, error) {
	if !next.Valid() || next == domain.RFPAwarded {
		return nil, ErrInvalidTransition
	}
	var rfp domain.RFP
	err := m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", rfpID).First(&rfp).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRFPNotFound
			}
			return err
		}
		if !rfp.Status.CanTransitionTo(next) {
			return ErrInvalidTransition
		}

		prev := rfp.Status
		now := m.now()
		updates := map[string]interface{}{
			"status":     next,
			"updated_at": now,
		}
		if next == domain.RFPPublished && rfp.PublishedAt == nil {
			updates["published_at"] = now
			rfp.PublishedAt = &now
		}
		// Guarded on the status we read so a concurrent award cannot be overwritten.
		res := tx.Model(&domain.RFP{}).Where("id = ? AND status = ?", rfp.ID, prev).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrInvalidTransition
		}
		rfp.Status = next
		rfp.UpdatedAt = now
		return RecordEvent(tx, domain.EntityRFP, rfp.ID, "STATUS_CHANGED", adminID, map[string]interface{}{
			"from": prev,
			"to":   next,
		})
	})
	if err != nil {
		return nil, err
	}
	return &rfp, nil
}
