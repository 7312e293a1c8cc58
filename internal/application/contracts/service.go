package contracts

import (
	"context"
	"errors"
	"fmt"

	"procurement-portal/internal/application/lifecycle"
	"procurement-portal/internal/application/notifications"
	"procurement-portal/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrContractNotFound  = errors.New("Contract not found")
	ErrInvalidTransition = lifecycle.ErrInvalidTransition
)

// Service lists contracts and moves them out of active.
type Service struct {
	DB            *gorm.DB
	Notifications *notifications.Service
}

// Viewer is who is asking. Vendors only see contracts they hold.
type Viewer struct {
	ID      uuid.UUID
	IsAdmin bool
}

// ListContracts returns contracts with their RFP and bid, newest first.
func (s *Service) ListContracts(ctx context.Context, viewer Viewer, status domain.ContractStatus) ([]domain.Contract, error) {
	q := s.DB.WithContext(ctx).Preload("RFP").Preload("Bid")
	if !viewer.IsAdmin {
		q = q.Where("vendor_id = ?", viewer.ID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []domain.Contract
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	if !viewer.IsAdmin {
		for i := range out {
			if out[i].Bid != nil {
				out[i].Bid.RedactForVendor()
			}
		}
	}
	return out, nil
}

// GetContract loads one contract the viewer may see.
func (s *Service) GetContract(ctx context.Context, viewer Viewer, id uuid.UUID) (*domain.Contract, error) {
	q := s.DB.WithContext(ctx).Preload("RFP").Preload("Bid").Where("id = ?", id)
	if !viewer.IsAdmin {
		q = q.Where("vendor_id = ?", viewer.ID)
	}
	var c domain.Contract
	if err := q.First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContractNotFound
		}
		return nil, err
	}
	if !viewer.IsAdmin && c.Bid != nil {
		c.Bid.RedactForVendor()
	}
	return &c, nil
}

// SetContractStatus completes or terminates an active contract and tells the vendor.
func (s *Service) SetContractStatus(ctx context.Context, adminID, id uuid.UUID, next domain.ContractStatus) (*domain.Contract, error) {
	if !next.Valid() {
		return nil, ErrInvalidTransition
	}
	var (
		c      domain.Contract
		notice *domain.Notification
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("RFP").
			Where("id = ?", id).First(&c).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrContractNotFound
			}
			return err
		}
		if !c.Status.CanTransitionTo(next) {
			return ErrInvalidTransition
		}
		prev := c.Status
		if err := tx.Model(&domain.Contract{}).Where("id = ?", c.ID).Update("status", next).Error; err != nil {
			return err
		}
		c.Status = next

		if s.Notifications != nil {
			ref := ""
			if c.RFP != nil {
				ref = c.RFP.ReferenceNumber
			}
			link := "/bids"
			n, err := s.Notifications.AppendTx(tx, notifications.AppendInput{
				UserID:  c.VendorID,
				Title:   "Contract " + string(next),
				Message: fmt.Sprintf("Your contract for %s is now %s.", ref, next),
				Type:    notifications.TypeContractState,
				Link:    &link,
			})
			if err != nil {
				return err
			}
			notice = n
		}
		return lifecycle.RecordEvent(tx, domain.EntityContract, c.ID, "STATUS_CHANGED", adminID, map[string]interface{}{
			"from": prev,
			"to":   next,
		})
	})
	if err != nil {
		return nil, err
	}
	if s.Notifications != nil {
		s.Notifications.Publish(ctx, notice)
	}
	return &c, nil
}
