package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"procurement-portal/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// VerifyAward checks that an awarded RFP has exactly one contract, that the contract's bid is the
// only approved bid and that no competing bid is still open. RFPs that are not awarded must have
// no contract and no approved bid. A violation means a partial award was committed.
func (m *Manager) VerifyAward(ctx context.Context, rfpID uuid.UUID) error {
	db := m.DB.WithContext(ctx)
	var rfp domain.RFP
	if err := db.Select("id", "status").Where("id = ?", rfpID).First(&rfp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRFPNotFound
		}
		return err
	}

	var contracts []domain.Contract
	if err := db.Where("rfp_id = ?", rfpID).Find(&contracts).Error; err != nil {
		return err
	}
	var approved []domain.Bid
	if err := db.Select("id").Where("rfp_id = ? AND status = ?", rfpID, domain.BidApproved).Find(&approved).Error; err != nil {
		return err
	}
	var open int64
	if err := db.Model(&domain.Bid{}).Where("rfp_id = ? AND status IN ?", rfpID, domain.OpenBidStatuses).Count(&open).Error; err != nil {
		return err
	}

	var problem string
	switch {
	case rfp.Status != domain.RFPAwarded && rfp.Status != domain.RFPCancelled && (len(contracts) > 0 || len(approved) > 0):
		problem = fmt.Sprintf("status %s with %d contract(s) and %d approved bid(s)", rfp.Status, len(contracts), len(approved))
	case rfp.Status != domain.RFPAwarded:
		return nil
	case len(contracts) != 1:
		problem = fmt.Sprintf("%d contracts", len(contracts))
	case len(approved) != 1 || approved[0].ID != contracts[0].BidID:
		problem = fmt.Sprintf("%d approved bid(s) not matching contract bid %s", len(approved), contracts[0].BidID)
	case open > 0:
		problem = fmt.Sprintf("%d bid(s) still open", open)
	default:
		return nil
	}
	log.Error().Str("rfp_id", rfpID.String()).Str("problem", problem).Msg("award integrity violation")
	return fmt.Errorf("%w: %s", ErrInvariantViolation, problem)
}

// VerifyAllAwards runs VerifyAward over every RFP that has a contract or is marked awarded and
// returns the ids that failed. Only query errors are returned as err.
func (m *Manager) VerifyAllAwards(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := m.DB.WithContext(ctx).Model(&domain.RFP{}).
		Where("status = ? OR id IN (?)", domain.RFPAwarded, m.DB.Model(&domain.Contract{}).Select("rfp_id")).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	var failed []uuid.UUID
	for _, id := range ids {
		if err := m.VerifyAward(ctx, id); err != nil {
			if !errors.Is(err, ErrInvariantViolation) {
				return failed, err
			}
			failed = append(failed, id)
		}
	}
	return failed, nil
}
