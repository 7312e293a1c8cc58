package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"procurement-portal/internal/application/notifications"
	"procurement-portal/internal/domain"
	"procurement-portal/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AwardInput carries the contract terms for an award.
type AwardInput struct {
	BidID         uuid.UUID
	ContractValue float64
	StartDate     time.Time
	EndDate       time.Time
	Terms         *string
}

const awardLink = "/bids"

// AwardContract turns one bid into the RFP's contract. Contract insert, bid approval,
// RFP award, rejection of competing bids and the vendor notification commit together or not at all.
// Of two concurrent awards on one RFP exactly one commits; the other gets ErrRFPAlreadyAwarded.
func (m *Manager) AwardContract(ctx context.Context, adminID uuid.UUID, in AwardInput) (*domain.Contract, error) {
	var (
		contract *domain.Contract
		notice   *domain.Notification
	)
	err := m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var bid domain.Bid
		if err := tx.Select("id", "rfp_id").Where("id = ?", in.BidID).First(&bid).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBidNotFound
			}
			return err
		}

		// Lock the RFP before the bid so competing awards on one RFP queue up here
		// and the loser sees the winner's committed status.
		var rfp domain.RFP
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", bid.RFPID).First(&rfp).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRFPNotFound
			}
			return err
		}
		if rfp.Status == domain.RFPAwarded {
			return ErrRFPAlreadyAwarded
		}

		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", in.BidID).First(&bid).Error; err != nil {
			return err
		}
		switch bid.Status {
		case domain.BidApproved, domain.BidRejected:
			return ErrBidLocked
		case domain.BidWithdrawn:
			return ErrInvalidTransition
		}

		if !validMoney(in.ContractValue) ||
			in.StartDate.IsZero() || in.EndDate.IsZero() || !in.StartDate.Before(in.EndDate) {
			return ErrInvalidContractTerms
		}
		if !rfp.Status.Awardable() {
			return ErrInvalidTransition
		}

		now := m.now()
		contract = &domain.Contract{
			RFPID:         bid.RFPID,
			BidID:         bid.ID,
			VendorID:      bid.VendorID,
			ContractValue: in.ContractValue,
			StartDate:     in.StartDate.UTC(),
			EndDate:       in.EndDate.UTC(),
			Status:        domain.ContractActive,
			Terms:         trimmedOrNil(in.Terms),
		}
		if err := tx.Create(contract).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrRFPAlreadyAwarded
			}
			return err
		}

		if err := tx.Model(&domain.Bid{}).Where("id = ?", bid.ID).
			Updates(map[string]interface{}{"status": domain.BidApproved, "updated_at": now}).Error; err != nil {
			return err
		}

		// Compare-and-set: only the transaction that still sees a pre-award status wins.
		res := tx.Model(&domain.RFP{}).
			Where("id = ? AND status IN ?", rfp.ID, []domain.RFPStatus{domain.RFPPublished, domain.RFPClosed}).
			Updates(map[string]interface{}{"status": domain.RFPAwarded, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrRFPAlreadyAwarded
		}

		rejected := tx.Model(&domain.Bid{}).
			Where("rfp_id = ? AND id <> ? AND status IN ?", rfp.ID, bid.ID, domain.OpenBidStatuses).
			Updates(map[string]interface{}{"status": domain.BidRejected, "updated_at": now})
		if rejected.Error != nil {
			return rejected.Error
		}

		link := awardLink
		n, err := m.Notifications.AppendTx(tx, notifications.AppendInput{
			UserID:  bid.VendorID,
			Title:   "Contract Awarded",
			Message: fmt.Sprintf("Congratulations! Your bid for %s (%s) has been approved and a contract has been awarded.", rfp.Title, rfp.ReferenceNumber),
			Type:    notifications.TypeContractAward,
			Link:    &link,
		})
		if err != nil {
			return err
		}
		notice = n

		if err := RecordEvent(tx, domain.EntityContract, contract.ID, "CREATED", adminID, map[string]interface{}{
			"rfp_id":         rfp.ID,
			"bid_id":         bid.ID,
			"contract_value": in.ContractValue,
		}); err != nil {
			return err
		}
		if err := RecordEvent(tx, domain.EntityBid, bid.ID, "STATUS_CHANGED", adminID, map[string]interface{}{
			"from": bid.Status,
			"to":   domain.BidApproved,
		}); err != nil {
			return err
		}
		return RecordEvent(tx, domain.EntityRFP, rfp.ID, "AWARDED", adminID, map[string]interface{}{
			"from":          rfp.Status,
			"contract_id":   contract.ID,
			"bids_rejected": rejected.RowsAffected,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("contract_id", contract.ID.String()).Str("rfp_id", contract.RFPID.String()).
		Str("bid_id", contract.BidID.String()).Msg("contract awarded")
	m.Notifications.Publish(ctx, notice)
	return contract, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
