package lifecycle

import (
	"context"
	"errors"
	"strings"

	"procurement-portal/internal/application/documents"
	"procurement-portal/internal/domain"
	"procurement-portal/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubmitBidInput is a vendor's bid submission.
type SubmitBidInput struct {
	RFPID     uuid.UUID
	VendorID  uuid.UUID
	Amount    float64
	Proposal  string
	Documents []documents.Upload
}

// SubmitBidResult reports the stored bid and which attachments could not be stored.
type SubmitBidResult struct {
	Bid             *domain.Bid          `json:"bid"`
	Documents       []domain.BidDocument `json:"documents"`
	FailedDocuments []string             `json:"failed_documents"`
}

// SubmitBid creates a pending bid. The openness, duplicate and input checks run in the same
// transaction as the insert; attachments are stored afterwards on a best-effort basis.
func (m *Manager) SubmitBid(ctx context.Context, in SubmitBidInput) (*SubmitBidResult, error) {
	now := m.now()
	bid := &domain.Bid{
		RFPID:       in.RFPID,
		VendorID:    in.VendorID,
		Amount:      in.Amount,
		Proposal:    strings.TrimSpace(in.Proposal),
		Status:      domain.BidPending,
		SubmittedAt: now,
		UpdatedAt:   now,
	}

	err := m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rfp domain.RFP
		if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Where("id = ?", in.RFPID).First(&rfp).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRFPNotOpen
			}
			return err
		}
		if !rfp.OpenForBids(now) {
			return ErrRFPNotOpen
		}

		var existing int64
		if err := tx.Model(&domain.Bid{}).
			Where("rfp_id = ? AND vendor_id = ?", in.RFPID, in.VendorID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicateBid
		}

		if !validMoney(in.Amount) {
			return ErrInvalidAmount
		}
		if bid.Proposal == "" {
			return ErrInvalidProposal
		}

		if err := tx.Create(bid).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrDuplicateBid
			}
			return err
		}
		return RecordEvent(tx, domain.EntityBid, bid.ID, "SUBMITTED", in.VendorID, map[string]interface{}{
			"rfp_id": in.RFPID,
			"amount": in.Amount,
		})
	})
	if err != nil {
		return nil, err
	}

	res := &SubmitBidResult{Bid: bid, Documents: []domain.BidDocument{}, FailedDocuments: []string{}}
	for _, up := range in.Documents {
		doc, err := m.storeBidDocument(ctx, bid, up)
		if err != nil {
			log.Warn().Err(err).
				Str("bid_id", bid.ID.String()).
				Str("vendor_id", bid.VendorID.String()).
				Str("file", up.Name).
				Msg("bid submission: document upload failed, skipping")
			res.FailedDocuments = append(res.FailedDocuments, up.Name)
			continue
		}
		res.Documents = append(res.Documents, *doc)
	}
	return res, nil
}

func (m *Manager) storeBidDocument(ctx context.Context, bid *domain.Bid, up documents.Upload) (*domain.BidDocument, error) {
	if m.BidStore == nil {
		return nil, errors.New("bid document store not configured")
	}
	path := documents.BidDocumentPath(bid.VendorID, bid.ID, up.Name, m.now())
	if err := m.BidStore.Put(ctx, path, up.Data, up.ContentType); err != nil {
		return nil, err
	}
	fileType := up.ContentType
	if fileType == "" {
		fileType = "application/octet-stream"
	}
	doc := &domain.BidDocument{
		BidID:    bid.ID,
		Name:     up.Name,
		FilePath: path,
		FileSize: up.Size(),
		FileType: fileType,
	}
	if err := m.DB.WithContext(ctx).Create(doc).Error; err != nil {
		// Row failed after the blob landed; remove the orphan.
		if delErr := m.BidStore.Delete(ctx, path); delErr != nil {
			log.Warn().Err(delErr).Str("path", path).Msg("bid submission: orphan document cleanup failed")
		}
		return nil, err
	}
	return doc, nil
}

// SetBidStatus applies an admin review decision. Approval is only possible through AwardContract.
func (m *Manager) SetBidStatus(ctx context.Context, adminID, bidID uuid.UUID, next domain.BidStatus, adminNotes *string) (*domain.Bid, error) {
	if !next.AdminSettable() {
		return nil, ErrInvalidTransition
	}
	var bid domain.Bid
	err := m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", bidID).First(&bid).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBidNotFound
			}
			return err
		}
		switch bid.Status {
		case domain.BidApproved:
			return ErrBidLocked
		case domain.BidWithdrawn:
			return ErrInvalidTransition
		}
		if next.Open() {
			var rfp domain.RFP
			if err := tx.Select("id", "status").Where("id = ?", bid.RFPID).First(&rfp).Error; err != nil {
				return err
			}
			if rfp.Status == domain.RFPAwarded {
				return ErrInvalidTransition
			}
		}

		prev := bid.Status
		updates := map[string]interface{}{
			"status":     next,
			"updated_at": m.now(),
		}
		if adminNotes != nil {
			updates["admin_notes"] = *adminNotes
		}
		if err := tx.Model(&bid).Updates(updates).Error; err != nil {
			return err
		}
		bid.Status = next
		if adminNotes != nil {
			bid.AdminNotes = adminNotes
		}
		return RecordEvent(tx, domain.EntityBid, bid.ID, "STATUS_CHANGED", adminID, map[string]interface{}{
			"from": prev,
			"to":   next,
		})
	})
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// SetBidNotes replaces the admin notes on a bid without touching its status.
// Unlike SetBidStatus it works on approved, rejected and withdrawn bids.
func (m *Manager) SetBidNotes(ctx context.Context, adminID, bidID uuid.UUID, notes *string) (*domain.Bid, error) {
	var bid domain.Bid
	err := m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", bidID).First(&bid).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBidNotFound
			}
			return err
		}
		notes = trimmedOrNil(notes)
		now := m.now()
		if err := tx.Model(&bid).Updates(map[string]interface{}{
			"admin_notes": notes,
			"updated_at":  now,
		}).Error; err != nil {
			return err
		}
		bid.AdminNotes = notes
		bid.UpdatedAt = now
		return RecordEvent(tx, domain.EntityBid, bid.ID, "NOTES_UPDATED", adminID, map[string]interface{}{
			"status": bid.Status,
		})
	})
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// WithdrawBid lets a vendor pull an open bid of their own.
func (m *Manager) WithdrawBid(ctx context.Context, vendorID, bidID uuid.UUID) (*domain.Bid, error) {
	var bid domain.Bid
	err := m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND vendor_id = ?", bidID, vendorID).First(&bid).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBidNotFound
			}
			return err
		}
		if bid.Status == domain.BidApproved {
			return ErrBidLocked
		}
		if !bid.Status.Open() {
			return ErrInvalidTransition
		}
		prev := bid.Status
		now := m.now()
		if err := tx.Model(&bid).Updates(map[string]interface{}{
			"status":     domain.BidWithdrawn,
			"updated_at": now,
		}).Error; err != nil {
			return err
		}
		bid.Status = domain.BidWithdrawn
		bid.UpdatedAt = now
		return RecordEvent(tx, domain.EntityBid, bid.ID, "WITHDRAWN", vendorID, map[string]interface{}{
			"from": prev,
		})
	})
	if err != nil {
		return nil, err
	}
	bid.RedactForVendor()
	return &bid, nil
}
