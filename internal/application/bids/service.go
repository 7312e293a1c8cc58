package bids

import (
	"context"
	"errors"

	"procurement-portal/internal/application/documents"
	"procurement-portal/internal/application/lifecycle"
	"procurement-portal/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrBidNotFound      = lifecycle.ErrBidNotFound
	ErrDocumentNotFound = errors.New("Document not found")
)

// Service is the read side of bids. Writes go through lifecycle.Manager.
type Service struct {
	DB    *gorm.DB
	Store documents.Store
}

// Viewer is who is asking. Vendors only see their own bids, without admin notes.
type Viewer struct {
	ID      uuid.UUID
	IsAdmin bool
}

// ListFilter narrows bid listings.
type ListFilter struct {
	Status domain.BidStatus
	RFPID  *uuid.UUID
}

// ListForVendor returns the vendor's bids with their RFPs, newest first.
func (s *Service) ListForVendor(ctx context.Context, vendorID uuid.UUID, f ListFilter) ([]domain.Bid, error) {
	out, err := s.list(ctx, s.DB.WithContext(ctx).Where("vendor_id = ?", vendorID), f)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].RedactForVendor()
	}
	return out, nil
}

// ListAll returns every bid for the admin review screens.
func (s *Service) ListAll(ctx context.Context, f ListFilter) ([]domain.Bid, error) {
	return s.list(ctx, s.DB.WithContext(ctx), f)
}

func (s *Service) list(ctx context.Context, q *gorm.DB, f ListFilter) ([]domain.Bid, error) {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.RFPID != nil {
		q = q.Where("rfp_id = ?", *f.RFPID)
	}
	var out []domain.Bid
	if err := q.Preload("RFP").Order("submitted_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetBid loads a bid with its RFP and documents.
func (s *Service) GetBid(ctx context.Context, viewer Viewer, bidID uuid.UUID) (*domain.Bid, error) {
	q := s.DB.WithContext(ctx).Preload("RFP").Preload("RFP.Category").Preload("Documents").Where("id = ?", bidID)
	if !viewer.IsAdmin {
		q = q.Where("vendor_id = ?", viewer.ID)
	}
	var bid domain.Bid
	if err := q.First(&bid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBidNotFound
		}
		return nil, err
	}
	if !viewer.IsAdmin {
		bid.RedactForVendor()
	}
	return &bid, nil
}

// DownloadDocument returns a bid attachment. Only the bidding vendor and admins may read it.
func (s *Service) DownloadDocument(ctx context.Context, viewer Viewer, bidID, docID uuid.UUID) (*domain.BidDocument, []byte, error) {
	if _, err := s.GetBid(ctx, viewer, bidID); err != nil {
		return nil, nil, err
	}
	var doc domain.BidDocument
	if err := s.DB.WithContext(ctx).Where("id = ? AND bid_id = ?", docID, bidID).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrDocumentNotFound
		}
		return nil, nil, err
	}
	if s.Store == nil {
		return nil, nil, errors.New("bid document store not configured")
	}
	data, err := s.Store.Get(ctx, doc.FilePath)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return nil, nil, ErrDocumentNotFound
		}
		return nil, nil, err
	}
	return &doc, data, nil
}
