package dashboard

import (
	"context"
	"time"

	"procurement-portal/internal/domain"
	"procurement-portal/internal/pkg/constants"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdminStats are the counters on the admin landing page.
type AdminStats struct {
	TotalRFPs       int64        `json:"total_rfps"`
	PublishedRFPs   int64        `json:"published_rfps"`
	TotalBids       int64        `json:"total_bids"`
	AwaitingReview  int64        `json:"bids_awaiting_review"`
	Vendors         int64        `json:"vendors"`
	ActiveContracts int64        `json:"active_contracts"`
	RecentRFPs      []domain.RFP `json:"recent_rfps"`
	RecentBids      []domain.Bid `json:"recent_bids"`
}

// VendorStats are the counters on a vendor's landing page.
type VendorStats struct {
	TotalBids    int64        `json:"total_bids"`
	PendingBids  int64        `json:"pending_bids"`
	ApprovedBids int64        `json:"approved_bids"`
	OpenRFPs     int64        `json:"open_rfps"`
	RecentRFPs   []domain.RFP `json:"recent_rfps"`
	RecentBids   []domain.Bid `json:"recent_bids"`
}

const recentLimit = 5

type Service struct {
	DB  *gorm.DB
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) AdminStats(ctx context.Context) (*AdminStats, error) {
	db := s.DB.WithContext(ctx)
	out := &AdminStats{}
	counts := []struct {
		dst   *int64
		model interface{}
		where string
		args  []interface{}
	}{
		{&out.TotalRFPs, &domain.RFP{}, "", nil},
		{&out.PublishedRFPs, &domain.RFP{}, "status = ?", []interface{}{domain.RFPPublished}},
		{&out.TotalBids, &domain.Bid{}, "", nil},
		{&out.AwaitingReview, &domain.Bid{}, "status IN ?", []interface{}{[]domain.BidStatus{domain.BidPending, domain.BidUnderReview}}},
		{&out.Vendors, &domain.Profile{}, "role = ?", []interface{}{constants.Vendor}},
		{&out.ActiveContracts, &domain.Contract{}, "status = ?", []interface{}{domain.ContractActive}},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if c.where != "" {
			q = q.Where(c.where, c.args...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	if err := db.Order("created_at DESC").Limit(recentLimit).Find(&out.RecentRFPs).Error; err != nil {
		return nil, err
	}
	if err := db.Preload("RFP").Order("submitted_at DESC").Limit(recentLimit).Find(&out.RecentBids).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// VendorStats counts the vendor's bids and the RFPs still open for bidding.
func (s *Service) VendorStats(ctx context.Context, vendorID uuid.UUID) (*VendorStats, error) {
	db := s.DB.WithContext(ctx)
	out := &VendorStats{}
	mine := func() *gorm.DB { return db.Model(&domain.Bid{}).Where("vendor_id = ?", vendorID) }
	if err := mine().Count(&out.TotalBids).Error; err != nil {
		return nil, err
	}
	if err := mine().Where("status = ?", domain.BidPending).Count(&out.PendingBids).Error; err != nil {
		return nil, err
	}
	if err := mine().Where("status = ?", domain.BidApproved).Count(&out.ApprovedBids).Error; err != nil {
		return nil, err
	}
	open := func() *gorm.DB {
		return db.Model(&domain.RFP{}).Where("status = ? AND submission_deadline > ?", domain.RFPPublished, s.now())
	}
	if err := open().Count(&out.OpenRFPs).Error; err != nil {
		return nil, err
	}
	if err := open().Order("submission_deadline ASC").Limit(recentLimit).Find(&out.RecentRFPs).Error; err != nil {
		return nil, err
	}
	if err := db.Preload("RFP").Where("vendor_id = ?", vendorID).Order("submitted_at DESC").
		Limit(recentLimit).Find(&out.RecentBids).Error; err != nil {
		return nil, err
	}
	for i := range out.RecentBids {
		out.RecentBids[i].RedactForVendor()
	}
	return out, nil
}
