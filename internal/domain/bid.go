package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Bid is a vendor's priced proposal against one RFP. (rfp_id, vendor_id) is unique.
type Bid struct {
	ID          uuid.UUID     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RFPID       uuid.UUID     `gorm:"column:rfp_id;type:uuid;not null;uniqueIndex:idx_bids_rfp_vendor" json:"rfp_id"`
	VendorID    uuid.UUID     `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:idx_bids_rfp_vendor" json:"vendor_id"`
	Amount      float64       `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	Proposal    string        `gorm:"column:proposal;type:text;not null" json:"proposal"`
	Status      BidStatus     `gorm:"column:status;type:varchar(20);not null;default:'pending';index" json:"status"`
	AdminNotes  *string       `gorm:"column:admin_notes;type:text" json:"admin_notes,omitempty"`
	SubmittedAt time.Time     `gorm:"column:submitted_at;not null" json:"submitted_at"`
	UpdatedAt   time.Time     `gorm:"column:updated_at" json:"updated_at"`
	RFP         *RFP          `gorm:"foreignKey:RFPID;constraint:OnDelete:CASCADE" json:"rfp,omitempty"`
	Documents   []BidDocument `gorm:"foreignKey:BidID;constraint:OnDelete:CASCADE" json:"documents,omitempty"`
}

func (Bid) TableName() string {
	return "bids"
}

func (b *Bid) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// RedactForVendor drops fields only admins may see.
func (b *Bid) RedactForVendor() {
	b.AdminNotes = nil
}
