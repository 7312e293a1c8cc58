package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contract is the award record created from exactly one approved bid.
type Contract struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RFPID         uuid.UUID      `gorm:"column:rfp_id;type:uuid;not null;uniqueIndex" json:"rfp_id"`
	BidID         uuid.UUID      `gorm:"column:bid_id;type:uuid;not null;uniqueIndex" json:"bid_id"`
	VendorID      uuid.UUID      `gorm:"column:vendor_id;type:uuid;not null;index" json:"vendor_id"`
	ContractValue float64        `gorm:"column:contract_value;type:decimal(18,2);not null" json:"contract_value"`
	StartDate     time.Time      `gorm:"column:start_date;not null" json:"start_date"`
	EndDate       time.Time      `gorm:"column:end_date;not null" json:"end_date"`
	Status        ContractStatus `gorm:"column:status;type:varchar(20);not null;default:'active';index" json:"status"`
	Terms         *string        `gorm:"column:terms;type:text" json:"terms"`
	CreatedAt     time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"column:updated_at" json:"updated_at"`
	RFP           *RFP           `gorm:"foreignKey:RFPID" json:"rfp,omitempty"`
	Bid           *Bid           `gorm:"foreignKey:BidID" json:"bid,omitempty"`
}

func (Contract) TableName() string {
	return "contracts"
}

func (c *Contract) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
