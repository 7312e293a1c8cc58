package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RFPDocument is a file attached to an RFP by an admin.
type RFPDocument struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RFPID      uuid.UUID `gorm:"column:rfp_id;type:uuid;not null;index" json:"rfp_id"`
	Name       string    `gorm:"column:name;not null" json:"name"`
	FilePath   string    `gorm:"column:file_path;not null" json:"file_path"`
	FileSize   int64     `gorm:"column:file_size;not null" json:"file_size"`
	FileType   string    `gorm:"column:file_type;not null" json:"file_type"`
	UploadedBy uuid.UUID `gorm:"column:uploaded_by;type:uuid;not null" json:"uploaded_by"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

func (RFPDocument) TableName() string {
	return "rfp_documents"
}

func (d *RFPDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// BidDocument is a file a vendor attached to a bid.
type BidDocument struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	BidID     uuid.UUID `gorm:"column:bid_id;type:uuid;not null;index" json:"bid_id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	FilePath  string    `gorm:"column:file_path;not null" json:"file_path"`
	FileSize  int64     `gorm:"column:file_size;not null" json:"file_size"`
	FileType  string    `gorm:"column:file_type;not null" json:"file_type"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (BidDocument) TableName() string {
	return "bid_documents"
}

func (d *BidDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
