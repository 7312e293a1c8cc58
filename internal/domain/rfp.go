package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RFP is a published procurement opportunity.
type RFP struct {
	ID                 uuid.UUID     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ReferenceNumber    string        `gorm:"column:reference_number;uniqueIndex;not null" json:"reference_number"`
	Title              string        `gorm:"column:title;not null" json:"title"`
	Description        string        `gorm:"column:description;type:text;not null" json:"description"`
	CategoryID         uuid.UUID     `gorm:"column:category_id;type:uuid;not null;index" json:"category_id"`
	EstimatedValue     *float64      `gorm:"column:estimated_value;type:decimal(18,2)" json:"estimated_value"`
	SubmissionDeadline time.Time     `gorm:"column:submission_deadline;not null" json:"submission_deadline"`
	Status             RFPStatus     `gorm:"column:status;type:varchar(20);not null;default:'draft';index" json:"status"`
	Requirements       *string       `gorm:"column:requirements;type:text" json:"requirements"`
	EvaluationCriteria *string       `gorm:"column:evaluation_criteria;type:text" json:"evaluation_criteria"`
	CreatedBy          uuid.UUID     `gorm:"column:created_by;type:uuid;not null" json:"created_by"`
	PublishedAt        *time.Time    `gorm:"column:published_at" json:"published_at"`
	CreatedAt          time.Time     `gorm:"column:created_at" json:"created_at"`
	UpdatedAt          time.Time     `gorm:"column:updated_at" json:"updated_at"`
	Category           *Category     `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Documents          []RFPDocument `gorm:"foreignKey:RFPID;constraint:OnDelete:CASCADE" json:"documents,omitempty"`
}

func (RFP) TableName() string {
	return "rfps"
}

func (r *RFP) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// OpenForBids reports whether a vendor may submit a bid at instant now.
func (r *RFP) OpenForBids(now time.Time) bool {
	return r.Status == RFPPublished && r.SubmissionDeadline.After(now)
}

// Category groups RFPs for browsing.
type Category struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;uniqueIndex;not null" json:"name"`
	Description *string   `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Category) TableName() string {
	return "categories"
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
