package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile is a portal account. Role is one of constants.Vendor or constants.Admin.
type Profile struct {
	ID                  uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email               string    `gorm:"column:email;uniqueIndex;not null" json:"email"`
	PasswordHash        string    `gorm:"column:password_hash;not null" json:"-"`
	Role                string    `gorm:"column:role;type:varchar(20);not null;default:'vendor';index" json:"role"`
	CompanyName         *string   `gorm:"column:company_name" json:"company_name"`
	CompanyAddress      *string   `gorm:"column:company_address" json:"company_address"`
	CompanyPhone        *string   `gorm:"column:company_phone" json:"company_phone"`
	CompanyRegistration *string   `gorm:"column:company_registration" json:"company_registration"`
	ContactPerson       *string   `gorm:"column:contact_person" json:"contact_person"`
	CreatedAt           time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
