package database

import (
	"errors"
	"strings"

	"procurement-portal/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open opens a GORM DB from DSN (Supabase/Postgres pooler URL).
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") behind PgBouncer-style poolers.
// TranslateError turns unique violations into gorm.ErrDuplicatedKey.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{TranslateError: true})
}

// Models lists every table owned by the portal, parents first.
func Models() []interface{} {
	return []interface{}{
		&domain.Profile{},
		&domain.Category{},
		&domain.RFP{},
		&domain.RFPDocument{},
		&domain.Bid{},
		&domain.BidDocument{},
		&domain.Contract{},
		&domain.Notification{},
		&domain.LifecycleEvent{},
	}
}

// AutoMigrate creates the schema from the models. Production uses the goose migrations instead.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// IsUniqueViolation reports whether err comes from a unique index.
// Drivers without error translation are matched on their message.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
