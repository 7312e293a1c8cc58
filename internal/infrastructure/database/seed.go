package database

import (
	"context"

	"procurement-portal/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultCategories mirrors the 00002 seed migration for schemas built with AutoMigrate.
var DefaultCategories = []domain.Category{
	{Name: "Construction", Description: strPtr("Civil works, buildings and infrastructure")},
	{Name: "Information Technology", Description: strPtr("Software, hardware and IT services")},
	{Name: "Consultancy", Description: strPtr("Advisory and professional services")},
	{Name: "Supplies", Description: strPtr("Goods, equipment and consumables")},
	{Name: "Maintenance", Description: strPtr("Repairs and facility maintenance")},
}

// SeedCategories inserts the default categories that are missing and returns how many were added.
func SeedCategories(ctx context.Context, db *gorm.DB) (int64, error) {
	var added int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range DefaultCategories {
			c := c
			res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).Create(&c)
			if res.Error != nil {
				return res.Error
			}
			added += res.RowsAffected
		}
		return nil
	})
	return added, err
}

func strPtr(s string) *string { return &s }
