package database

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

func gooseSetup() error {
	goose.SetBaseFS(migrationsFS)
	return goose.SetDialect("postgres")
}

// MigrateUp applies every pending SQL migration.
func MigrateUp(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	if err := gooseSetup(); err != nil {
		return err
	}
	return goose.UpContext(ctx, sqlDB, migrationsDir)
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	if err := gooseSetup(); err != nil {
		return err
	}
	return goose.DownContext(ctx, sqlDB, migrationsDir)
}

// MigrateStatus prints applied and pending migrations through goose's logger.
func MigrateStatus(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	if err := gooseSetup(); err != nil {
		return err
	}
	return goose.StatusContext(ctx, sqlDB, migrationsDir)
}
