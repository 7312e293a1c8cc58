package cli

import (
	"errors"

	"procurement-portal/internal/config"
	"procurement-portal/internal/infrastructure/database"
	"procurement-portal/internal/pkg/logger"

	"gorm.io/gorm"
)

// openDB is swapped in tests.
var openDB = func() (*gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Setup(cfg.LogLevel, cfg.IsProduction())
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	return database.Open(cfg.DatabaseURL)
}
