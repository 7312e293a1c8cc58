package bootstrap

import (
	"procurement-portal/internal/config"
	"procurement-portal/internal/interfaces/router"
	"procurement-portal/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for serverless deployments (the api handler imports this package, not internal).
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Setup(cfg.LogLevel, cfg.IsProduction())
	app, _, _, err := router.CreateApp(cfg)
	return app, err
}
