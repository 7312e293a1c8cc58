package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"procurement-portal/internal/config"
	"procurement-portal/internal/interfaces/router"
	"procurement-portal/internal/pkg/logger"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config load:", err)
		os.Exit(1)
	}
	logger.Setup(cfg.LogLevel, cfg.IsProduction())

	app, db, rdb, err := router.CreateApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("app create")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if db != nil {
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatal().Err(err).Msg("postgres: get db")
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("postgres connection failed")
		}
		log.Info().Msg("postgres connected")
	}
	if rdb != nil {
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		log.Info().Msg("redis connected")
	}
	cancel()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("health", "/health/json").Msg("server running")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
