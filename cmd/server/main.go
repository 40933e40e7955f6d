package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"company_registry/internal/api"
	"company_registry/internal/config"
	"company_registry/internal/logging"
	"company_registry/internal/services"
)

func main() {
	cfg, err := config.Load("5000")
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	db, err := services.InitDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalw("Failed to connect to database", "error", err)
	}
	logger.Info("Database connection established")

	if err := services.AutoMigrate(db); err != nil {
		logger.Fatalw("Failed to run database migrations", "error", err)
	}
	logger.Info("Database tables created")

	e := api.NewServer(db, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Infow("API server starting", "port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("API server stopped", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("Graceful shutdown failed", "error", err)
	}
}
