package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"company_registry/internal/cache"
	"company_registry/internal/config"
	"company_registry/internal/frontend"
	"company_registry/internal/logging"
)

func main() {
	cfg, err := config.Load("8080")
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rc *cache.RedisCache
	if cfg.RedisURL != "" {
		rc, err = cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warnw("Redis unavailable, API reads will not be cached", "error", err)
			rc = nil
		} else {
			defer rc.Close()
			logger.Info("Redis cache connected")
		}
	}

	app, err := frontend.New(cfg, logger, rc)
	if err != nil {
		logger.Fatalw("Failed to build web front end", "error", err)
	}

	if err := app.Start(ctx); err != nil {
		logger.Fatalw("Web server stopped", "error", err)
	}
}
