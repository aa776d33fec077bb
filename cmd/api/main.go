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

	"go.uber.org/zap"

	"dealradar-backend/internal/config"
	"dealradar-backend/internal/di"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize container: %v", err)
	}
	defer container.Shutdown(context.Background())

	logger := container.Logger

	// Hot-reload the cache TTLs when a config file is in play.
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		watcher, err := container.WatchConfig(path)
		if err != nil {
			logger.Warn("config watcher unavailable", zap.String("path", path), zap.Error(err))
		} else {
			defer watcher.Stop()
		}
	}

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      container.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.Bool("cache_enabled", cfg.CacheEnabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
}
