// Package main is the entry point for the market advisor API.
// It serves sector analytics, allocation recommendations, portfolio metrics,
// news sentiment, technical analysis and US market status as JSON.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/marketadvisor/internal/config"
	"github.com/aristath/marketadvisor/internal/di"
	"github.com/aristath/marketadvisor/internal/server"
	"github.com/aristath/marketadvisor/pkg/logger"
)

// main orchestrates startup:
// 1. Loads configuration (.env, environment, optional tables YAML)
// 2. Initializes logging
// 3. Wires all dependencies via the DI container
// 4. Starts the scheduler and the HTTP server
// 5. Waits for SIGINT/SIGTERM and shuts down gracefully
func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Int("port", cfg.Port).
		Str("cache_backend", cfg.CacheBackend).
		Msg("Starting market advisor")

	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close cache")
		}
	}()

	container.Scheduler.Start()

	srv := server.New(server.Config{
		Log:       log,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		Container: container,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Warm the market sentiment cache once without waiting for the first tick
	if cfg.NewsAPIKey != "" && cfg.HuggingFaceAPIToken != "" {
		go func() {
			if err := container.Scheduler.RunNow(container.Jobs.SentimentRefresh); err != nil {
				log.Warn().Err(err).Msg("Initial sentiment refresh failed")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// In-flight requests get 10 seconds to finish
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	container.Scheduler.Stop()

	log.Info().Msg("Server stopped")
}
