package di

import (
	"fmt"

	"github.com/aristath/marketadvisor/internal/config"
	"github.com/aristath/marketadvisor/internal/metrics"
	"github.com/rs/zerolog"
)

// Wire initializes all dependencies and returns a fully configured container.
// Order of operations:
// 1. Metrics registry
// 2. Cache backend
// 3. Clients and services
// 4. Jobs
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{
		Config:  cfg,
		Metrics: metrics.New(),
	}

	if err := InitializeCache(container, cfg, log); err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	if err := InitializeServices(container, cfg, log); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := RegisterJobs(container, cfg, log); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	log.Info().Msg("Dependency injection wiring completed successfully")

	return container, nil
}
