package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/marketadvisor/internal/clientdata"
	"github.com/aristath/marketadvisor/internal/config"
	"github.com/aristath/marketadvisor/internal/database"
	"github.com/rs/zerolog"
)

const redisKeyPrefix = "marketadvisor"

// InitializeCache opens the configured cache backend and sets container.Store
func InitializeCache(container *Container, cfg *config.Config, log zerolog.Logger) error {
	var store clientdata.Store

	switch cfg.CacheBackend {
	case config.CacheBackendSQLite:
		path, err := cfg.CachePath()
		if err != nil {
			return err
		}

		// cache.db - API responses and computed analyses, rebuildable
		cacheDB, err := database.New(database.Config{
			Path:    path,
			Profile: database.ProfileCache,
			Name:    "cache",
		})
		if err != nil {
			return fmt.Errorf("failed to initialize cache database: %w", err)
		}
		if err := cacheDB.Migrate(); err != nil {
			cacheDB.Close()
			return fmt.Errorf("failed to migrate cache database: %w", err)
		}
		container.CacheDB = cacheDB
		store = clientdata.NewRepository(cacheDB.Conn())

	case config.CacheBackendRedis:
		client, err := clientdata.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		container.RedisClient = client
		store = clientdata.NewRedisStore(client, redisKeyPrefix)

	default:
		log.Warn().Msg("Cache disabled, every request goes upstream")
		store = clientdata.NopStore{}
	}

	container.Store = clientdata.WithObserver(store, container.Metrics)

	log.Info().Str("backend", cfg.CacheBackend).Msg("Cache initialized")
	return nil
}
