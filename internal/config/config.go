// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/marketadvisor/internal/utils"
	"github.com/joho/godotenv"
)

// Cache backends
const (
	CacheBackendSQLite = "sqlite"
	CacheBackendRedis  = "redis"
	CacheBackendNone   = "none"
)

const sqliteURLPrefix = "sqlite:///"

// Config holds application configuration
type Config struct {
	Port     int
	LogLevel string
	DevMode  bool

	DatabaseURL  string // sqlite:///path/to/file.db
	CacheBackend string // sqlite, redis or none
	RedisURL     string

	NewsAPIKey          string
	NewsSources         []string // optional domain filter for news searches
	AlphaVantageAPIKey  string
	HuggingFaceAPIToken string
	SentimentModel      string
	OpenAIAPIKey        string
	OpenAIModel         string
	OpenAIBaseURL       string

	MaxRetries       int
	RetryDelay       time.Duration
	ScrapingInterval time.Duration

	TablesFile string
	Tables     Tables
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnvAsInt("ADVISOR_PORT", 8001),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),

		DatabaseURL:  getEnv("DATABASE_URL", "sqlite:///./data/stock_analyzer.db"),
		CacheBackend: strings.ToLower(getEnv("CACHE_BACKEND", CacheBackendSQLite)),
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379/0"),

		NewsAPIKey:          getEnv("NEWS_API_KEY", ""),
		NewsSources:         utils.ParseCSV(getEnv("NEWS_SOURCES", "")),
		AlphaVantageAPIKey:  getEnv("ALPHA_VANTAGE_API_KEY", ""),
		HuggingFaceAPIToken: getEnv("HUGGINGFACE_API_TOKEN", ""),
		SentimentModel:      getEnv("SENTIMENT_MODEL", "finiteautomata/bertweet-base-sentiment-analysis"),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", ""),

		MaxRetries:       getEnvAsInt("MAX_RETRIES", 3),
		RetryDelay:       getEnvAsDuration("RETRY_DELAY", 5*time.Second),
		ScrapingInterval: getEnvAsDuration("SCRAPING_INTERVAL", time.Hour),

		TablesFile: getEnv("ADVISOR_TABLES_FILE", ""),
	}

	tables, err := LoadTables(cfg.TablesFile)
	if err != nil {
		return nil, err
	}
	cfg.Tables = tables

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}

	switch c.CacheBackend {
	case CacheBackendSQLite:
		if _, err := c.CachePath(); err != nil {
			return err
		}
	case CacheBackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when CACHE_BACKEND=redis")
		}
	case CacheBackendNone:
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend)
	}

	if c.MaxRetries < 1 {
		return fmt.Errorf("MAX_RETRIES must be at least 1")
	}
	if c.ScrapingInterval < time.Minute {
		return fmt.Errorf("SCRAPING_INTERVAL must be at least one minute")
	}

	return c.Tables.Validate()
}

// CachePath resolves DATABASE_URL to an absolute SQLite file path.
// A bare path without the sqlite:/// prefix is accepted as-is.
func (c *Config) CachePath() (string, error) {
	path := strings.TrimPrefix(c.DatabaseURL, sqliteURLPrefix)
	if path == "" {
		return "", fmt.Errorf("DATABASE_URL has no path")
	}
	if strings.Contains(path, "://") {
		return "", fmt.Errorf("unsupported DATABASE_URL %q: only sqlite is supported", c.DatabaseURL)
	}
	if strings.HasPrefix(path, "file:") {
		return path, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve database path: %w", err)
	}
	return abs, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90s", "1h") or plain seconds ("3600").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
