package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// Thresholds above which OperationTimer escalates the log level.
const (
	SlowOperationInfo = 10 * time.Second
	SlowOperationWarn = 30 * time.Second
)

// OperationTimer provides a defer-friendly way to measure operation duration.
// The returned func logs and returns the elapsed time.
//
// Usage:
//
//	defer utils.OperationTimer("sector_performance", log)()
func OperationTimer(operation string, log zerolog.Logger) func() time.Duration {
	start := time.Now()

	return func() time.Duration {
		duration := time.Since(start)

		log.Debug().
			Str("operation", operation).
			Dur("duration_ms", duration).
			Msg("Operation completed")

		switch {
		case duration > SlowOperationWarn:
			log.Warn().
				Str("operation", operation).
				Dur("duration", duration).
				Msg("Slow operation detected")
		case duration > SlowOperationInfo:
			log.Info().
				Str("operation", operation).
				Dur("duration", duration).
				Msg("Operation took longer than expected")
		}

		return duration
	}
}
