package domain

import "errors"

var (
	// ErrNoData is returned when a provider has nothing for the requested key
	ErrNoData = errors.New("requested data not found")
	// ErrRateLimited is returned when an upstream API refuses further calls
	ErrRateLimited = errors.New("API rate limit exceeded")
	// ErrInvalidSymbol is returned for malformed ticker symbols
	ErrInvalidSymbol = errors.New("invalid stock symbol")
	// ErrNotConfigured is returned by clients that are missing credentials
	ErrNotConfigured = errors.New("client not configured")
)
