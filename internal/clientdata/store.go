// Package clientdata provides the response cache for external data providers
// and computed analyses. Values are msgpack-encoded with an expiration time,
// so callers can read fresh entries first and fall back to stale ones when
// the upstream call fails.
package clientdata

import (
	"context"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Store is the cache contract shared by the SQLite and Redis backends.
// GetIfFresh and Get decode into out and report whether an entry was found.
type Store interface {
	Store(ctx context.Context, table, key string, v interface{}, ttl time.Duration) error
	GetIfFresh(ctx context.Context, table, key string, out interface{}) (bool, error)
	Get(ctx context.Context, table, key string, out interface{}) (bool, error)
	Delete(ctx context.Context, table, key string) error
	DeleteAllExpired(ctx context.Context) (map[string]int64, error)
}

// AllTables lists all cache tables for cleanup operations.
var AllTables = []string{
	TableMarketData,
	TableNewsData,
	TableTechnicalIndicators,
	TablePortfolioAnalysis,
	TableExchangeRates,
}

// validTables is a set for O(1) table name validation.
var validTables = func() map[string]bool {
	m := make(map[string]bool, len(AllTables))
	for _, t := range AllTables {
		m[t] = true
	}
	return m
}()

// validateTable ensures the table name is in our allowed list.
// Table names are interpolated into SQL, so only known names pass.
func validateTable(table string) error {
	if !validTables[table] {
		return fmt.Errorf("invalid table name: %s", table)
	}
	return nil
}

func encode(v interface{}) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data: %w", err)
	}
	return data, nil
}

func decode(data []byte, out interface{}) error {
	if err := msgpack.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}
	return nil
}

func resolveTTL(table string, ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL(table)
	}
	return ttl
}

// NopStore never holds anything. Used when CACHE_BACKEND=none.
type NopStore struct{}

func (NopStore) Store(context.Context, string, string, interface{}, time.Duration) error { return nil }
func (NopStore) GetIfFresh(context.Context, string, string, interface{}) (bool, error) {
	return false, nil
}
func (NopStore) Get(context.Context, string, string, interface{}) (bool, error) { return false, nil }
func (NopStore) Delete(context.Context, string, string) error                 { return nil }
func (NopStore) DeleteAllExpired(context.Context) (map[string]int64, error) {
	return map[string]int64{}, nil
}
