package clientdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository is the SQLite-backed Store.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a new cache repository over a migrated cache database.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Store saves v with expiration = now + ttl, replacing any existing entry.
func (r *Repository) Store(ctx context.Context, table, key string, v interface{}, ttl time.Duration) error {
	if err := validateTable(table); err != nil {
		return err
	}

	data, err := encode(v)
	if err != nil {
		return err
	}

	expiresAt := r.now().Add(resolveTTL(table, ttl)).Unix()
	query := fmt.Sprintf("INSERT OR REPLACE INTO %s (cache_key, data, expires_at) VALUES (?, ?, ?)", table)

	if _, err := r.db.ExecContext(ctx, query, key, data, expiresAt); err != nil {
		return fmt.Errorf("failed to store data in %s: %w", table, err)
	}
	return nil
}

// GetIfFresh decodes the entry into out only if it has not expired.
// Use Get to retrieve stale data as a fallback when API calls fail.
func (r *Repository) GetIfFresh(ctx context.Context, table, key string, out interface{}) (bool, error) {
	if err := validateTable(table); err != nil {
		return false, err
	}

	query := fmt.Sprintf("SELECT data FROM %s WHERE cache_key = ? AND expires_at > ?", table)
	return r.fetch(ctx, table, out, query, key, r.now().Unix())
}

// Get decodes the entry into out regardless of expiration status.
func (r *Repository) Get(ctx context.Context, table, key string, out interface{}) (bool, error) {
	if err := validateTable(table); err != nil {
		return false, err
	}

	query := fmt.Sprintf("SELECT data FROM %s WHERE cache_key = ?", table)
	return r.fetch(ctx, table, out, query, key)
}

func (r *Repository) fetch(ctx context.Context, table string, out interface{}, query string, args ...interface{}) (bool, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get data from %s: %w", table, err)
	}

	if err := decode(data, out); err != nil {
		return false, fmt.Errorf("corrupt cache entry in %s: %w", table, err)
	}
	return true, nil
}

// Delete removes a specific entry.
func (r *Repository) Delete(ctx context.Context, table, key string) error {
	if err := validateTable(table); err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE cache_key = ?", table)
	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

// DeleteExpired removes all rows where expires_at < now and returns the count.
func (r *Repository) DeleteExpired(ctx context.Context, table string) (int64, error) {
	if err := validateTable(table); err != nil {
		return 0, err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE expires_at < ?", table)
	result, err := r.db.ExecContext(ctx, query, r.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired from %s: %w", table, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected for %s: %w", table, err)
	}
	return deleted, nil
}

// DeleteAllExpired removes all expired entries from all tables.
// Returns a map of table name to number of rows deleted.
func (r *Repository) DeleteAllExpired(ctx context.Context) (map[string]int64, error) {
	results := make(map[string]int64)

	for _, table := range AllTables {
		deleted, err := r.DeleteExpired(ctx, table)
		if err != nil {
			return results, err
		}
		results[table] = deleted
	}

	return results, nil
}
