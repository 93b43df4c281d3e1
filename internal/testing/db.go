// Package testing provides shared fixtures and fakes for package tests.
package testing

import (
	"path/filepath"
	"testing"

	"github.com/aristath/marketadvisor/internal/database"
)

// NewTestDB creates a migrated SQLite database in a per-test temp directory.
// The name selects the schema ("cache"); unknown names yield an empty database.
// The returned cleanup closes the connection and is safe to call twice.
func NewTestDB(t *testing.T, name string) (*database.DB, func()) {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: database.ProfileCache,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	closed := false
	return db, func() {
		if closed {
			return
		}
		closed = true
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
	}
}
