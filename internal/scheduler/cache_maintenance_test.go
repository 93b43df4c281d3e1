package scheduler

import (
	"testing"

	testutil "github.com/aristath/marketadvisor/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestCacheMaintenanceJob(t *testing.T) {
	db, cleanup := testutil.NewTestDB(t, "cache")
	defer cleanup()

	job := NewCacheMaintenanceJob(db, zerolog.Nop())
	assert.Equal(t, "cache_maintenance", job.Name())
	assert.NoError(t, job.Run())
}

func TestCacheMaintenanceJob_ClosedDatabase(t *testing.T) {
	db, cleanup := testutil.NewTestDB(t, "cache")
	cleanup()

	job := NewCacheMaintenanceJob(db, zerolog.Nop())
	assert.Error(t, job.Run())
}
