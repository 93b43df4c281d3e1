package analytics

import (
	"context"
	"testing"

	"github.com/aristath/marketadvisor/internal/config"
	testutil "github.com/aristath/marketadvisor/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarketOverview_Snapshot(t *testing.T) {
	provider := testutil.NewMockMarketDataProvider("mock").
		SetSeries(testutil.NewPriceSeries("^GSPC", 4700, 4750, 4800)).
		SetSeries(testutil.NewPriceSeries("^DJI", 37000))

	overview := NewMarketOverview(provider, config.DefaultTables(), zerolog.Nop())
	snaps, err := overview.Snapshot(context.Background(), GroupIndices)
	require.NoError(t, err)
	require.Len(t, snaps, 4)

	assert.Equal(t, "S&P 500", snaps[0].Name)
	assert.Equal(t, 4800.0, snaps[0].Price)
	assert.InDelta(t, (4800.0/4750-1)*100, snaps[0].ChangePercent, 1e-9)
	assert.False(t, snaps[0].Date.IsZero())

	assert.Equal(t, 37000.0, snaps[1].Price)
	assert.Equal(t, 0.0, snaps[1].ChangePercent)

	assert.NotEmpty(t, snaps[2].Error, "missing instruments carry an error")
}

func TestMarketOverview_UnknownGroup(t *testing.T) {
	overview := NewMarketOverview(testutil.NewMockMarketDataProvider("mock"), config.DefaultTables(), zerolog.Nop())
	_, err := overview.Snapshot(context.Background(), "crypto")
	assert.Error(t, err)
	assert.Equal(t, []string{GroupIndices, GroupCommodities, GroupForex}, overview.Groups())
}
