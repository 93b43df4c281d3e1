package exchangerate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/aristath/marketadvisor/internal/clientdata"
	testutil "github.com/aristath/marketadvisor/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRate_SameCurrency(t *testing.T) {
	client := NewClient(nil, zerolog.Nop())
	rate, err := client.GetRate(context.Background(), "usd", "USD")
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)
}

func TestGetRate_CachesFreshRate(t *testing.T) {
	db, cleanup := testutil.NewTestDB(t, "cache")
	defer cleanup()
	store := clientdata.NewRepository(db.Conn())

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/USD", r.URL.Path)
		_, _ = w.Write([]byte(`{"base":"USD","rates":{"EUR":0.92,"GBP":0.79}}`))
	}))
	defer server.Close()

	client := NewClient(store, zerolog.Nop())
	client.SetBaseURL(server.URL)

	for i := 0; i < 2; i++ {
		rate, err := client.GetRate(context.Background(), "USD", "eur")
		require.NoError(t, err)
		assert.Equal(t, 0.92, rate)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetRate_StaleFallback(t *testing.T) {
	db, cleanup := testutil.NewTestDB(t, "cache")
	defer cleanup()
	store := clientdata.NewRepository(db.Conn())

	// Negative TTL would be replaced by the default, so expire the entry by hand
	ctx := context.Background()
	require.NoError(t, store.Store(ctx, clientdata.TableExchangeRates, "USD:EUR", cachedRate{Rate: 0.9}, 0))
	_, err := db.Conn().Exec(`UPDATE exchange_rates SET expires_at = 0`)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(store, zerolog.Nop())
	client.SetBaseURL(server.URL)

	rate, err := client.GetRate(ctx, "USD", "EUR")
	require.NoError(t, err)
	assert.Equal(t, 0.9, rate)

	_, err = client.GetRate(ctx, "USD", "JPY")
	assert.Error(t, err, "no stale entry to fall back to")
}

func TestGetRate_MissingCurrency(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rates":{"EUR":0.92}}`))
	}))
	defer server.Close()

	client := NewClient(nil, zerolog.Nop())
	client.SetBaseURL(server.URL)

	_, err := client.GetRate(context.Background(), "USD", "XYZ")
	assert.Error(t, err)
}
