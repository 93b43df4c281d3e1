package yahoo

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aristath/marketadvisor/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartJSON = `{
  "chart": {
    "result": [{
      "timestamp": [1704205800, 1704292200, 1704378600, 1704465000],
      "indicators": {
        "quote": [{
          "open":   [470.1, 468.0, null, 467.5],
          "high":   [472.0, 469.5, null, 468.9],
          "low":    [469.0, 466.2, null, 466.0],
          "close":  [471.5, 467.3, null, null],
          "volume": [1000, 2000, null, 1500]
        }],
        "adjclose": [{"adjclose": [470.0, 466.0, null, null]}]
      }
    }],
    "error": null
  }
}`

func newTestClient(url string) *Client {
	return NewClient(zerolog.Nop(), WithBaseURL(url), WithRetry(3, time.Millisecond))
}

func TestGetDailyHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/SPY", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "1y", r.URL.Query().Get("range"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(chartJSON))
	}))
	defer server.Close()

	series, err := newTestClient(server.URL).GetDailyHistory(context.Background(), "SPY", "1y")
	require.NoError(t, err)

	assert.Equal(t, "SPY", series.Symbol)
	assert.Equal(t, "yahoo", series.Source)
	// The all-null bar is dropped; the close-only-missing bar is kept as NaN.
	require.Len(t, series.Bars, 3)
	assert.Equal(t, 471.5, series.Bars[0].Close)
	assert.Equal(t, 470.0, series.Bars[0].AdjClose)
	assert.Equal(t, int64(2000), series.Bars[1].Volume)
	assert.True(t, math.IsNaN(series.Bars[2].Close))
	assert.Equal(t, []float64{471.5, 467.3}, series.Closes())
	assert.Equal(t, time.UTC, series.Bars[0].Date.Location())
}

func TestGetDailyHistory_EscapesSymbol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/^GSPC", r.URL.Path)
		_, _ = w.Write([]byte(chartJSON))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetDailyHistory(context.Background(), "^GSPC", "5d")
	require.NoError(t, err)
}

func TestGetDailyHistory_NotFoundIsNoData(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetDailyHistory(context.Background(), "NOPE", "1y")
	assert.True(t, errors.Is(err, domain.ErrNoData))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "no-data is not retried")
}

func TestGetDailyHistory_ChartErrorInBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[],"error":{"code":"Not Found","description":"gone"}}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetDailyHistory(context.Background(), "GONE", "1y")
	assert.True(t, errors.Is(err, domain.ErrNoData))
}

func TestGetDailyHistory_RetriesTransientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(chartJSON))
	}))
	defer server.Close()

	series, err := newTestClient(server.URL).GetDailyHistory(context.Background(), "SPY", "1y")
	require.NoError(t, err)
	assert.Len(t, series.Bars, 3)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetDailyHistory_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetDailyHistory(context.Background(), "SPY", "1y")
	assert.True(t, errors.Is(err, domain.ErrRateLimited))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetDailyHistory_EmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[{"timestamp":[],"indicators":{"quote":[{}]}}],"error":null}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetDailyHistory(context.Background(), "SPY", "1y")
	assert.True(t, errors.Is(err, domain.ErrNoData))
}

func TestGetDailyHistory_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(zerolog.Nop(), WithBaseURL(server.URL), WithRetry(3, time.Hour))
	_, err := client.GetDailyHistory(ctx, "SPY", "1y")
	assert.Error(t, err)
}

func TestName(t *testing.T) {
	assert.Equal(t, "yahoo", NewClient(zerolog.Nop()).Name())
}

func TestGetQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1d", r.URL.Query().Get("range"))
		_, _ = w.Write([]byte(`{"chart":{"result":[{
			"meta":{"symbol":"SPY","currency":"USD","exchangeName":"PCX",
				"regularMarketPrice":505.0,"regularMarketTime":1704465000,"chartPreviousClose":500.0},
			"timestamp":[1704465000],
			"indicators":{"quote":[{"close":[505.0]}]}}],"error":null}}`))
	}))
	defer server.Close()

	quote, err := newTestClient(server.URL).GetQuote(context.Background(), "SPY")
	require.NoError(t, err)

	assert.Equal(t, "USD", quote.Currency)
	assert.Equal(t, 505.0, quote.Price)
	assert.Equal(t, 500.0, quote.PreviousClose)
	assert.InDelta(t, 1.0, quote.ChangePercent, 1e-9)
	assert.False(t, quote.MarketTime.IsZero())
}

func TestGetQuote_NoPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"SPY"}}],"error":null}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetQuote(context.Background(), "SPY")
	assert.True(t, errors.Is(err, domain.ErrNoData))
}
