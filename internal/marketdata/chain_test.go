package marketdata

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aristath/marketadvisor/internal/domain"
	testutil "github.com/aristath/marketadvisor/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu     sync.Mutex
	calls  map[string]int
	fails  map[string]int
	states map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{calls: map[string]int{}, fails: map[string]int{}, states: map[string]int{}}
}

func (o *recordingObserver) ObserveProviderCall(provider string, err error, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls[provider]++
	if err != nil {
		o.fails[provider]++
	}
}

func (o *recordingObserver) ObserveBreakerState(provider string, state int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states[provider] = state
}

func TestChain_FallsThroughToNextProvider(t *testing.T) {
	primary := testutil.NewMockMarketDataProvider("primary")
	secondary := testutil.NewMockMarketDataProvider("secondary").
		SetSeries(testutil.NewPriceSeries("XLK", 100, 101, 102))

	obs := newRecordingObserver()
	chain := NewChain(zerolog.Nop(), obs, DefaultBreakerConfig(), primary, secondary)

	series, err := chain.GetDailyHistory(context.Background(), "XLK", "1y")
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 101, 102}, series.Closes())
	assert.Equal(t, 1, primary.Calls("XLK"))
	assert.Equal(t, 1, obs.calls["primary"])
	assert.Equal(t, 1, obs.fails["primary"])
	assert.Equal(t, 0, obs.fails["secondary"])
}

func TestChain_AllNoData(t *testing.T) {
	chain := NewChain(zerolog.Nop(), nil, DefaultBreakerConfig(),
		testutil.NewMockMarketDataProvider("a"),
		testutil.NewMockMarketDataProvider("b").SetError("XLK", domain.ErrInvalidSymbol),
	)

	_, err := chain.GetDailyHistory(context.Background(), "XLK", "1y")
	assert.True(t, errors.Is(err, domain.ErrNoData))
}

func TestChain_RealFailureIsNotNoData(t *testing.T) {
	boom := errors.New("connection reset")
	chain := NewChain(zerolog.Nop(), nil, DefaultBreakerConfig(),
		testutil.NewMockMarketDataProvider("a").SetError("XLK", boom),
		testutil.NewMockMarketDataProvider("b"),
	)

	_, err := chain.GetDailyHistory(context.Background(), "XLK", "1y")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNoData))
	assert.True(t, errors.Is(err, boom))
}

func TestChain_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	flaky := testutil.NewMockMarketDataProvider("flaky").SetError("SPY", errors.New("502"))
	backup := testutil.NewMockMarketDataProvider("backup").
		SetSeries(testutil.NewPriceSeries("SPY", 1, 2))

	obs := newRecordingObserver()
	cfg := BreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Hour, ConsecutiveFailures: 3}
	chain := NewChain(zerolog.Nop(), obs, cfg, flaky, backup)

	for i := 0; i < 5; i++ {
		_, err := chain.GetDailyHistory(context.Background(), "SPY", "1y")
		require.NoError(t, err)
	}

	assert.Equal(t, 3, flaky.Calls("SPY"), "open breaker stops calling the provider")
	assert.Equal(t, 5, backup.Calls("SPY"))
	assert.Equal(t, "open", chain.BreakerStates()["flaky"])
	assert.Equal(t, "closed", chain.BreakerStates()["backup"])
	assert.Equal(t, 2, obs.states["flaky"])
}

func TestChain_NoDataDoesNotTripBreaker(t *testing.T) {
	empty := testutil.NewMockMarketDataProvider("empty")
	cfg := BreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Hour, ConsecutiveFailures: 2}
	chain := NewChain(zerolog.Nop(), nil, cfg, empty)

	for i := 0; i < 5; i++ {
		_, err := chain.GetDailyHistory(context.Background(), "NOPE", "1y")
		assert.True(t, errors.Is(err, domain.ErrNoData))
	}
	assert.Equal(t, 5, empty.Calls("NOPE"))
	assert.Equal(t, "closed", chain.BreakerStates()["empty"])
}

func TestChain_EmptyAndCancelled(t *testing.T) {
	_, err := NewChain(zerolog.Nop(), nil, DefaultBreakerConfig()).GetDailyHistory(context.Background(), "SPY", "1y")
	assert.True(t, errors.Is(err, domain.ErrNotConfigured))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := testutil.NewMockMarketDataProvider("p").SetSeries(testutil.NewPriceSeries("SPY", 1, 2))
	_, err = NewChain(zerolog.Nop(), nil, DefaultBreakerConfig(), p).GetDailyHistory(ctx, "SPY", "1y")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, p.Calls("SPY"))
}
