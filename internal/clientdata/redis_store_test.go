package clientdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC)

func envelopeBlob(t *testing.T, expiresAt time.Time, v interface{}) []byte {
	t.Helper()
	payload, err := encode(v)
	require.NoError(t, err)
	blob, err := encode(envelope{ExpiresAt: expiresAt.Unix(), Data: payload})
	require.NoError(t, err)
	return blob
}

func newMockRedisStore() (*RedisStore, redismock.ClientMock) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client, "advisor")
	store.now = func() time.Time { return fixedNow }
	return store, mock
}

func TestRedisStore_Store(t *testing.T) {
	store, mock := newMockRedisStore()

	blob := envelopeBlob(t, fixedNow.Add(5*time.Minute), quote{Symbol: "SPY", Price: 500})
	mock.ExpectSet("advisor:market_data:SPY:1y", blob, 5*time.Minute+StaleRetention).SetVal("OK")

	err := store.Store(context.Background(), TableMarketData, "SPY:1y", quote{Symbol: "SPY", Price: 500}, 5*time.Minute)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_GetIfFresh(t *testing.T) {
	store, mock := newMockRedisStore()
	ctx := context.Background()

	fresh := envelopeBlob(t, fixedNow.Add(time.Minute), quote{Symbol: "GLD", Price: 200})
	mock.ExpectGet("advisor:market_data:GLD:1y").SetVal(string(fresh))

	var got quote
	found, err := store.GetIfFresh(ctx, TableMarketData, "GLD:1y", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "GLD", got.Symbol)

	stale := envelopeBlob(t, fixedNow.Add(-time.Minute), quote{Symbol: "GLD", Price: 199})
	mock.ExpectGet("advisor:market_data:GLD:1y").SetVal(string(stale))
	found, err = store.GetIfFresh(ctx, TableMarketData, "GLD:1y", &got)
	require.NoError(t, err)
	assert.False(t, found)

	mock.ExpectGet("advisor:market_data:GLD:1y").SetVal(string(stale))
	found, err = store.Get(ctx, TableMarketData, "GLD:1y", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 199.0, got.Price)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Miss(t *testing.T) {
	store, mock := newMockRedisStore()
	mock.ExpectGet("advisor:news_data:economy:3").RedisNil()

	var v []string
	found, err := store.Get(context.Background(), TableNewsData, "economy:3", &v)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Errors(t *testing.T) {
	store, mock := newMockRedisStore()
	ctx := context.Background()

	mock.ExpectGet("advisor:market_data:SPY").SetErr(errors.New("connection refused"))
	var v quote
	_, err := store.GetIfFresh(ctx, TableMarketData, "SPY", &v)
	assert.Error(t, err)

	_, err = store.Get(ctx, "bogus", "SPY", &v)
	assert.Error(t, err)

	mock.ExpectDel("advisor:market_data:SPY").SetVal(1)
	assert.NoError(t, store.Delete(ctx, TableMarketData, "SPY"))

	results, err := store.DeleteAllExpired(ctx)
	require.NoError(t, err)
	assert.Empty(t, results)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRedisClient(t *testing.T) {
	client, err := NewRedisClient("redis://localhost:6379/2")
	require.NoError(t, err)
	assert.Equal(t, 2, client.Options().DB)
	_ = client.Close()

	_, err = NewRedisClient("http://nope")
	assert.Error(t, err)
}
