package clientdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StaleRetention is how long Redis keeps an entry past its freshness window,
// so Get can still serve it when upstream calls fail.
const StaleRetention = 24 * time.Hour

// envelope carries the logical expiry alongside the payload; Redis' own key
// TTL covers the stale retention period on top of it.
type envelope struct {
	ExpiresAt int64  `msgpack:"e"`
	Data      []byte `msgpack:"d"`
}

// RedisStore is the Redis-backed Store. Expired keys are evicted by Redis,
// so DeleteAllExpired has nothing to do.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
}

// NewRedisStore wraps a go-redis client. Keys are "<prefix>:<table>:<key>".
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

// NewRedisClient builds a client from a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (s *RedisStore) redisKey(table, key string) string {
	return s.prefix + ":" + table + ":" + key
}

// Store saves v with a logical expiry of now + ttl.
func (s *RedisStore) Store(ctx context.Context, table, key string, v interface{}, ttl time.Duration) error {
	if err := validateTable(table); err != nil {
		return err
	}

	payload, err := encode(v)
	if err != nil {
		return err
	}

	ttl = resolveTTL(table, ttl)
	blob, err := encode(envelope{ExpiresAt: s.now().Add(ttl).Unix(), Data: payload})
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.redisKey(table, key), blob, ttl+StaleRetention).Err(); err != nil {
		return fmt.Errorf("failed to store data in %s: %w", table, err)
	}
	return nil
}

// GetIfFresh decodes the entry into out only if its logical expiry is in the future.
func (s *RedisStore) GetIfFresh(ctx context.Context, table, key string, out interface{}) (bool, error) {
	return s.get(ctx, table, key, out, true)
}

// Get decodes the entry into out regardless of its logical expiry.
func (s *RedisStore) Get(ctx context.Context, table, key string, out interface{}) (bool, error) {
	return s.get(ctx, table, key, out, false)
}

func (s *RedisStore) get(ctx context.Context, table, key string, out interface{}, freshOnly bool) (bool, error) {
	if err := validateTable(table); err != nil {
		return false, err
	}

	blob, err := s.client.Get(ctx, s.redisKey(table, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get data from %s: %w", table, err)
	}

	var env envelope
	if err := decode(blob, &env); err != nil {
		return false, fmt.Errorf("corrupt cache entry in %s: %w", table, err)
	}
	if freshOnly && env.ExpiresAt <= s.now().Unix() {
		return false, nil
	}
	if err := decode(env.Data, out); err != nil {
		return false, fmt.Errorf("corrupt cache entry in %s: %w", table, err)
	}
	return true, nil
}

// Delete removes a specific entry.
func (s *RedisStore) Delete(ctx context.Context, table, key string) error {
	if err := validateTable(table); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.redisKey(table, key)).Err(); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

// DeleteAllExpired is a no-op; Redis evicts keys on its own.
func (s *RedisStore) DeleteAllExpired(context.Context) (map[string]int64, error) {
	return map[string]int64{}, nil
}
