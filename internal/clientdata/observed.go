package clientdata

import (
	"context"
	"time"
)

// Observer receives cache lookup outcomes, e.g. for hit-rate metrics.
type Observer interface {
	ObserveCacheLookup(table string, hit bool)
}

type observedStore struct {
	inner Store
	obs   Observer
}

// WithObserver reports every successful GetIfFresh outcome to obs.
func WithObserver(s Store, obs Observer) Store {
	if obs == nil {
		return s
	}
	return &observedStore{inner: s, obs: obs}
}

func (o *observedStore) Store(ctx context.Context, table, key string, v interface{}, ttl time.Duration) error {
	return o.inner.Store(ctx, table, key, v, ttl)
}

func (o *observedStore) GetIfFresh(ctx context.Context, table, key string, out interface{}) (bool, error) {
	hit, err := o.inner.GetIfFresh(ctx, table, key, out)
	if err == nil {
		o.obs.ObserveCacheLookup(table, hit)
	}
	return hit, err
}

func (o *observedStore) Get(ctx context.Context, table, key string, out interface{}) (bool, error) {
	return o.inner.Get(ctx, table, key, out)
}

func (o *observedStore) Delete(ctx context.Context, table, key string) error {
	return o.inner.Delete(ctx, table, key)
}

func (o *observedStore) DeleteAllExpired(ctx context.Context) (map[string]int64, error) {
	return o.inner.DeleteAllExpired(ctx)
}
