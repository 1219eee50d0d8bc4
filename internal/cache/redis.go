package cache

import (
	"context"
	"time"
)

// kvStore is the consumer interface for the shared networked tier (ISP).
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Redis is the shared networked tier backed by a db KV store. TTL expiry
// is server-side; memory pressure eviction is the server's policy.
type Redis struct {
	store kvStore
}

// NewRedis creates a networked tier over the given KV store.
func NewRedis(store kvStore) *Redis {
	return &Redis{store: store}
}

// Name implements Tier.
func (r *Redis) Name() string { return "redis" }

// Get returns the cached value. Misses surface as db.ErrKeyNotFound,
// connection failures as the store's error.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	return r.store.Get(ctx, key)
}

// Set stores a value; ttl<=0 means no expiry.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl > 0 {
		return r.store.SetWithTTL(ctx, key, value, ttl)
	}
	return r.store.Set(ctx, key, value)
}

// Delete removes a key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.store.Del(ctx, key)
}
