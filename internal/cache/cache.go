// Package cache implements the tiered read-through cache used across the
// search pipeline: an ordered cascade of tiers of increasing latency,
// consulted in sequence. Tier failures never surface to callers; an
// unreachable tier behaves like a miss.
package cache

import (
	"context"
	"time"
)

// Tier is a single cache layer. Get returns db.ErrKeyNotFound on a clean
// miss; any other error marks the tier as unavailable for that call.
type Tier interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
