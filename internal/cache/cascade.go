package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fusedex/internal/db"
	"github.com/kailas-cloud/fusedex/internal/metrics"
)

const defaultWriteTimeout = 2 * time.Second

// Options tunes a cascade instance.
type Options struct {
	// BackfillTTL is applied when promoting a hit into faster tiers.
	BackfillTTL time.Duration
	// WriteTimeout bounds detached backfill writes.
	WriteTimeout time.Duration
}

// Cascade walks an ordered list of tiers in increasing-latency order.
// A hit below the fastest tier is promoted asynchronously; tier failures
// are logged, counted and swallowed; callers only ever see hit or miss.
type Cascade struct {
	name      string
	tiers     []Tier
	opts      Options
	logger    *zap.Logger
	backfills sync.WaitGroup
}

// NewCascade creates a cascade. name labels the instance in metrics
// ("results", "embeddings").
func NewCascade(name string, tiers []Tier, opts Options, logger *zap.Logger) *Cascade {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	return &Cascade{name: name, tiers: tiers, opts: opts, logger: logger}
}

// Get walks the tiers and returns the first hit.
func (c *Cascade) Get(ctx context.Context, key string) ([]byte, bool) {
	for i, tier := range c.tiers {
		value, err := tier.Get(ctx, key)
		switch {
		case err == nil:
			metrics.CacheTierTotal.WithLabelValues(c.name, tier.Name(), "hit").Inc()
			if i > 0 {
				c.backfill(key, value, c.tiers[:i])
			}
			return value, true
		case errors.Is(err, db.ErrKeyNotFound):
			metrics.CacheTierTotal.WithLabelValues(c.name, tier.Name(), "miss").Inc()
		default:
			metrics.CacheTierTotal.WithLabelValues(c.name, tier.Name(), "error").Inc()
			c.logger.Warn("Cache tier unavailable, treating as miss",
				zap.String("cache", c.name),
				zap.String("tier", tier.Name()),
				zap.Error(err),
			)
		}
	}
	return nil, false
}

// Set writes the fastest tier synchronously and the slower tiers
// best-effort. Failures never fail the caller's operation.
func (c *Cascade) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	for _, tier := range c.tiers {
		if err := tier.Set(ctx, key, value, ttl); err != nil {
			c.logger.Warn("Cache tier write failed",
				zap.String("cache", c.name),
				zap.String("tier", tier.Name()),
				zap.Error(err),
			)
		}
	}
}

// Delete removes the key from every tier, best-effort.
func (c *Cascade) Delete(ctx context.Context, key string) {
	for _, tier := range c.tiers {
		if err := tier.Delete(ctx, key); err != nil {
			c.logger.Warn("Cache tier delete failed",
				zap.String("cache", c.name),
				zap.String("tier", tier.Name()),
				zap.Error(err),
			)
		}
	}
}

// backfill promotes a value into faster tiers off the request path.
// Detached from the request context: a cancelled caller must not abort
// the promotion mid-write.
func (c *Cascade) backfill(key string, value []byte, faster []Tier) {
	c.backfills.Add(1)
	go func() {
		defer c.backfills.Done()

		ctx, cancel := context.WithTimeout(context.Background(), c.opts.WriteTimeout)
		defer cancel()

		for _, tier := range faster {
			if err := tier.Set(ctx, key, value, c.opts.BackfillTTL); err != nil {
				c.logger.Warn("Cache backfill failed",
					zap.String("cache", c.name),
					zap.String("tier", tier.Name()),
					zap.Error(err),
				)
			}
		}
	}()
}

// Wait blocks until in-flight backfills settle. Used by shutdown and tests.
func (c *Cascade) Wait() {
	c.backfills.Wait()
}
