// Package corpus tracks the corpus generation used to version fused-result
// cache keys. Fused keys are hashes and cannot be enumerated per artifact,
// so re-indexing bumps a shared counter instead: old entries are orphaned
// and expire by TTL. Embedding entries are content-addressed and untouched.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fusedex/internal/db"
)

// counterStore is the consumer interface for the shared counter (ISP).
type counterStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
}

// Generation reads and bumps the shared corpus generation.
// When the store is unreachable, reads fall back to the last value seen
// so a tier-2 outage cannot take down search.
type Generation struct {
	store     counterStore
	key       string
	lastKnown atomic.Int64
	logger    *zap.Logger
}

// New creates a generation tracker. keyPrefix matches the store namespace.
func New(store counterStore, keyPrefix string, logger *zap.Logger) *Generation {
	return &Generation{store: store, key: keyPrefix + "corpus:gen", logger: logger}
}

// Current returns the corpus generation, falling back to the last-known
// value when the store is unreachable. A missing key is generation 0.
func (g *Generation) Current(ctx context.Context) int64 {
	data, err := g.store.Get(ctx, g.key)
	if errors.Is(err, db.ErrKeyNotFound) {
		// No re-indexing has happened yet.
		return g.lastKnown.Load()
	}
	if err != nil {
		g.logger.Warn("Failed to read corpus generation, using last known",
			zap.Int64("last_known", g.lastKnown.Load()),
			zap.Error(err),
		)
		return g.lastKnown.Load()
	}

	var gen int64
	if _, err := fmt.Sscanf(string(data), "%d", &gen); err != nil {
		g.logger.Warn("Malformed corpus generation value", zap.ByteString("value", data))
		return g.lastKnown.Load()
	}

	g.lastKnown.Store(gen)
	return gen
}

// Bump advances the generation, lazily invalidating every fused-result key.
func (g *Generation) Bump(ctx context.Context) (int64, error) {
	gen, err := g.store.IncrBy(ctx, g.key, 1)
	if err != nil {
		return 0, fmt.Errorf("bump corpus generation: %w", err)
	}
	g.lastKnown.Store(gen)
	return gen, nil
}
