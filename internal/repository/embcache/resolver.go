// Package embcache resolves query embeddings through the cache cascade.
// Entries are keyed by (domain, text fingerprint): a fixed model's
// embedding of fixed text never changes, so entries never go stale.
package embcache

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fusedex/internal/domain"
)

const keyPrefix = "emb:"

// cascade is the consumer interface for the embedding cache (ISP).
type cascade interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// Resolver maps (text, domain) to a vector, consulting the cascade before
// the embedding provider. The domain is the single enforcement point of
// embedding-space consistency and is always caller-declared.
type Resolver struct {
	inner  domain.Embedder
	cache  cascade
	ttl    time.Duration
	dims   map[domain.EmbeddingDomain]int
	logger *zap.Logger
}

// New creates a cache-backed resolver. dims holds the expected dimension
// per domain; cached entries of a different dimension are discarded.
// ttl<=0 caches vectors without expiry.
func New(
	inner domain.Embedder,
	cache cascade,
	ttl time.Duration,
	dims map[domain.EmbeddingDomain]int,
	logger *zap.Logger,
) *Resolver {
	return &Resolver{inner: inner, cache: cache, ttl: ttl, dims: dims, logger: logger}
}

// Resolve returns the embedding of text in the given domain.
// Provider failure propagates as domain.ErrEmbeddingUnavailable, never a
// zero vector, which would score plausibly but mean nothing.
func (r *Resolver) Resolve(ctx context.Context, text string, d domain.EmbeddingDomain) (domain.Vector, error) {
	if !d.IsValid() {
		return domain.Vector{}, fmt.Errorf("unknown embedding domain %q", d)
	}

	fp := domain.Fingerprint(text)
	key := cacheKey(d, fp)

	if data, ok := r.cache.Get(ctx, key); ok {
		if vec, ok := r.decode(key, d, data); ok {
			return domain.Vector{Domain: d, Values: vec, Fingerprint: fp}, nil
		}
	}

	vec, err := r.inner.Embed(ctx, text, d)
	if err != nil {
		return domain.Vector{}, fmt.Errorf("embed query: %w", err)
	}

	r.cache.Set(ctx, key, vectorToCacheBytes(vec.Values), r.ttl)
	return vec, nil
}

// decode parses a cached entry, treating corruption or a dimension change
// (model swap) as a miss.
func (r *Resolver) decode(key string, d domain.EmbeddingDomain, data []byte) ([]float32, bool) {
	vec, err := bytesToVector(data)
	if err != nil {
		r.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if want := r.dims[d]; want > 0 && len(vec) != want {
		r.logger.Warn("Cached embedding dimension mismatch, discarding",
			zap.String("key", key),
			zap.Int("got", len(vec)),
			zap.Int("want", want),
		)
		return nil, false
	}
	return vec, true
}

func cacheKey(d domain.EmbeddingDomain, fingerprint string) string {
	return keyPrefix + string(d) + ":" + fingerprint
}

func vectorToCacheBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding cache data: len=%d", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
