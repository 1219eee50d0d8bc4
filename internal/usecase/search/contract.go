package search

import (
	"context"
	"time"

	"github.com/kailas-cloud/fusedex/internal/domain"
	"github.com/kailas-cloud/fusedex/internal/domain/search/filter"
	"github.com/kailas-cloud/fusedex/internal/domain/search/result"
)

// LexicalRetriever is the text-matching retrieval capability.
type LexicalRetriever interface {
	Search(ctx context.Context, queryText string, filters filter.Filters, limit int) ([]result.Candidate, error)
}

// VectorRetriever is the ANN retrieval capability.
type VectorRetriever interface {
	Search(ctx context.Context, vec domain.Vector, filters filter.Filters, limit int) ([]result.Candidate, error)
}

// EmbeddingResolver maps query text to a vector in the declared domain.
type EmbeddingResolver interface {
	Resolve(ctx context.Context, text string, d domain.EmbeddingDomain) (domain.Vector, error)
}

// ResultCache is the whole-query result cache (the cascade). Failures are
// absorbed below this boundary; Get only reports hit or miss.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// GenerationTracker versions fused-result keys against corpus re-indexing.
type GenerationTracker interface {
	Current(ctx context.Context) int64
	Bump(ctx context.Context) (int64, error)
}
