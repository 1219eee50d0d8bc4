package retriever

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/fusedex/internal/domain"
	"github.com/kailas-cloud/fusedex/internal/domain/search/filter"
	"github.com/kailas-cloud/fusedex/internal/domain/search/result"
	"github.com/kailas-cloud/fusedex/internal/metrics"
)

// VectorBackend is the approximate-nearest-neighbor collaborator contract.
type VectorBackend interface {
	SearchANN(ctx context.Context, vec domain.Vector, filters filter.Filters, limit int) ([]result.Candidate, error)
}

// Vector is a thin wrapper over the ANN backend for one embedding domain's
// index. Vectors declared for any other domain are rejected before the
// backend call; cross-domain scores are well-formed but meaningless.
type Vector struct {
	backend VectorBackend
	space   domain.EmbeddingDomain
}

// NewVector creates a vector retriever serving the given embedding domain.
func NewVector(backend VectorBackend, space domain.EmbeddingDomain) *Vector {
	return &Vector{backend: backend, space: space}
}

// Search returns candidates ordered by descending similarity. The bound is
// mandatory: an unbounded ANN call degrades to a near-linear scan.
// Failures wrap domain.ErrRetrieverUnavailable tagged "vector".
func (v *Vector) Search(
	ctx context.Context, vec domain.Vector, filters filter.Filters, limit int,
) ([]result.Candidate, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("vector search requires a positive result bound, got %d", limit)
	}
	if len(vec.Values) == 0 {
		return nil, fmt.Errorf("vector search requires a resolved embedding")
	}
	if err := domain.ValidateDomain(vec, v.space); err != nil {
		return nil, err
	}

	start := time.Now()

	candidates, err := v.backend.SearchANN(ctx, vec, filters, limit)

	metrics.RetrieverDuration.WithLabelValues(result.RetrieverVector).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.RetrieverErrorsTotal.WithLabelValues(result.RetrieverVector).Inc()
		return nil, domain.NewRetrieverError(result.RetrieverVector, err)
	}
	return candidates, nil
}
