// Package search adapts the FT.SEARCH store into the retrieval backends.
// Index lifecycle is owned by the external indexing pipeline; this layer
// only queries.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/fusedex/internal/db"
	"github.com/kailas-cloud/fusedex/internal/domain"
	"github.com/kailas-cloud/fusedex/internal/domain/search/filter"
	"github.com/kailas-cloud/fusedex/internal/domain/search/result"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo implements the lexical and vector retrieval backends.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a search repository. keyPrefix is the artifact key namespace
// shared with the indexing pipeline, e.g. "fusedex:".
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// SearchLexical runs a BM25 ranked search and returns candidates in
// descending lexical relevance. Deterministic given identical inputs.
func (r *Repo) SearchLexical(
	ctx context.Context, queryText string, filters filter.Filters, limit int,
) ([]result.Candidate, error) {
	q := &db.TextQuery{
		IndexName: r.lexicalIndex(),
		Query:     queryText,
		Filters:   filters,
		TopK:      limit,
	}

	sr, err := r.store.SearchBM25(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search bm25: %w", err)
	}

	return r.toCandidates(sr), nil
}

// SearchANN runs a KNN search against the index matching the vector's
// embedding domain. The bound is mandatory; an unbounded KNN degrades to
// a near-linear scan.
func (r *Repo) SearchANN(
	ctx context.Context, vec domain.Vector, filters filter.Filters, limit int,
) ([]result.Candidate, error) {
	q := &db.KNNQuery{
		IndexName: r.vectorIndex(vec.Domain),
		Filters:   filters,
		Vector:    vec.Values,
		K:         limit,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", vec.Domain, err)
	}

	return r.toCandidates(sr), nil
}

func (r *Repo) lexicalIndex() string {
	return r.keyPrefix + "lex:idx"
}

func (r *Repo) vectorIndex(d domain.EmbeddingDomain) string {
	return fmt.Sprintf("%svec:%s:idx", r.keyPrefix, d)
}

// toCandidates strips the key namespace and preserves backend order.
func (r *Repo) toCandidates(sr *db.SearchResult) []result.Candidate {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	prefix := r.keyPrefix + "artifact:"
	candidates := make([]result.Candidate, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		candidates = append(candidates, result.Candidate{
			ArtifactID: strings.TrimPrefix(entry.Key, prefix),
			Score:      entry.Score,
		})
	}
	return candidates
}
