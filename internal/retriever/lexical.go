// Package retriever wraps the retrieval backends behind one-operation
// capability interfaces so concrete backends vary independently of the
// fusion orchestrator.
package retriever

import (
	"context"
	"strings"
	"time"

	"github.com/kailas-cloud/fusedex/internal/domain"
	"github.com/kailas-cloud/fusedex/internal/domain/search/filter"
	"github.com/kailas-cloud/fusedex/internal/domain/search/result"
	"github.com/kailas-cloud/fusedex/internal/metrics"
)

// LexicalBackend is the text-matching collaborator contract.
type LexicalBackend interface {
	SearchLexical(ctx context.Context, queryText string, filters filter.Filters, limit int) ([]result.Candidate, error)
}

// Lexical is a thin stateless wrapper over the lexical backend. No internal
// caching; the orchestrator caches whole-query results at a higher level.
type Lexical struct {
	backend LexicalBackend
}

// NewLexical creates a lexical retriever.
func NewLexical(backend LexicalBackend) *Lexical {
	return &Lexical{backend: backend}
}

// Search returns candidates ordered by descending lexical relevance.
// Failures wrap domain.ErrRetrieverUnavailable tagged "lexical".
func (l *Lexical) Search(
	ctx context.Context, queryText string, filters filter.Filters, limit int,
) ([]result.Candidate, error) {
	start := time.Now()

	candidates, err := l.backend.SearchLexical(ctx, normalizeText(queryText), filters, limit)

	metrics.RetrieverDuration.WithLabelValues(result.RetrieverLexical).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.RetrieverErrorsTotal.WithLabelValues(result.RetrieverLexical).Inc()
		return nil, domain.NewRetrieverError(result.RetrieverLexical, err)
	}
	return candidates, nil
}

// normalizeText collapses runs of whitespace so equivalent spellings of a
// query hit the backend identically.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
