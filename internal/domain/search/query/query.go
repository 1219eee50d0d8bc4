// Package query holds the validated, immutable search query.
package query

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/kailas-cloud/fusedex/internal/domain"
	"github.com/kailas-cloud/fusedex/internal/domain/search/filter"
	"github.com/kailas-cloud/fusedex/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxTextLength is the maximum allowed query text length.
	MaxTextLength = 4096
	DefaultLimit  = 10
	MaxLimit      = 100
)

// Query is a validated search request. Immutable once constructed.
type Query struct {
	text       string
	searchMode mode.Mode
	filters    filter.Filters
	limit      int
}

// New validates and normalizes search parameters.
// Defaults: mode=hybrid, limit=10. Limit above MaxLimit and limit<=0
// (when explicitly provided) are rejected, not clamped.
func New(text string, m mode.Mode, filters filter.Filters, limit int) (Query, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Query{}, fmt.Errorf("query text is required: %w", domain.ErrInvalidQuery)
	}
	if len(text) > MaxTextLength {
		return Query{}, fmt.Errorf("query text too long (max %d chars): %w", MaxTextLength, domain.ErrInvalidQuery)
	}
	if m == "" {
		m = mode.Hybrid
	}
	if !m.IsValid() {
		return Query{}, fmt.Errorf("unknown search mode %q: %w", m, domain.ErrInvalidQuery)
	}
	if limit <= 0 {
		return Query{}, fmt.Errorf("limit must be positive, got %d: %w", limit, domain.ErrInvalidQuery)
	}
	if limit > MaxLimit {
		return Query{}, fmt.Errorf("limit %d exceeds maximum %d: %w", limit, MaxLimit, domain.ErrInvalidQuery)
	}

	return Query{text: text, searchMode: m, filters: filters, limit: limit}, nil
}

// Text returns the raw query text (trimmed).
func (q *Query) Text() string { return q.text }

// Mode returns the search strategy.
func (q *Query) Mode() mode.Mode { return q.searchMode }

// Filters returns the pre-filter set.
func (q *Query) Filters() filter.Filters { return q.filters }

// Limit returns the maximum results to return.
func (q *Query) Limit() int { return q.limit }

// Fingerprint returns a deterministic hash of the query. Filters are
// canonicalized first, so logically identical queries collide regardless
// of filter argument order.
func (q *Query) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00%s", q.text, q.searchMode, q.limit, q.filters.Canonical())
	return hex.EncodeToString(h.Sum(nil))
}
