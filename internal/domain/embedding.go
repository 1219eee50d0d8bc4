package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// EmbeddingDomain identifies the embedding space a vector belongs to.
// A query vector must only be compared against corpus vectors from the
// same domain; mixed-domain scores are well-formed but meaningless.
type EmbeddingDomain string

// Supported embedding domains.
const (
	DomainText   EmbeddingDomain = "text"
	DomainCode   EmbeddingDomain = "code"
	DomainHybrid EmbeddingDomain = "hybrid"
)

// IsValid checks if the domain is one of the supported values.
func (d EmbeddingDomain) IsValid() bool {
	return d == DomainText || d == DomainCode || d == DomainHybrid
}

// Vector is an immutable embedding of a fixed text in a fixed domain.
type Vector struct {
	Domain      EmbeddingDomain
	Values      []float32
	Fingerprint string
}

// Dim returns the vector dimension.
func (v Vector) Dim() int { return len(v.Values) }

// Fingerprint returns the content address of a text: hex sha256.
// Fixed model + fixed text means the embedding never goes stale, so
// fingerprint-keyed cache entries need no invalidation.
func Fingerprint(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// Embedder is the shared text vectorization contract between layers.
// The domain is always caller-declared, never inferred from the text.
type Embedder interface {
	Embed(ctx context.Context, text string, domain EmbeddingDomain) (Vector, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ValidateDomain rejects vectors declared for a different embedding domain.
func ValidateDomain(v Vector, want EmbeddingDomain) error {
	if v.Domain != want {
		return fmt.Errorf("vector domain %q, index domain %q: %w", v.Domain, want, ErrDomainMismatch)
	}
	return nil
}
