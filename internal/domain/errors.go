package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery signals a malformed query: empty text, unknown mode, bad limit or filters.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrEmbeddingUnavailable signals an embedding provider failure or timeout.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrRetrieverUnavailable signals a retrieval backend failure or timeout.
	ErrRetrieverUnavailable = errors.New("retriever unavailable")
	// ErrAllRetrieversFailed signals that no retrieval signal survived. Retryable.
	ErrAllRetrieversFailed = errors.New("all retrievers failed")
	// ErrDomainMismatch signals an embedding vector used against a different embedding domain.
	ErrDomainMismatch = errors.New("embedding domain mismatch")
)

// RetrieverError wraps ErrRetrieverUnavailable with the failing retriever name.
type RetrieverError struct {
	Which string
	Err   error
}

func (e *RetrieverError) Error() string {
	return fmt.Sprintf("%s retriever: %v", e.Which, e.Err)
}

func (e *RetrieverError) Unwrap() error { return ErrRetrieverUnavailable }

// NewRetrieverError creates a retriever failure tagged with the retriever name.
func NewRetrieverError(which string, err error) error {
	return &RetrieverError{Which: which, Err: err}
}
