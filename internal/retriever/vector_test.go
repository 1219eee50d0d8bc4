package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/fusedex/internal/domain"
	"github.com/kailas-cloud/fusedex/internal/domain/search/filter"
	"github.com/kailas-cloud/fusedex/internal/domain/search/result"
)

type mockVectorBackend struct {
	cands  []result.Candidate
	err    error
	called bool
}

func (m *mockVectorBackend) SearchANN(_ context.Context, _ domain.Vector, _ filter.Filters, _ int) ([]result.Candidate, error) {
	m.called = true
	return m.cands, m.err
}

func testVector() domain.Vector {
	return domain.Vector{Domain: domain.DomainCode, Values: []float32{0.1, 0.2, 0.3}}
}

func TestVector_Search(t *testing.T) {
	backend := &mockVectorBackend{cands: []result.Candidate{{ArtifactID: "a", Score: 0.91}}}
	v := NewVector(backend, domain.DomainCode)

	cands, err := v.Search(context.Background(), testVector(), filter.Filters{}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(cands) != 1 || cands[0].Score != 0.91 {
		t.Errorf("unexpected candidates: %+v", cands)
	}
}

func TestVector_RejectsMissingBound(t *testing.T) {
	backend := &mockVectorBackend{}
	v := NewVector(backend, domain.DomainCode)

	if _, err := v.Search(context.Background(), testVector(), filter.Filters{}, 0); err == nil {
		t.Fatal("expected error for non-positive bound")
	}
	if backend.called {
		t.Error("backend must not be reached without a bound")
	}
}

func TestVector_RejectsEmptyVector(t *testing.T) {
	backend := &mockVectorBackend{}
	v := NewVector(backend, domain.DomainCode)

	if _, err := v.Search(context.Background(), domain.Vector{}, filter.Filters{}, 10); err == nil {
		t.Fatal("expected error for empty vector")
	}
	if backend.called {
		t.Error("backend must not be reached without an embedding")
	}
}

func TestVector_RejectsForeignDomain(t *testing.T) {
	backend := &mockVectorBackend{}
	v := NewVector(backend, domain.DomainText)

	_, err := v.Search(context.Background(), testVector(), filter.Filters{}, 10)
	if !errors.Is(err, domain.ErrDomainMismatch) {
		t.Fatalf("expected ErrDomainMismatch, got %v", err)
	}
	if backend.called {
		t.Error("backend must not see a vector from another domain")
	}
}

func TestVector_FailureWrapsRetrieverUnavailable(t *testing.T) {
	backend := &mockVectorBackend{err: errors.New("index offline")}
	v := NewVector(backend, domain.DomainCode)

	_, err := v.Search(context.Background(), testVector(), filter.Filters{}, 10)
	if !errors.Is(err, domain.ErrRetrieverUnavailable) {
		t.Fatalf("expected ErrRetrieverUnavailable, got %v", err)
	}

	var re *domain.RetrieverError
	if !errors.As(err, &re) || re.Which != result.RetrieverVector {
		t.Errorf("expected vector retriever error, got %v", err)
	}
}
