package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/fusedex/internal/domain"
	"github.com/kailas-cloud/fusedex/internal/domain/search/filter"
	"github.com/kailas-cloud/fusedex/internal/domain/search/result"
)

type mockLexicalBackend struct {
	cands    []result.Candidate
	err      error
	lastText string
}

func (m *mockLexicalBackend) SearchLexical(_ context.Context, queryText string, _ filter.Filters, _ int) ([]result.Candidate, error) {
	m.lastText = queryText
	return m.cands, m.err
}

func TestLexical_Search(t *testing.T) {
	backend := &mockLexicalBackend{cands: []result.Candidate{{ArtifactID: "a", Score: 2.5}}}
	l := NewLexical(backend)

	cands, err := l.Search(context.Background(), "parse config", filter.Filters{}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(cands) != 1 || cands[0].ArtifactID != "a" {
		t.Errorf("unexpected candidates: %+v", cands)
	}
}

func TestLexical_NormalizesWhitespace(t *testing.T) {
	backend := &mockLexicalBackend{}
	l := NewLexical(backend)

	if _, err := l.Search(context.Background(), "  parse \t\n  config ", filter.Filters{}, 10); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if backend.lastText != "parse config" {
		t.Errorf("whitespace not collapsed: %q", backend.lastText)
	}
}

func TestLexical_FailureWrapsRetrieverUnavailable(t *testing.T) {
	backend := &mockLexicalBackend{err: errors.New("index offline")}
	l := NewLexical(backend)

	_, err := l.Search(context.Background(), "query", filter.Filters{}, 10)
	if !errors.Is(err, domain.ErrRetrieverUnavailable) {
		t.Fatalf("expected ErrRetrieverUnavailable, got %v", err)
	}

	var re *domain.RetrieverError
	if !errors.As(err, &re) || re.Which != result.RetrieverLexical {
		t.Errorf("expected lexical retriever error, got %v", err)
	}
}
