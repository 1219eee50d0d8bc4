package search

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/fusedex/internal/db"
	"github.com/kailas-cloud/fusedex/internal/domain"
	"github.com/kailas-cloud/fusedex/internal/domain/search/filter"
)

type mockStore struct {
	knnResult  *db.SearchResult
	knnErr     error
	bm25Result *db.SearchResult
	bm25Err    error
	lastKNN    *db.KNNQuery
	lastText   *db.TextQuery
}

func (m *mockStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.lastKNN = q
	return m.knnResult, m.knnErr
}

func (m *mockStore) SearchBM25(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	m.lastText = q
	return m.bm25Result, m.bm25Err
}

func entries(keys ...string) *db.SearchResult {
	sr := &db.SearchResult{Total: len(keys)}
	for i, k := range keys {
		sr.Entries = append(sr.Entries, db.SearchEntry{Key: k, Score: float64(len(keys) - i)})
	}
	return sr
}

func TestSearchLexical(t *testing.T) {
	store := &mockStore{bm25Result: entries("fusedex:artifact:a", "fusedex:artifact:b")}
	repo := New(store, "fusedex:")

	cands, err := repo.SearchLexical(context.Background(), "parse config", filter.Filters{}, 25)
	if err != nil {
		t.Fatalf("SearchLexical: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	if cands[0].ArtifactID != "a" || cands[1].ArtifactID != "b" {
		t.Errorf("key prefix not stripped: %+v", cands)
	}
	if store.lastText.IndexName != "fusedex:lex:idx" {
		t.Errorf("unexpected index: %s", store.lastText.IndexName)
	}
	if store.lastText.TopK != 25 {
		t.Errorf("bound not forwarded: %d", store.lastText.TopK)
	}
}

func TestSearchANN_IndexMatchesDomain(t *testing.T) {
	store := &mockStore{knnResult: entries("fusedex:artifact:x")}
	repo := New(store, "fusedex:")

	vec := domain.Vector{Domain: domain.DomainCode, Values: []float32{0.1, 0.2}}
	cands, err := repo.SearchANN(context.Background(), vec, filter.Filters{}, 10)
	if err != nil {
		t.Fatalf("SearchANN: %v", err)
	}
	if len(cands) != 1 || cands[0].ArtifactID != "x" {
		t.Errorf("unexpected candidates: %+v", cands)
	}
	if store.lastKNN.IndexName != "fusedex:vec:code:idx" {
		t.Errorf("index must match the embedding domain, got %s", store.lastKNN.IndexName)
	}
	if store.lastKNN.K != 10 {
		t.Errorf("bound not forwarded: %d", store.lastKNN.K)
	}
}

func TestSearch_ErrorsPropagate(t *testing.T) {
	store := &mockStore{
		bm25Err: &db.Error{Op: db.OpSearch, Err: errors.New("index offline")},
		knnErr:  &db.Error{Op: db.OpSearch, Err: errors.New("index offline")},
	}
	repo := New(store, "fusedex:")

	if _, err := repo.SearchLexical(context.Background(), "q", filter.Filters{}, 10); err == nil {
		t.Error("expected bm25 error to propagate")
	}
	vec := domain.Vector{Domain: domain.DomainText, Values: []float32{0.1}}
	if _, err := repo.SearchANN(context.Background(), vec, filter.Filters{}, 10); err == nil {
		t.Error("expected knn error to propagate")
	}
}

func TestSearch_EmptyResult(t *testing.T) {
	store := &mockStore{bm25Result: &db.SearchResult{}}
	repo := New(store, "fusedex:")

	cands, err := repo.SearchLexical(context.Background(), "q", filter.Filters{}, 10)
	if err != nil {
		t.Fatalf("SearchLexical: %v", err)
	}
	if cands != nil {
		t.Errorf("expected nil candidates, got %+v", cands)
	}
}
