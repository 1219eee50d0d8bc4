package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fusedex/internal/domain"
	"github.com/kailas-cloud/fusedex/internal/domain/search/filter"
	"github.com/kailas-cloud/fusedex/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/fusedex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/fusedex/internal/usecase/search"
)

// --- Stubs for the search service collaborators ---

type stubLexical struct {
	cands []result.Candidate
	err   error
}

func (s *stubLexical) Search(_ context.Context, _ string, _ filter.Filters, _ int) ([]result.Candidate, error) {
	return s.cands, s.err
}

type stubVector struct {
	cands []result.Candidate
	err   error
}

func (s *stubVector) Search(_ context.Context, _ domain.Vector, _ filter.Filters, _ int) ([]result.Candidate, error) {
	return s.cands, s.err
}

type stubResolver struct{ err error }

func (s *stubResolver) Resolve(_ context.Context, text string, d domain.EmbeddingDomain) (domain.Vector, error) {
	if s.err != nil {
		return domain.Vector{}, s.err
	}
	return domain.Vector{Domain: d, Values: []float32{0.1, 0.2}, Fingerprint: domain.Fingerprint(text)}, nil
}

type stubCache struct{}

func (stubCache) Get(_ context.Context, _ string) ([]byte, bool)              { return nil, false }
func (stubCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) {}

type stubGen struct{ current int64 }

func (s *stubGen) Current(_ context.Context) int64 { return s.current }
func (s *stubGen) Bump(_ context.Context) (int64, error) {
	s.current++
	return s.current, nil
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(_ context.Context) error { return s.err }

type stubEmbChecker struct{ err error }

func (s stubEmbChecker) HealthCheck(_ context.Context) error { return s.err }

type serverFixture struct {
	lexical *stubLexical
	vector  *stubVector
	embed   *stubResolver
	pinger  *stubPinger
	router  *chi.Mux
}

func newServerFixture() *serverFixture {
	f := &serverFixture{
		lexical: &stubLexical{cands: []result.Candidate{{ArtifactID: "a", Score: 2}, {ArtifactID: "b", Score: 1}}},
		vector:  &stubVector{cands: []result.Candidate{{ArtifactID: "b", Score: 0.9}}},
		embed:   &stubResolver{},
		pinger:  &stubPinger{},
	}
	searchSvc := searchuc.New(f.lexical, f.vector, f.embed, stubCache{}, &stubGen{}, searchuc.Config{}, zap.NewNop())
	healthSvc := healthuc.New(f.pinger, stubEmbChecker{})

	f.router = chi.NewRouter()
	NewServer(searchSvc, healthSvc, zap.NewNop()).Routes(f.router)
	return f
}

func (f *serverFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestHandleSearch_OK(t *testing.T) {
	f := newServerFixture()

	rec := f.do(t, http.MethodPost, "/v1/search", `{"query": "parse config"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp searchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Degraded {
		t.Error("response should not be degraded")
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 fused results, got %d", len(resp.Results))
	}
	if resp.Results[0].ArtifactID != "b" {
		t.Errorf("b appears in both rankings and should lead, got %s", resp.Results[0].ArtifactID)
	}
}

func TestHandleSearch_BadRequests(t *testing.T) {
	f := newServerFixture()

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"query": `},
		{"empty query", `{"query": ""}`},
		{"unknown mode", `{"query": "q", "mode": "semantic"}`},
		{"zero limit", `{"query": "q", "limit": 0}`},
		{"negative limit", `{"query": "q", "limit": -1}`},
		{"limit above max", `{"query": "q", "limit": 101}`},
		{"blank filter value", `{"query": "q", "filters": {"languages": [" "]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/v1/search", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandleSearch_MissingLimitDefaults(t *testing.T) {
	f := newServerFixture()
	f.lexical.cands = nil
	f.vector.cands = nil

	rec := f.do(t, http.MethodPost, "/v1/search", `{"query": "parse config"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("absent limit must default, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleSearch_DegradedFlagExposed(t *testing.T) {
	f := newServerFixture()
	f.embed.err = domain.ErrEmbeddingUnavailable

	rec := f.do(t, http.MethodPost, "/v1/search", `{"query": "parse config"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp searchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Degraded {
		t.Error("expected degraded flag")
	}
}

func TestHandleSearch_AllBackendsDown(t *testing.T) {
	f := newServerFixture()
	f.lexical.err = errors.New("down")
	f.vector.err = errors.New("down")

	rec := f.do(t, http.MethodPost, "/v1/search", `{"query": "parse config"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("total failure should advertise Retry-After")
	}

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Code != "search_unavailable" {
		t.Errorf("unexpected error code %q", resp.Code)
	}
}

func TestHandleSearch_VectorModeEmbeddingDown(t *testing.T) {
	f := newServerFixture()
	f.embed.err = domain.ErrEmbeddingUnavailable

	rec := f.do(t, http.MethodPost, "/v1/search", `{"query": "parse config", "mode": "vector"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleInvalidate(t *testing.T) {
	f := newServerFixture()

	rec := f.do(t, http.MethodPost, "/v1/invalidate", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp invalidateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Generation != 1 {
		t.Errorf("expected generation 1, got %d", resp.Generation)
	}
}

func TestHandleHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		f := newServerFixture()
		rec := f.do(t, http.MethodGet, "/healthz", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"ok"`) {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("store down", func(t *testing.T) {
		f := newServerFixture()
		f.pinger.err = errors.New("connection refused")
		rec := f.do(t, http.MethodGet, "/healthz", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})
}
