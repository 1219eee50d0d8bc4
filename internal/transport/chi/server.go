// Package chi exposes the search pipeline over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fusedex/internal/domain"
	"github.com/kailas-cloud/fusedex/internal/domain/search/filter"
	"github.com/kailas-cloud/fusedex/internal/domain/search/mode"
	"github.com/kailas-cloud/fusedex/internal/domain/search/query"
	"github.com/kailas-cloud/fusedex/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/fusedex/internal/logger"
	healthuc "github.com/kailas-cloud/fusedex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/fusedex/internal/usecase/search"
)

// Server holds handler dependencies.
type Server struct {
	search *searchuc.Service
	health *healthuc.Service
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	return &Server{search: search, health: health, logger: logger}
}

// Routes registers the API handlers on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/search", s.handleSearch)
	r.Post("/v1/invalidate", s.handleInvalidate)
	r.Get("/healthz", s.handleHealth)
}

// --- Wire types ---

type searchRequest struct {
	Query   string        `json:"query"`
	Mode    string        `json:"mode,omitempty"`
	Limit   *int          `json:"limit,omitempty"`
	Filters searchFilters `json:"filters,omitempty"`
}

type searchFilters struct {
	Repositories []string `json:"repositories,omitempty"`
	Languages    []string `json:"languages,omitempty"`
	ChunkTypes   []string `json:"chunk_types,omitempty"`
}

type searchResponse struct {
	Results  []result.Fused `json:"results"`
	Degraded bool           `json:"degraded"`
	Timing   timingResponse `json:"timing"`
}

type timingResponse struct {
	TotalMs     float64 `json:"total_ms"`
	EmbeddingMs float64 `json:"embedding_ms"`
	LexicalMs   float64 `json:"lexical_ms"`
	VectorMs    float64 `json:"vector_ms"`
	FusionMs    float64 `json:"fusion_ms"`
	CacheHit    bool    `json:"cache_hit"`
}

type invalidateResponse struct {
	Generation int64 `json:"generation"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Handlers ---

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	filters, err := filter.New(req.Filters.Repositories, req.Filters.Languages, req.Filters.ChunkTypes)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	limit := query.DefaultLimit
	if req.Limit != nil {
		limit = *req.Limit
	}

	q, err := query.New(req.Query, mode.Mode(req.Mode), filters, limit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	resp, err := s.search.Search(r.Context(), &q)
	if err != nil {
		s.writeSearchError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Results:  resp.Results,
		Degraded: resp.Degraded,
		Timing: timingResponse{
			TotalMs:     durationMs(resp.Timing.Total),
			EmbeddingMs: durationMs(resp.Timing.Embedding),
			LexicalMs:   durationMs(resp.Timing.Lexical),
			VectorMs:    durationMs(resp.Timing.Vector),
			FusionMs:    durationMs(resp.Timing.Fusion),
			CacheHit:    resp.Timing.CacheHit,
		},
	})
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	gen, err := s.search.Invalidate(r.Context())
	if err != nil {
		s.logger.Error("Invalidation failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "invalidation_failed", "could not bump corpus generation")
		return
	}
	writeJSON(w, http.StatusOK, invalidateResponse{Generation: gen})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// writeSearchError maps domain errors to HTTP statuses. Total retrieval
// failure is retryable: the causes are transient infrastructure conditions.
func (s *Server) writeSearchError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
	case errors.Is(err, domain.ErrAllRetrieversFailed),
		errors.Is(err, domain.ErrRetrieverUnavailable),
		errors.Is(err, domain.ErrEmbeddingUnavailable):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "search_unavailable", "search backends unavailable, retry")
	case errors.Is(err, r.Context().Err()):
		// Caller went away; nothing useful to write.
		logpkg.FromContext(r.Context()).Debug("Search cancelled by caller", zap.Error(err))
	default:
		logpkg.FromContext(r.Context()).Error("Search failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
