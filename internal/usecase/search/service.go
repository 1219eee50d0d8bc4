// Package search implements the fusion orchestrator: it fans out to the
// lexical and vector retrievers, merges their rankings via Reciprocal Rank
// Fusion, and shields callers behind the whole-query cache.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/fusedex/internal/domain"
	"github.com/kailas-cloud/fusedex/internal/domain/search/mode"
	"github.com/kailas-cloud/fusedex/internal/domain/search/query"
	"github.com/kailas-cloud/fusedex/internal/domain/search/result"
	"github.com/kailas-cloud/fusedex/internal/metrics"
)

// Config holds configuration-level fusion and orchestration knobs.
type Config struct {
	RRFK          int
	WeightLexical float64
	WeightVector  float64
	// TopK is the candidate depth requested from each retriever; fusion
	// sees a deeper pool than the returned page.
	TopK int
	// MaxFusionDepth caps the rank depth eligible to contribute (0 = uncapped).
	MaxFusionDepth int
	// QueryDomain is the embedding domain of the corpus this deployment
	// searches; declared here, never inferred from the query.
	QueryDomain domain.EmbeddingDomain

	EmbeddingTimeout time.Duration
	LexicalTimeout   time.Duration
	VectorTimeout    time.Duration
	ResultTTL        time.Duration
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.RRFK <= 0 {
		c.RRFK = DefaultRRFK
	}
	if c.WeightLexical == 0 {
		c.WeightLexical = 1.0
	}
	if c.WeightVector == 0 {
		c.WeightVector = 1.0
	}
	if c.TopK <= 0 {
		c.TopK = 50
	}
	if c.QueryDomain == "" {
		c.QueryDomain = domain.DomainCode
	}
	if c.EmbeddingTimeout <= 0 {
		c.EmbeddingTimeout = 5 * time.Second
	}
	if c.LexicalTimeout <= 0 {
		c.LexicalTimeout = 2 * time.Second
	}
	if c.VectorTimeout <= 0 {
		c.VectorTimeout = 2 * time.Second
	}
	if c.ResultTTL <= 0 {
		c.ResultTTL = 30 * time.Second
	}
}

// Service orchestrates hybrid search.
type Service struct {
	lexical LexicalRetriever
	vector  VectorRetriever
	embed   EmbeddingResolver
	cache   ResultCache
	gen     GenerationTracker
	cfg     Config
	logger  *zap.Logger
}

// New creates a search service.
func New(
	lexical LexicalRetriever,
	vector VectorRetriever,
	embed EmbeddingResolver,
	cache ResultCache,
	gen GenerationTracker,
	cfg Config,
	logger *zap.Logger,
) *Service {
	cfg.ApplyDefaults()
	return &Service{
		lexical: lexical,
		vector:  vector,
		embed:   embed,
		cache:   cache,
		gen:     gen,
		cfg:     cfg,
		logger:  logger,
	}
}

// Search executes one query: cache lookup, mode dispatch, concurrent
// fan-out, fusion, truncation, cache fill. Partial backend failure in
// hybrid mode degrades the response instead of failing it.
func (s *Service) Search(ctx context.Context, q *query.Query) (result.Response, error) {
	start := time.Now()
	key := topLevelKey(s.gen.Current(ctx), q)

	if data, ok := s.cache.Get(ctx, key); ok {
		if resp, err := decodeResponse(data); err == nil {
			resp.Timing = result.Timing{Total: time.Since(start), CacheHit: true}
			metrics.SearchDuration.WithLabelValues(string(q.Mode()), "hit").Observe(resp.Timing.Total.Seconds())
			return resp, nil
		}
		s.logger.Warn("Corrupt cached search result, recomputing", zap.String("key", key))
	}

	resp, err := s.execute(ctx, q)
	if err != nil {
		return result.Response{}, err
	}

	resp.Timing.Total = time.Since(start)
	metrics.SearchDuration.WithLabelValues(string(q.Mode()), "miss").Observe(resp.Timing.Total.Seconds())

	// Degraded pages are not cached: a few missing-signal responses are
	// acceptable, a TTL's worth of them after the backend recovers is not.
	if !resp.Degraded {
		if data, err := encodeResponse(resp); err == nil {
			s.cache.Set(ctx, key, data, s.cfg.ResultTTL)
		}
	}

	return resp, nil
}

// Invalidate reacts to a corpus mutation event by bumping the generation,
// which lazily orphans every cached fused result. Embedding entries are
// content-addressed and stay valid.
func (s *Service) Invalidate(ctx context.Context) (int64, error) {
	gen, err := s.gen.Bump(ctx)
	if err != nil {
		return 0, fmt.Errorf("invalidate search results: %w", err)
	}
	s.logger.Info("Corpus generation bumped, fused result cache invalidated", zap.Int64("generation", gen))
	return gen, nil
}

func (s *Service) execute(ctx context.Context, q *query.Query) (result.Response, error) {
	var resp result.Response

	// Embedding is a prerequisite only to the vector branch.
	var vec domain.Vector
	if q.Mode().NeedsEmbedding() {
		embStart := time.Now()
		v, err := s.resolveEmbedding(ctx, q.Text())
		resp.Timing.Embedding = time.Since(embStart)

		switch {
		case err == nil:
			vec = v
		case q.Mode() == mode.Vector:
			return result.Response{}, fmt.Errorf("resolve query embedding: %w", err)
		default:
			// hybrid degrades to lexical-only
			resp.Degraded = true
			metrics.SearchDegradedTotal.WithLabelValues("embedding_unavailable").Inc()
			s.logger.Warn("Embedding unavailable, degrading to lexical-only", zap.Error(err))
		}
	}

	runLexical := q.Mode() != mode.Vector
	runVector := q.Mode() != mode.Lexical && len(vec.Values) > 0

	var (
		lexCands, vecCands []result.Candidate
		lexErr, vecErr     error
	)

	// Independent branches, no shared mutable state, joined here. Each
	// closure owns its branch's variables and always returns nil so a
	// failing branch never cancels the survivor.
	g := new(errgroup.Group)
	if runLexical {
		g.Go(func() error {
			branchStart := time.Now()
			bctx, cancel := context.WithTimeout(ctx, s.cfg.LexicalTimeout)
			defer cancel()
			lexCands, lexErr = s.lexical.Search(bctx, q.Text(), q.Filters(), s.topK(q))
			resp.Timing.Lexical = time.Since(branchStart)
			return nil
		})
	}
	if runVector {
		g.Go(func() error {
			branchStart := time.Now()
			bctx, cancel := context.WithTimeout(ctx, s.cfg.VectorTimeout)
			defer cancel()
			vecCands, vecErr = s.vector.Search(bctx, vec, q.Filters(), s.topK(q))
			resp.Timing.Vector = time.Since(branchStart)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return result.Response{}, fmt.Errorf("search cancelled: %w", err)
	}

	switch q.Mode() {
	case mode.Lexical:
		if lexErr != nil {
			return result.Response{}, hardFailure(lexErr)
		}
		resp.Results = directResults(lexCands, result.RetrieverLexical, q.Limit())
		return resp, nil

	case mode.Vector:
		if vecErr != nil {
			return result.Response{}, hardFailure(vecErr)
		}
		resp.Results = directResults(vecCands, result.RetrieverVector, q.Limit())
		return resp, nil
	}

	// Hybrid: survive single-branch failure, fail only when no signal is left.
	if lexErr != nil {
		if !runVector || vecErr != nil {
			return result.Response{}, hardFailure(lexErr, vecErr)
		}
		lexCands = nil
		resp.Degraded = true
		metrics.SearchDegradedTotal.WithLabelValues("lexical_unavailable").Inc()
		s.logger.Warn("Lexical retriever failed, proceeding vector-only", zap.Error(lexErr))
	}
	if runVector && vecErr != nil {
		vecCands = nil
		resp.Degraded = true
		metrics.SearchDegradedTotal.WithLabelValues("vector_unavailable").Inc()
		s.logger.Warn("Vector retriever failed, proceeding lexical-only", zap.Error(vecErr))
	}

	fusionStart := time.Now()
	fused := fuseRRF(lexCands, vecCands, fusionParams{
		k:             s.cfg.RRFK,
		weightLexical: s.cfg.WeightLexical,
		weightVector:  s.cfg.WeightVector,
		maxDepth:      s.cfg.MaxFusionDepth,
	})
	if len(fused) > q.Limit() {
		fused = fused[:q.Limit()]
	}
	resp.Timing.Fusion = time.Since(fusionStart)
	resp.Results = fused

	return resp, nil
}

func (s *Service) resolveEmbedding(ctx context.Context, text string) (domain.Vector, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.EmbeddingTimeout)
	defer cancel()
	return s.embed.Resolve(ctx, text, s.cfg.QueryDomain)
}

// topK returns the per-retriever candidate depth: at least the requested
// page so truncation never starves the caller.
func (s *Service) topK(q *query.Query) int {
	if q.Limit() > s.cfg.TopK {
		return q.Limit()
	}
	return s.cfg.TopK
}

// hardFailure wraps branch errors into the retryable total-failure error.
// All causes here are transient infrastructure conditions.
func hardFailure(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("%v: %w", err, domain.ErrAllRetrieversFailed)
		}
	}
	return domain.ErrAllRetrieversFailed
}
