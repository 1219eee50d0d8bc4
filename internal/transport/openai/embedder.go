package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fusedex/internal/domain"
	"github.com/kailas-cloud/fusedex/internal/metrics"
)

// ModelConfig pins one embedding model to one embedding domain.
type ModelConfig struct {
	Model      string
	Dimensions int
}

// Embedder is an embedding provider using the OpenAI-compatible API.
// Each embedding domain maps to its own model so that query vectors stay
// in the same space as the corpus vectors built by the indexing pipeline.
type Embedder struct {
	client   *openai.Client
	models   map[domain.EmbeddingDomain]ModelConfig
	user     string
	provider string
	logger   *zap.Logger
}

// Config holds the embedding provider settings.
type Config struct {
	APIKey   string
	BaseURL  string
	Models   map[domain.EmbeddingDomain]ModelConfig
	User     string
	Provider string
	Logger   *zap.Logger
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Embedder{
		client:   openai.NewClientWithConfig(clientCfg),
		models:   cfg.Models,
		user:     cfg.User,
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// Embed implements domain.Embedder with transport-level metrics.
// All provider failures wrap domain.ErrEmbeddingUnavailable; a zero or
// default vector is never returned.
func (e *Embedder) Embed(ctx context.Context, text string, d domain.EmbeddingDomain) (domain.Vector, error) {
	mc, ok := e.models[d]
	if !ok {
		return domain.Vector{}, fmt.Errorf("no model configured for domain %q: %w", d, domain.ErrEmbeddingUnavailable)
	}

	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          openai.EmbeddingModel(mc.Model),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.user,
	}
	if mc.Dimensions > 0 {
		req.Dimensions = mc.Dimensions
	}

	start := time.Now()

	resp, err := e.client.CreateEmbeddings(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, mc.Model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, mc.Model, "api_error").Inc()
		return domain.Vector{}, parseAPIError(err)
	}

	if len(resp.Data) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, mc.Model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, mc.Model, "empty_response").Inc()
		return domain.Vector{}, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingUnavailable)
	}

	values := resp.Data[0].Embedding
	if mc.Dimensions > 0 && len(values) != mc.Dimensions {
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, mc.Model, "dim_mismatch").Inc()
		return domain.Vector{}, fmt.Errorf("provider returned %d dims, expected %d: %w",
			len(values), mc.Dimensions, domain.ErrEmbeddingUnavailable)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, mc.Model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, mc.Model).Observe(duration.Seconds())

	if total := resp.Usage.TotalTokens; total > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, mc.Model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, mc.Model, "total").Add(float64(total))
	}

	return domain.Vector{
		Domain:      d,
		Values:      values,
		Fingerprint: domain.Fingerprint(text),
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors wrap domain.ErrEmbeddingUnavailable for degradation handling.
func parseAPIError(err error) error {
	wrap := domain.ErrEmbeddingUnavailable

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("embedding API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("embedding API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("embedding request failed: %w", wrap)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
