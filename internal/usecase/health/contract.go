package health

import "context"

// StorePinger reports whether the index/cache store answers.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker reports whether the embedding provider answers.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
