// Package health aggregates readiness checks on the pipeline's collaborators.
package health

import "context"

// Status is the aggregated health status.
type Status string

const (
	// Healthy means every checked component answered.
	Healthy Status = "ok"
	// Degraded means at least one component is failing.
	Degraded Status = "degraded"
)

// CheckResult is one component's outcome.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Report holds per-component results and the rolled-up status.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service runs the component checks.
type Service struct {
	store     StorePinger
	embedding EmbeddingChecker
}

// New creates a Service. embedding can be nil when no provider is configured.
func New(store StorePinger, embedding EmbeddingChecker) *Service {
	return &Service{store: store, embedding: embedding}
}

// Check probes the store and, when configured, the embedding provider.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{
		"store": outcome(s.store.Ping(ctx)),
	}
	if s.embedding != nil {
		checks["embedding"] = outcome(s.embedding.HealthCheck(ctx))
	}

	status := Healthy
	for _, c := range checks {
		if c == CheckError {
			status = Degraded
			break
		}
	}
	return Report{Status: status, Checks: checks}
}

func outcome(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
