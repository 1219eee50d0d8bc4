package search

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/fusedex/internal/domain/search/query"
	"github.com/kailas-cloud/fusedex/internal/domain/search/result"
)

// topLevelKey derives the whole-query cache key. The query fingerprint is
// order-independent over filters, and the corpus generation prefix lazily
// orphans every fused entry when the indexing pipeline signals a mutation.
func topLevelKey(generation int64, q *query.Query) string {
	return fmt.Sprintf("res:%d:%s", generation, q.Fingerprint())
}

// cachedResponse is the persisted subset of a response: timing is
// request-scoped and recomputed on every hit.
type cachedResponse struct {
	Results  []result.Fused `json:"results"`
	Degraded bool           `json:"degraded"`
}

func encodeResponse(resp result.Response) ([]byte, error) {
	data, err := json.Marshal(cachedResponse{Results: resp.Results, Degraded: resp.Degraded})
	if err != nil {
		return nil, fmt.Errorf("encode fused results: %w", err)
	}
	return data, nil
}

func decodeResponse(data []byte) (result.Response, error) {
	var cached cachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		return result.Response{}, fmt.Errorf("decode fused results: %w", err)
	}
	return result.Response{Results: cached.Results, Degraded: cached.Degraded}, nil
}
