// Package result holds per-retriever candidates and fused search results.
package result

import "time"

// Retriever names used in Fused.Retrievers and error tagging.
const (
	RetrieverLexical = "lexical"
	RetrieverVector  = "vector"
)

// Candidate is a single hit from one retriever, on that retriever's own
// score scale. Rank is implied by position in the returned slice (1-based
// at position 0). Candidates from different retrievers are never mixed
// before fusion.
type Candidate struct {
	ArtifactID string  `json:"artifact_id"`
	Score      float64 `json:"score"`
}

// Fused is a single artifact in the fused ranking. LexicalRank and
// VectorRank are 1-based; 0 means the artifact was absent from that
// retriever's output, which is not the same as being ranked last.
type Fused struct {
	ArtifactID  string   `json:"artifact_id"`
	Score       float64  `json:"score"`
	LexicalRank int      `json:"lexical_rank,omitempty"`
	VectorRank  int      `json:"vector_rank,omitempty"`
	Retrievers  []string `json:"retrievers"`
}

// Timing is the per-phase duration breakdown of one search request.
type Timing struct {
	Total     time.Duration `json:"total"`
	Embedding time.Duration `json:"embedding"`
	Lexical   time.Duration `json:"lexical"`
	Vector    time.Duration `json:"vector"`
	Fusion    time.Duration `json:"fusion"`
	CacheHit  bool          `json:"cache_hit"`
}

// Response is the outcome of one search request. Degraded marks a
// successful response assembled from fewer signals than requested.
type Response struct {
	Results  []Fused `json:"results"`
	Degraded bool    `json:"degraded"`
	Timing   Timing  `json:"timing"`
}
