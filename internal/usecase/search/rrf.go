package search

import (
	"sort"

	"github.com/kailas-cloud/fusedex/internal/domain/search/result"
)

// DefaultRRFK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const DefaultRRFK = 60

// fusionParams holds the configuration-level fusion knobs.
type fusionParams struct {
	k             int
	weightLexical float64
	weightVector  float64
	// maxDepth caps the rank depth eligible to contribute (0 = uncapped).
	maxDepth int
}

// fuseRRF merges the two ranked candidate lists via weighted Reciprocal
// Rank Fusion:
//
//	score(d) = w_lex/(k + rank_lex(d)) + w_vec/(k + rank_vec(d))
//
// with each term present only when d appears in that list. An artifact
// absent from one list simply contributes no term there; absence is never
// mapped to a worst rank. Ordering is fully deterministic: score desc,
// then contributing-retriever count desc, then artifact ID asc.
func fuseRRF(lexical, vector []result.Candidate, p fusionParams) []result.Fused {
	merged := make(map[string]*result.Fused, len(lexical)+len(vector))

	for i, c := range lexical {
		if p.maxDepth > 0 && i >= p.maxDepth {
			break
		}
		rank := i + 1
		f := mergedEntry(merged, c.ArtifactID)
		f.LexicalRank = rank
		f.Score += p.weightLexical / float64(p.k+rank)
		f.Retrievers = append(f.Retrievers, result.RetrieverLexical)
	}

	for i, c := range vector {
		if p.maxDepth > 0 && i >= p.maxDepth {
			break
		}
		rank := i + 1
		f := mergedEntry(merged, c.ArtifactID)
		f.VectorRank = rank
		f.Score += p.weightVector / float64(p.k+rank)
		f.Retrievers = append(f.Retrievers, result.RetrieverVector)
	}

	fused := make([]result.Fused, 0, len(merged))
	for _, f := range merged {
		fused = append(fused, *f)
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		if len(fused[i].Retrievers) != len(fused[j].Retrievers) {
			return len(fused[i].Retrievers) > len(fused[j].Retrievers)
		}
		return fused[i].ArtifactID < fused[j].ArtifactID
	})

	return fused
}

func mergedEntry(merged map[string]*result.Fused, id string) *result.Fused {
	if f, ok := merged[id]; ok {
		return f
	}
	f := &result.Fused{ArtifactID: id}
	merged[id] = f
	return f
}

// directResults maps a single retriever's candidates straight into the
// response shape for lexical-only / vector-only modes: no fusion, raw
// scores preserved.
func directResults(candidates []result.Candidate, which string, limit int) []result.Fused {
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	fused := make([]result.Fused, 0, len(candidates))
	for i, c := range candidates {
		f := result.Fused{
			ArtifactID: c.ArtifactID,
			Score:      c.Score,
			Retrievers: []string{which},
		}
		if which == result.RetrieverLexical {
			f.LexicalRank = i + 1
		} else {
			f.VectorRank = i + 1
		}
		fused = append(fused, f)
	}
	return fused
}
