// Package filter holds the pre-filter model for artifact search.
package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/fusedex/internal/domain"
)

// Filters narrows a search to specific repositories, languages, or chunk types.
// The zero value matches everything.
type Filters struct {
	repositories []string
	languages    []string
	chunkTypes   []string
}

// New builds a normalized filter set: values are trimmed, lowercased,
// deduplicated and sorted, so logically identical filters compare and
// hash identically regardless of argument order.
func New(repositories, languages, chunkTypes []string) (Filters, error) {
	repos, err := normalize("repository", repositories)
	if err != nil {
		return Filters{}, err
	}
	langs, err := normalize("language", languages)
	if err != nil {
		return Filters{}, err
	}
	chunks, err := normalize("chunk_type", chunkTypes)
	if err != nil {
		return Filters{}, err
	}
	return Filters{repositories: repos, languages: langs, chunkTypes: chunks}, nil
}

// Repositories returns the repository filter values.
func (f Filters) Repositories() []string { return f.repositories }

// Languages returns the language filter values.
func (f Filters) Languages() []string { return f.languages }

// ChunkTypes returns the chunk type filter values.
func (f Filters) ChunkTypes() []string { return f.chunkTypes }

// IsEmpty reports whether the filter matches everything.
func (f Filters) IsEmpty() bool {
	return len(f.repositories) == 0 && len(f.languages) == 0 && len(f.chunkTypes) == 0
}

// Canonical returns a deterministic string form used in cache keys.
func (f Filters) Canonical() string {
	var b strings.Builder
	writeGroup(&b, "repo", f.repositories)
	writeGroup(&b, "lang", f.languages)
	writeGroup(&b, "chunk", f.chunkTypes)
	return b.String()
}

func writeGroup(b *strings.Builder, name string, values []string) {
	if len(values) == 0 {
		return
	}
	b.WriteString(name)
	b.WriteByte('=')
	b.WriteString(strings.Join(values, ","))
	b.WriteByte(';')
}

func normalize(name string, values []string) ([]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			return nil, fmt.Errorf("empty %s filter value: %w", name, domain.ErrInvalidQuery)
		}
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}
