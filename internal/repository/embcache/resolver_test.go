package embcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fusedex/internal/domain"
)

type mockEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, text string, d domain.EmbeddingDomain) (domain.Vector, error) {
	m.calls++
	if m.err != nil {
		return domain.Vector{}, m.err
	}
	return domain.Vector{Domain: d, Values: m.vec, Fingerprint: domain.Fingerprint(text)}, nil
}

type mockCascade struct {
	entries map[string][]byte
	sets    int
	lastTTL time.Duration
}

func newMockCascade() *mockCascade {
	return &mockCascade{entries: make(map[string][]byte)}
}

func (m *mockCascade) Get(_ context.Context, key string) ([]byte, bool) {
	data, ok := m.entries[key]
	return data, ok
}

func (m *mockCascade) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	m.entries[key] = value
	m.sets++
	m.lastTTL = ttl
}

func newResolver(inner *mockEmbedder, cache *mockCascade) *Resolver {
	dims := map[domain.EmbeddingDomain]int{domain.DomainCode: 3}
	return New(inner, cache, time.Hour, dims, zap.NewNop())
}

func TestResolve_MissEmbedsAndCaches(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3}}
	cache := newMockCascade()
	r := newResolver(inner, cache)

	vec, err := r.Resolve(context.Background(), "query text", domain.DomainCode)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 provider call, got %d", inner.calls)
	}
	if len(vec.Values) != 3 || vec.Domain != domain.DomainCode {
		t.Errorf("unexpected vector: %+v", vec)
	}
	if cache.sets != 1 {
		t.Errorf("expected 1 cache write, got %d", cache.sets)
	}
	if cache.lastTTL != time.Hour {
		t.Errorf("expected configured TTL, got %v", cache.lastTTL)
	}
}

func TestResolve_HitSkipsProvider(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3}}
	cache := newMockCascade()
	r := newResolver(inner, cache)

	if _, err := r.Resolve(context.Background(), "query text", domain.DomainCode); err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	vec, err := r.Resolve(context.Background(), "query text", domain.DomainCode)
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("cache hit must not call the provider, got %d calls", inner.calls)
	}
	if vec.Values[1] != 0.2 {
		t.Errorf("unexpected cached vector: %v", vec.Values)
	}
}

func TestResolve_DomainsAreIsolated(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3}}
	cache := newMockCascade()
	r := newResolver(inner, cache)

	if _, err := r.Resolve(context.Background(), "same text", domain.DomainCode); err != nil {
		t.Fatalf("Resolve code: %v", err)
	}
	if _, err := r.Resolve(context.Background(), "same text", domain.DomainText); err != nil {
		t.Fatalf("Resolve text: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("same text in a different domain must re-embed, got %d calls", inner.calls)
	}
}

func TestResolve_ProviderFailurePropagates(t *testing.T) {
	inner := &mockEmbedder{err: domain.ErrEmbeddingUnavailable}
	cache := newMockCascade()
	r := newResolver(inner, cache)

	_, err := r.Resolve(context.Background(), "query text", domain.DomainCode)
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
	if cache.sets != 0 {
		t.Error("failure must not be cached")
	}
}

func TestResolve_InvalidDomainRejected(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{0.1}}
	r := newResolver(inner, newMockCascade())

	if _, err := r.Resolve(context.Background(), "query text", "prose"); err == nil {
		t.Fatal("expected invalid domain error")
	}
	if inner.calls != 0 {
		t.Error("invalid domain must not reach the provider")
	}
}

func TestResolve_CorruptEntryTreatedAsMiss(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3}}
	cache := newMockCascade()
	r := newResolver(inner, cache)

	key := cacheKey(domain.DomainCode, domain.Fingerprint("query text"))
	cache.entries[key] = []byte{0x01, 0x02, 0x03} // not a multiple of 4

	vec, err := r.Resolve(context.Background(), "query text", domain.DomainCode)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if inner.calls != 1 {
		t.Error("corrupt entry must fall through to the provider")
	}
	if len(vec.Values) != 3 {
		t.Errorf("unexpected vector: %v", vec.Values)
	}
}

func TestResolve_DimensionMismatchTreatedAsMiss(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3}}
	cache := newMockCascade()
	r := newResolver(inner, cache)

	// A stale 2-dim entry from before a model swap.
	key := cacheKey(domain.DomainCode, domain.Fingerprint("query text"))
	cache.entries[key] = vectorToCacheBytes([]float32{0.9, 0.9})

	vec, err := r.Resolve(context.Background(), "query text", domain.DomainCode)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if inner.calls != 1 {
		t.Error("dimension mismatch must fall through to the provider")
	}
	if len(vec.Values) != 3 {
		t.Errorf("stale entry served: %v", vec.Values)
	}
}

func TestVectorCodec_RoundTrip(t *testing.T) {
	in := []float32{0, -1.5, 3.25, 1e-7}
	out, err := bytesToVector(vectorToCacheBytes(in))
	if err != nil {
		t.Fatalf("bytesToVector: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("index %d: %v != %v", i, in[i], out[i])
		}
	}
}
