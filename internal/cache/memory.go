package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kailas-cloud/fusedex/internal/db"
)

// memEntry pairs a cached value with its expiry. Zero expiresAt means no TTL.
type memEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is the in-process tier: bounded LRU with lazy per-entry TTL.
// Safe for concurrent use (library guarantee).
type Memory struct {
	entries *lru.Cache[string, memEntry]
	now     func() time.Time
}

// NewMemory creates an in-process tier holding at most capacity entries.
func NewMemory(capacity int) (*Memory, error) {
	entries, err := lru.New[string, memEntry](capacity)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &Memory{entries: entries, now: time.Now}, nil
}

// Name implements Tier.
func (m *Memory) Name() string { return "memory" }

// Get returns the cached value, evicting entries past their TTL.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	e, ok := m.entries.Get(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		m.entries.Remove(key)
		return nil, db.ErrKeyNotFound
	}
	return e.value, nil
}

// Set stores a value; ttl<=0 means no expiry (LRU eviction only).
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = m.now().Add(ttl)
	}
	m.entries.Add(key, memEntry{value: value, expiresAt: expiresAt})
	return nil
}

// Delete removes a key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.entries.Remove(key)
	return nil
}
