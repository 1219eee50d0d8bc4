package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/fusedex/internal/db"
)

func TestMemory_SetGet(t *testing.T) {
	m, err := NewMemory(8)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}

	if err := m.Set(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	value, err := m.Get(context.Background(), "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(value) != "v" {
		t.Errorf("expected v, got %q", value)
	}
}

func TestMemory_MissReturnsKeyNotFound(t *testing.T) {
	m, _ := NewMemory(8)

	_, err := m.Get(context.Background(), "absent")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestMemory_TTLExpiry(t *testing.T) {
	m, _ := NewMemory(8)
	now := time.Now()
	m.now = func() time.Time { return now }

	_ = m.Set(context.Background(), "k", []byte("v"), 30*time.Second)

	if _, err := m.Get(context.Background(), "k"); err != nil {
		t.Fatalf("entry should be live: %v", err)
	}

	now = now.Add(31 * time.Second)
	if _, err := m.Get(context.Background(), "k"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestMemory_ZeroTTLNeverExpires(t *testing.T) {
	m, _ := NewMemory(8)
	now := time.Now()
	m.now = func() time.Time { return now }

	_ = m.Set(context.Background(), "k", []byte("v"), 0)

	now = now.Add(1000 * time.Hour)
	if _, err := m.Get(context.Background(), "k"); err != nil {
		t.Fatalf("zero-TTL entry must not expire: %v", err)
	}
}

func TestMemory_CapacityEviction(t *testing.T) {
	m, _ := NewMemory(2)

	_ = m.Set(context.Background(), "a", []byte("1"), 0)
	_ = m.Set(context.Background(), "b", []byte("2"), 0)
	_ = m.Set(context.Background(), "c", []byte("3"), 0)

	// "a" is the least recently used and must be evicted.
	if _, err := m.Get(context.Background(), "a"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected LRU eviction of a, got %v", err)
	}
	if _, err := m.Get(context.Background(), "c"); err != nil {
		t.Fatalf("c should survive: %v", err)
	}
}

func TestMemory_Delete(t *testing.T) {
	m, _ := NewMemory(8)

	_ = m.Set(context.Background(), "k", []byte("v"), 0)
	_ = m.Delete(context.Background(), "k")
	if _, err := m.Get(context.Background(), "k"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound after delete, got %v", err)
	}
}
