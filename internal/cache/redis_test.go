package cache

import (
	"context"
	"testing"
	"time"
)

type recordingKV struct {
	setCalled        bool
	setWithTTLCalled bool
	lastTTL          time.Duration
}

func (r *recordingKV) Get(_ context.Context, _ string) ([]byte, error) { return nil, nil }

func (r *recordingKV) Set(_ context.Context, _ string, _ []byte) error {
	r.setCalled = true
	return nil
}

func (r *recordingKV) SetWithTTL(_ context.Context, _ string, _ []byte, ttl time.Duration) error {
	r.setWithTTLCalled = true
	r.lastTTL = ttl
	return nil
}

func (r *recordingKV) Del(_ context.Context, _ string) error { return nil }

func TestRedis_SetChoosesCommandByTTL(t *testing.T) {
	t.Run("positive ttl uses expiry", func(t *testing.T) {
		kv := &recordingKV{}
		tier := NewRedis(kv)

		if err := tier.Set(context.Background(), "k", []byte("v"), 30*time.Second); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if !kv.setWithTTLCalled || kv.lastTTL != 30*time.Second {
			t.Errorf("expected SetWithTTL(30s), got setWithTTL=%v ttl=%v", kv.setWithTTLCalled, kv.lastTTL)
		}
	})

	t.Run("zero ttl stores without expiry", func(t *testing.T) {
		kv := &recordingKV{}
		tier := NewRedis(kv)

		if err := tier.Set(context.Background(), "k", []byte("v"), 0); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if !kv.setCalled || kv.setWithTTLCalled {
			t.Errorf("expected plain Set, got set=%v setWithTTL=%v", kv.setCalled, kv.setWithTTLCalled)
		}
	})
}
