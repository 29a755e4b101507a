package kv

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func newRedisTestStore(t *testing.T) *RedisStore {
	t.Helper()

	srv := miniredis.RunT(t)
	store := NewRedisStore(srv.Addr(), "", 0)
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("ping miniredis: %v", err)
	}
	return store
}

func TestRedisStoreGetMissingKey(t *testing.T) {
	store := newRedisTestStore(t)

	_, err := store.Get(context.Background(), "does-not-exist")
	if !errors.Is(err, ErrNoKey) {
		t.Fatalf("expected ErrNoKey for unwritten key, got %v", err)
	}
}

func TestRedisStoreSetGetRoundTrip(t *testing.T) {
	store := newRedisTestStore(t)
	ctx := context.Background()

	payload := []byte(`[{"id":"prod-1","name":"Beras 5kg"}]`)
	if err := store.Set(ctx, KeyProducts, payload); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := store.Get(ctx, KeyProducts)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("round trip mismatch: %s", got)
	}
}

func TestInitCreatesEveryCollectionKey(t *testing.T) {
	store := newRedisTestStore(t)
	ctx := context.Background()

	// Pre-seed one key so Init must leave existing data alone.
	seeded := []byte(`[{"id":"sale-1"}]`)
	if err := store.Set(ctx, KeySales, seeded); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := Init(ctx, store); err != nil {
		t.Fatalf("init: %v", err)
	}

	for _, key := range Keys {
		value, err := store.Get(ctx, key)
		if err != nil {
			t.Fatalf("get %s after init: %v", key, err)
		}
		if key == KeySales {
			if string(value) != string(seeded) {
				t.Fatalf("expected init to preserve %s, got %s", key, value)
			}
			continue
		}
		if string(value) != "[]" {
			t.Fatalf("expected empty sequence for %s, got %s", key, value)
		}
	}
}
