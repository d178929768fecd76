package kv

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	t.Cleanup(func() {
		_ = store.Close(ctx)
	})

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.Set(ctx, "portfolio_data", `{"profile":{}}`); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	value, err := store.Get(ctx, "portfolio_data")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if value != `{"profile":{}}` {
		t.Fatalf("unexpected value: %s", value)
	}

	ok, err := store.Has(ctx, "portfolio_data")
	if err != nil {
		t.Fatalf("Has error: %v", err)
	}
	if !ok {
		t.Fatal("expected key to exist")
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats["total"] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}

	if err := store.Delete(ctx, "portfolio_data"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := store.Get(ctx, "portfolio_data"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting an absent key is not an error.
	if err := store.Delete(ctx, "portfolio_data"); err != nil {
		t.Fatalf("Delete of missing key errored: %v", err)
	}
}

func TestMemoryStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	if err := store.Set(ctx, "portfolio_auth_attempts", "1"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := store.Set(ctx, "portfolio_auth_attempts", "2"); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	value, err := store.Get(ctx, "portfolio_auth_attempts")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if value != "2" {
		t.Fatalf("expected overwrite, got %s", value)
	}
}
