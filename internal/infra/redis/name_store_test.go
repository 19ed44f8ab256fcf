package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestNameStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	defer client.Close()
	store := NewNameStore(client, time.Hour)
	ctx := context.Background()

	name, err := store.GetName(ctx, "session_1")
	if err != nil || name != "" {
		t.Fatalf("expected empty name, got %q err=%v", name, err)
	}

	if err := store.SetName(ctx, "session_1", "Alice"); err != nil {
		t.Fatalf("set name: %v", err)
	}
	if got := mr.HGet("deck:profile:session_1", "name"); got != "Alice" {
		t.Fatalf("expected Alice in redis, got %q", got)
	}
	if ttl := mr.TTL("deck:profile:session_1"); ttl != time.Hour {
		t.Fatalf("expected ttl of one hour, got %v", ttl)
	}
	name, _ = store.GetName(ctx, "session_1")
	if name != "Alice" {
		t.Fatalf("expected Alice, got %q", name)
	}

	if err := store.DeleteName(ctx, "session_1"); err != nil {
		t.Fatalf("delete name: %v", err)
	}
	name, _ = store.GetName(ctx, "session_1")
	if name != "" {
		t.Fatalf("expected name cleared, got %q", name)
	}
}
