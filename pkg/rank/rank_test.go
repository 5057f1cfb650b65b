package rank

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestSetOverwritesAndTopOrders(t *testing.T) {
	redis := miniredis.RunT(t)
	cache, err := New(redis.Addr(), "", "test:rank")
	if err != nil {
		t.Fatalf("new rank cache: %v", err)
	}
	ctx := context.Background()

	if err := cache.Set(ctx, "c1", "u1", 5); err != nil {
		t.Fatalf("set: %v", err)
	}
	// A later total replaces the earlier one.
	if err := cache.Set(ctx, "c1", "u1", 8); err != nil {
		t.Fatalf("second set: %v", err)
	}
	if err := cache.Set(ctx, "c1", "u2", 10); err != nil {
		t.Fatalf("set u2: %v", err)
	}
	if err := cache.Set(ctx, "other", "u3", 99); err != nil {
		t.Fatalf("set other channel: %v", err)
	}

	top, err := cache.Top(ctx, "c1", 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("len(top) = %d, want 2", len(top))
	}
	if top[0].SenderID != "u2" || top[0].Score != 10 {
		t.Fatalf("unexpected first entry: %+v", top[0])
	}
	if top[1].SenderID != "u1" || top[1].Score != 8 {
		t.Fatalf("unexpected second entry: %+v", top[1])
	}
}

func TestTopRespectsLimit(t *testing.T) {
	redis := miniredis.RunT(t)
	cache, err := New(redis.Addr(), "", "test:rank")
	if err != nil {
		t.Fatalf("new rank cache: %v", err)
	}
	ctx := context.Background()

	for _, sender := range []string{"u1", "u2", "u3"} {
		if err := cache.Set(ctx, "c1", sender, 1); err != nil {
			t.Fatalf("set %s: %v", sender, err)
		}
	}
	top, err := cache.Top(ctx, "c1", 2)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("len(top) = %d, want 2", len(top))
	}
}

func TestScoreMissingSender(t *testing.T) {
	redis := miniredis.RunT(t)
	cache, err := New(redis.Addr(), "", "test:rank")
	if err != nil {
		t.Fatalf("new rank cache: %v", err)
	}
	ctx := context.Background()

	if _, ok, err := cache.Score(ctx, "c1", "nobody"); err != nil || ok {
		t.Fatalf("expected missing sender, ok=%v err=%v", ok, err)
	}
	if err := cache.Set(ctx, "c1", "u1", 7); err != nil {
		t.Fatalf("set: %v", err)
	}
	score, ok, err := cache.Score(ctx, "c1", "u1")
	if err != nil || !ok {
		t.Fatalf("score: ok=%v err=%v", ok, err)
	}
	if score != 7 {
		t.Fatalf("score = %v, want 7", score)
	}
}

func TestNewRequiresAddr(t *testing.T) {
	if cache, err := New("", "", ""); err == nil || cache != nil {
		t.Fatal("expected constructor error for empty redis addr")
	}
}
