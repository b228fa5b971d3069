package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewFromClient(rdb), mr
}

func TestGetMiss(t *testing.T) {
	client, _ := newTestClient(t)
	_, ok, err := client.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected miss")
	}
}

func TestSetAndGet(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	if err := client.Set(ctx, "research:de-blue-card", `{"id":"abc"}`, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val, ok, err := client.Get(ctx, "research:de-blue-card")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if val != `{"id":"abc"}` {
		t.Errorf("val = %q", val)
	}
}

func TestSetSkipsNonPositiveTTL(t *testing.T) {
	client, mr := newTestClient(t)
	if err := client.Set(context.Background(), "k", "v", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if mr.Exists("k") {
		t.Error("zero-TTL value must not be stored")
	}
}

func TestExpiry(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	if err := client.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(2 * time.Minute)

	_, ok, err := client.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected expired key to miss")
	}
}

func TestDelete(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	if err := client.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := client.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if mr.Exists("k") {
		t.Error("key still present after delete")
	}
	if err := client.Delete(ctx, "k"); err != nil {
		t.Errorf("deleting a missing key must succeed, got %v", err)
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var client *Client
	ctx := context.Background()

	if err := client.Ping(ctx); err != nil {
		t.Error(err)
	}
	if _, ok, err := client.Get(ctx, "k"); ok || err != nil {
		t.Errorf("nil Get: ok=%v err=%v", ok, err)
	}
	if err := client.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Error(err)
	}
	if err := client.Delete(ctx, "k"); err != nil {
		t.Error(err)
	}
	if err := client.Close(); err != nil {
		t.Error(err)
	}
}
