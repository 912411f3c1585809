package avatar

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func TestRedisStoreRoundTrip(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisStore(client, "staffportal:", time.Hour)
	ctx := context.Background()

	if err := store.SetMany(ctx, map[int64]string{1: "https://img/1", 2: Placeholder}); err != nil {
		t.Fatalf("SetMany: %v", err)
	}
	if !mr.Exists("staffportal:avatar:1") {
		t.Fatal("expected key staffportal:avatar:1")
	}
	if ttl := mr.TTL("staffportal:avatar:1"); ttl != time.Hour {
		t.Errorf("TTL = %v, want 1h", ttl)
	}

	got, err := store.GetMany(ctx, []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("GetMany: %v", err)
	}
	if len(got) != 2 || got[1] != "https://img/1" || got[2] != Placeholder {
		t.Errorf("GetMany() = %v", got)
	}

	mr.FastForward(2 * time.Hour)
	got, err = store.GetMany(ctx, []int64{1})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expired entries returned: %v", got)
	}
}

func TestRedisStoreIgnoresGarbage(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisStore(client, "", 0)

	if err := mr.Set("avatar:5", "not json"); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetMany(context.Background(), []int64{5})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("GetMany() = %v, want empty", got)
	}
}

func TestRedisStoreInvalidate(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisStore(client, "", time.Minute)
	ctx := context.Background()

	if err := store.SetMany(ctx, map[int64]string{9: "u"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Invalidate(ctx, 9); err != nil {
		t.Fatal(err)
	}
	if mr.Exists("avatar:9") {
		t.Error("key should be deleted")
	}
}

func TestOpenRedis(t *testing.T) {
	mr, _ := newTestRedis(t)

	client, err := OpenRedis(context.Background(), "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	client.Close()

	if _, err := OpenRedis(context.Background(), ""); err == nil {
		t.Error("expected error for empty url")
	}
}
