package cache_test

import (
	"testing"
	"time"

	"classboard/cache"

	"github.com/alicebob/miniredis/v2"
)

func newTestCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return cache.NewRedisCache(mr.Addr(), "", 0), mr
}

func TestSetAndGet(t *testing.T) {
	c, _ := newTestCache(t)

	if err := c.Set("leaderboard:a1", []byte(`{"assignmentId":"a1"}`), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	val, err := c.Get("leaderboard:a1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if val.(string) != `{"assignmentId":"a1"}` {
		t.Fatalf("unexpected cached value: %v", val)
	}
}

func TestGetMissingKeyReturnsNil(t *testing.T) {
	c, _ := newTestCache(t)

	val, err := c.Get("leaderboard:missing")
	if err != nil {
		t.Fatalf("miss must not error: %v", err)
	}
	if val != nil {
		t.Fatalf("expected nil on miss, got %v", val)
	}
}

func TestDeleteAndExists(t *testing.T) {
	c, _ := newTestCache(t)

	if err := c.Set("k", "v", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if ok, _ := c.Exists("k"); !ok {
		t.Fatal("expected key to exist")
	}
	if err := c.Delete("k"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if ok, _ := c.Exists("k"); ok {
		t.Fatal("expected key to be gone")
	}
}

func TestExpiration(t *testing.T) {
	c, mr := newTestCache(t)

	if err := c.Set("k", "v", 10*time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	mr.FastForward(11 * time.Second)
	if val, _ := c.Get("k"); val != nil {
		t.Fatalf("expected expired key, got %v", val)
	}
}
