package cache

import (
	"testing"
	"time"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	c.Set(SnapshotKey(1), "first", 0)
	val, ok := c.Get(SnapshotKey(1))
	if !ok {
		t.Fatal("expected cached value")
	}
	if val.(string) != "first" {
		t.Errorf("expected first, got %v", val)
	}

	if _, ok := c.Get(SnapshotKey(2)); ok {
		t.Error("expected miss for another revision")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	c.Set("k", 1, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expected expired entry to be gone")
	}
}

func TestMemoryCache_DeleteClear(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be deleted")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d items", c.Len())
	}
}

func TestSnapshotKey_DistinctPerRevision(t *testing.T) {
	if SnapshotKey(7) == SnapshotKey(8) {
		t.Error("expected distinct keys")
	}
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	c.Set("a", 1, 0)
	if _, ok := c.Get("a"); ok {
		t.Error("nop cache must never hit")
	}
}
