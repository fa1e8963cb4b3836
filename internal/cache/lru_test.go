package cache

import (
	"fmt"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUCache_GetSet(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("Get(a) = %q, %v", v, ok)
	}
	c.Set("a", "2")
	if v, _ := c.Get("a"); v != "2" {
		t.Fatalf("Set should overwrite, got %q", v)
	}
	if hits, misses := c.Stats(); hits != 2 || misses != 1 {
		t.Fatalf("Stats() = %d hits, %d misses", hits, misses)
	}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a")
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("%s should still be cached", k)
		}
	}
	if c.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), "v")
	}
	clock.t = clock.t.Add(30 * time.Second)
	c.Set("fresh", "v")

	clock.t = clock.t.Add(45 * time.Second)
	if removed := c.CleanExpired(); removed != 3 {
		t.Fatalf("CleanExpired() = %d, want 3", removed)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Fatal("fresh entry should survive")
	}

	clock.t = clock.t.Add(time.Minute)
	if _, ok := c.Get("fresh"); ok {
		t.Fatal("expired entry should miss on Get")
	}
}

func TestLRUCache_DeleteAndPurge(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("deleted key still present")
	}
	c.Purge()
	if c.Size() != 0 {
		t.Fatalf("Purge left %d entries", c.Size())
	}
}

func TestManager_CleanNowAndStop(t *testing.T) {
	c, clock := newTestCache(10, time.Second)
	c.Set("a", "1")
	clock.t = clock.t.Add(2 * time.Second)

	m := NewManager(nil)
	m.Register(c)
	if n := m.CleanNow(); n != 1 {
		t.Fatalf("CleanNow() = %d, want 1", n)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
