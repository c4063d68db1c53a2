package cache

import (
	"testing"
	"time"
)

func TestLRUCache_GetSet(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get() on empty cache returned ok = true")
	}

	c.Set("a", "alpha")
	got, ok := c.Get("a")
	if !ok {
		t.Fatal("Get() after Set() returned ok = false")
	}
	if got != "alpha" {
		t.Errorf("Get() = %q, want %q", got, "alpha")
	}

	// Overwrite keeps a single entry
	c.Set("a", "beta")
	got, _ = c.Get("a")
	if got != "beta" {
		t.Errorf("Get() after overwrite = %q, want %q", got, "beta")
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestLRUCache_TTLExpiry(t *testing.T) {
	c := NewLRUCache[int](10, time.Millisecond)

	c.Set("n", 42)
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get("n"); ok {
		t.Error("Get() returned ok = true for an expired entry")
	}
	if c.Size() != 0 {
		t.Errorf("Size() after expiry = %d, want 0", c.Size())
	}
}

func TestLRUCache_Eviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry survived eviction")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("entry 'b' was evicted unexpectedly")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("entry 'c' was evicted unexpectedly")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCache_EvictionFollowsRecency(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // refresh "a" so "b" becomes the eviction candidate
	c.Set("c", 3)

	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry 'a' was evicted")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry 'b' survived eviction")
	}
}

func TestLRUCache_Purge(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)
	c.Set("a", "alpha")
	c.Set("b", "beta")

	c.Purge()

	if c.Size() != 0 {
		t.Errorf("Size() after Purge() = %d, want 0", c.Size())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Get() after Purge() returned ok = true")
	}
}

func TestLRUCache_Stats(t *testing.T) {
	c := NewLRUCache[string](1, time.Minute)

	c.Set("a", "alpha")
	c.Get("a")       // hit
	c.Get("missing") // miss
	c.Set("b", "beta") // evicts "a"

	stats := c.Stats()
	if stats.Hits != 1 {
		t.Errorf("Stats().Hits = %d, want 1", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Stats().Misses = %d, want 1", stats.Misses)
	}
	if stats.Evictions != 1 {
		t.Errorf("Stats().Evictions = %d, want 1", stats.Evictions)
	}
	if stats.Size != 1 {
		t.Errorf("Stats().Size = %d, want 1", stats.Size)
	}
}

func TestCleanExpired(t *testing.T) {
	c := NewLRUCache[int](10, time.Millisecond)
	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(5 * time.Millisecond)

	removed := c.CleanExpired()
	if removed != 2 {
		t.Errorf("CleanExpired() = %d, want 2", removed)
	}
	if c.Size() != 0 {
		t.Errorf("Size() after CleanExpired() = %d, want 0", c.Size())
	}
}

func TestManager_Cleanup(t *testing.T) {
	c := NewLRUCache[int](10, time.Millisecond)
	c.Set("a", 1)

	m := NewManager()
	m.Register(c)
	m.StartCleanup(2 * time.Millisecond)

	deadline := time.Now().Add(500 * time.Millisecond)
	for c.Size() > 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	m.Stop()

	if c.Size() != 0 {
		t.Errorf("Size() after manager cleanup = %d, want 0", c.Size())
	}
}
