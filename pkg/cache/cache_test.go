package cache

import (
	"testing"
	"time"
)

func TestTTLCacheSetAndGet(t *testing.T) {
	c := NewTTLCache[string, float64]("lanes", time.Second, 10, nil)

	c.Set("madrid|valencia", 355.2)

	if c.Count() != 1 {
		t.Fatalf("expected count 1, got %d", c.Count())
	}

	v, ok := c.Get("madrid|valencia")
	if !ok {
		t.Fatalf("expected to find key")
	}
	if v != 355.2 {
		t.Errorf("expected 355.2, got %v", v)
	}
}

func TestTTLCacheExpiration(t *testing.T) {
	c := NewTTLCache[string, string]("short", 50*time.Millisecond, 10, nil)

	c.Set("temp", "data")
	time.Sleep(100 * time.Millisecond)

	if _, ok := c.Get("temp"); ok {
		t.Errorf("expected item to expire")
	}
}

func TestTTLCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewTTLCache[int, int]("small", time.Minute, 2, nil)

	c.Set(1, 1)
	c.Set(2, 2)
	c.Get(1)
	c.Set(3, 3)

	if _, ok := c.Get(2); ok {
		t.Errorf("expected key 2 to be evicted")
	}
	if _, ok := c.Get(1); !ok {
		t.Errorf("expected key 1 to survive")
	}
	if c.Count() != 2 {
		t.Errorf("expected count 2, got %d", c.Count())
	}
}

func TestTTLCacheDeleteAndClear(t *testing.T) {
	c := NewTTLCache[string, int]("ops", time.Minute, 0, nil)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Errorf("expected a to be deleted")
	}

	c.Clear()
	if c.Count() != 0 {
		t.Errorf("expected empty cache, got %d", c.Count())
	}
}

func TestTTLCacheObserverAndStats(t *testing.T) {
	var hits, misses int
	c := NewTTLCache[string, int]("observed", time.Minute, 10, func(name string, hit bool) {
		if name != "observed" {
			t.Errorf("unexpected cache name %q", name)
		}
		if hit {
			hits++
		} else {
			misses++
		}
	})

	c.Get("x")
	c.Set("x", 1)
	c.Get("x")
	c.Get("x")

	if hits != 2 || misses != 1 {
		t.Errorf("observer saw hits=%d misses=%d, want 2/1", hits, misses)
	}
	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 || s.Items != 1 {
		t.Errorf("unexpected stats %+v", s)
	}
}
