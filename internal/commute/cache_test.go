package commute

import (
	"testing"
	"time"
)

func TestTTLCacheGetSet(t *testing.T) {
	c := NewTTLCache(time.Hour)

	if _, ok := c.Get("a|b"); ok {
		t.Error("empty cache should miss")
	}

	c.Set("a|b", 25)
	minutes, ok := c.Get("a|b")
	if !ok || minutes != 25 {
		t.Errorf("got (%d, %v), want (25, true)", minutes, ok)
	}

	// Overwrite.
	c.Set("a|b", 30)
	if minutes, _ := c.Get("a|b"); minutes != 30 {
		t.Errorf("minutes = %d, want 30 after overwrite", minutes)
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	now := time.Now()
	c := NewTTLCache(10 * time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a|b", 25)

	now = now.Add(10 * time.Minute)
	if _, ok := c.Get("a|b"); !ok {
		t.Error("entry at exactly its expiry should still be served")
	}

	now = now.Add(time.Second)
	if _, ok := c.Get("a|b"); ok {
		t.Error("expired entry should miss")
	}
}

func TestTTLCacheEvict(t *testing.T) {
	now := time.Now()
	c := NewTTLCache(10 * time.Minute)
	c.now = func() time.Time { return now }

	c.Set("fresh", 10)
	now = now.Add(11 * time.Minute)
	c.Set("new", 20)

	c.evict()

	if _, ok := c.Get("new"); !ok {
		t.Error("unexpired entry must survive eviction")
	}
	stats := c.Stats()
	if total := stats["total_keys"].(int); total != 1 {
		t.Errorf("total_keys = %d, want 1 after eviction", total)
	}
}

func TestTTLCacheDefaultTTL(t *testing.T) {
	c := NewTTLCache(0)
	if c.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", c.ttl, DefaultTTL)
	}
}
