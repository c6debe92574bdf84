package commute

import (
	"sync"
	"time"
)

// DefaultTTL is how long a commute estimate stays valid. Transit schedules
// shift slowly, so a day-old estimate is still useful.
const DefaultTTL = 24 * time.Hour

// Cache stores commute estimates in minutes, keyed by the literal
// origin/destination coordinate pair. Implementations must be safe for
// concurrent use; a stale-read race between two callers costs one extra
// routing request, not correctness.
type Cache interface {
	Get(key string) (minutes int, ok bool)
	Set(key string, minutes int)
}

type entry struct {
	minutes   int
	expiresAt time.Time
}

// TTLCache is a thread-safe in-memory TTL cache for commute estimates.
type TTLCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewTTLCache creates a cache with the given TTL. ttl <= 0 uses DefaultTTL.
func NewTTLCache(ttl time.Duration) *TTLCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &TTLCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
	go c.evictLoop()
	return c
}

// Get retrieves a cached estimate. Expired entries are treated as misses.
func (c *TTLCache) Get(key string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, exists := c.entries[key]
	if !exists || c.now().After(e.expiresAt) {
		return 0, false
	}
	return e.minutes, true
}

// Set stores an estimate with the cache's TTL.
func (c *TTLCache) Set(key string, minutes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{
		minutes:   minutes,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Stats returns cache statistics for the ops API.
func (c *TTLCache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	active := 0
	now := c.now()
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			active++
		}
	}
	return map[string]interface{}{
		"ttl":          c.ttl.String(),
		"total_keys":   len(c.entries),
		"active_keys":  active,
		"expired_keys": len(c.entries) - active,
	}
}

// evictLoop periodically removes expired entries.
func (c *TTLCache) evictLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		c.evict()
	}
}

func (c *TTLCache) evict() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}
