package utils

import (
	"sync"
	"time"
)

// SampleCache is a small in-memory TTL cache of the last value seen per key.
// The recorder uses it to drop repeated temperature readings so an idle
// printer does not fill the database with identical rows.
type SampleCache struct {
	mu   sync.Mutex
	ttl  time.Duration
	data map[string]sample
}

type sample struct {
	v  float64
	at time.Time
}

// NewSampleCache creates a cache with the given TTL. If ttl <= 0, it
// defaults to 1h.
func NewSampleCache(ttl time.Duration) *SampleCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SampleCache{ttl: ttl, data: make(map[string]sample, 64)}
}

// Unchanged reports whether the key already holds v and the entry is still
// fresh. The value is (re)stored either way, so the next repeat within the
// TTL is suppressed.
func (c *SampleCache) Unchanged(key string, v float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.data[key]
	c.data[key] = sample{v: v, at: time.Now()}
	if !ok {
		return false
	}
	if time.Since(e.at) > c.ttl {
		return false
	}
	return e.v == v
}

// Forget drops one key.
func (c *SampleCache) Forget(key string) {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
}
