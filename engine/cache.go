/*
cache.go - Transient TTL memo for engine results

PURPOSE:
  Calculator and forecaster results are pure functions of their inputs,
  so recomputation for the same key is idempotent. That makes a
  last-write-wins map safe without per-key locking: concurrent
  population stores the same value.

LIMITATION:
  Entries are NOT invalidated when the underlying promotion changes.
  Callers choose a TTL short enough for their freshness requirements.

KEYS:
  CalcKey(promotionID, volume)      - calculator results
  ForecastKey(promotionID, period)  - forecast results
*/
package engine

import (
	"fmt"
	"sync"
	"time"
)

// Cache is a TTL-bounded memo for a single result type.
type Cache[V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry[V]
	name    string

	// now is injectable for tests.
	now func() time.Time
}

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

func NewCache[V any](name string, ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		ttl:     ttl,
		entries: make(map[string]cacheEntry[V]),
		name:    name,
		now:     time.Now,
	}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().After(e.expiresAt) {
		cacheHitsTotal.WithLabelValues(c.name, "miss").Inc()
		var zero V
		return zero, false
	}
	cacheHitsTotal.WithLabelValues(c.name, "hit").Inc()
	return e.value, true
}

// Put stores value under key. Last write wins.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	c.entries[key] = cacheEntry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Sweep drops expired entries. Optional; Get already ignores them.
func (c *Cache[V]) Sweep() {
	now := c.now()
	c.mu.Lock()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

func CalcKey(promotionID string, volume int64) string {
	return fmt.Sprintf("calc|%s|%d", promotionID, volume)
}

func ForecastKey(promotionID, period string) string {
	return fmt.Sprintf("forecast|%s|%s", promotionID, period)
}
