package finance

import (
	"sync"
	"time"
)

type cacheEntry[V any] struct {
	createdAt time.Time
	value     V
}

// Cache is a mutex-guarded map whose entries expire after a fixed TTL.
type Cache[V any] struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry[V]
}

func NewCache[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{ttl: ttl, now: time.Now, entries: map[string]cacheEntry[V]{}}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[key]; ok {
		if c.now().Before(entry.createdAt.Add(c.ttl)) {
			return entry.value, true
		}
		delete(c.entries, key)
	}
	var zero V
	return zero, false
}

func (c *Cache[V]) Set(key string, v V) {
	c.mu.Lock()
	c.entries[key] = cacheEntry[V]{createdAt: c.now(), value: v}
	c.mu.Unlock()
}

// Purge drops every entry whose key has the given prefix.
func (c *Cache[V]) Purge(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(c.entries, k)
		}
	}
}
