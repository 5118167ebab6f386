package utils

import (
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
)

type ttlEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is a bounded, concurrency-safe cache whose entries carry their own expiry.
// Expired entries stay readable (Get reports them as not fresh) until evicted.
type TTLCache[V any] struct {
	mu      sync.Mutex
	entries *lru.Cache
	now     func() time.Time
}

func NewTTLCache[V any](maxEntries int) *TTLCache[V] {
	return &TTLCache[V]{
		entries: lru.New(maxEntries),
		now:     time.Now,
	}
}

// Get returns the cached value and whether it is still within its TTL.
// A missing key yields the zero value and false.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	raw, ok := c.entries.Get(key)
	if !ok {
		return zero, false
	}

	entry := raw.(ttlEntry[V])
	return entry.value, c.now().Before(entry.expiresAt)
}

func (c *TTLCache[V]) Put(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Add(key, ttlEntry[V]{value: value, expiresAt: c.now().Add(ttl)})
}

func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Remove(key)
}

// SetClock replaces the time source; used by tests.
func (c *TTLCache[V]) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = now
}
