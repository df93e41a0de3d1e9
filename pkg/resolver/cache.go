// pkg/resolver/cache.go - in-memory cache of resolved downloads

package resolver

import (
	"sync"
	"time"
)

// DefaultCacheTTL is how long a resolved download stays fresh.
const DefaultCacheTTL = 6 * time.Hour

// Cache holds resolved downloads keyed by catalog item ID. Safe for
// concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]ResolvedDownload
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a cache with the given freshness window. A non-positive
// ttl uses DefaultCacheTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		entries: make(map[string]ResolvedDownload),
		ttl:     ttl,
		now:     time.Now,
	}
}

// SetClock replaces the time source.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Get returns a copy of a fresh entry. Stale entries are treated as absent.
func (c *Cache) Get(id string) (*ResolvedDownload, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.ResolvedAt) >= c.ttl {
		return nil, false
	}
	return &entry, true
}

// Put overwrites the entry for id. ResolvedAt is stamped when zero.
func (c *Cache) Put(id string, rd ResolvedDownload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rd.ResolvedAt.IsZero() {
		rd.ResolvedAt = c.now()
	}
	c.entries[id] = rd
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]ResolvedDownload)
}

// Len reports the number of entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) clock() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now()
}
