package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/fwojciec/clipper"
)

var _ clipper.ProxyCache = (*ProxyCache)(nil)

// ProxyCache holds proxied bodies for TTL under a byte ceiling. When the
// ceiling is exceeded the least recently accessed entries are evicted
// until usage falls to the eviction target fraction of the ceiling.
type ProxyCache struct {
	mu       sync.Mutex
	entries  map[string]*clipper.ProxyEntry
	size     int64
	ttl      time.Duration
	maxBytes int64
	target   float64
	hits     int
	misses   int
	now      func() time.Time
}

// NewProxyCache creates a cache with the given TTL, byte ceiling and
// eviction target (for example 0.8).
func NewProxyCache(ttl time.Duration, maxBytes int64, target float64, opts ...Option) *ProxyCache {
	o := buildOptions(opts)
	return &ProxyCache{
		entries:  make(map[string]*clipper.ProxyEntry),
		ttl:      ttl,
		maxBytes: maxBytes,
		target:   target,
		now:      o.now,
	}
}

// Get returns a copy of the entry for key while it is younger than the
// TTL and records the access.
func (c *ProxyCache) Get(key string) (*clipper.ProxyEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e, ok := c.entries[key]
	if !ok || now.Sub(e.CachedAt) >= c.ttl {
		c.misses++
		return nil, false
	}
	c.hits++
	e.HitCount++
	e.LastAccessedAt = now
	cp := *e
	return &cp, true
}

// Set stores entry under key, replacing any previous entry. CachedAt and
// LastAccessedAt default to now when unset.
func (c *ProxyCache) Set(key string, entry *clipper.ProxyEntry) {
	if entry == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e := *entry
	if e.CachedAt.IsZero() {
		e.CachedAt = now
	}
	if e.LastAccessedAt.IsZero() {
		e.LastAccessedAt = e.CachedAt
	}
	if old, ok := c.entries[key]; ok {
		c.size -= old.Size()
	}
	c.entries[key] = &e
	c.size += e.Size()
}

// Sweep purges expired entries, then evicts by least recent access while
// the cache is over its ceiling.
func (c *ProxyCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if now.Sub(e.CachedAt) >= c.ttl {
			c.remove(key)
			removed++
		}
	}
	return removed + c.evict()
}

// evict removes least recently accessed entries until the cache is at or
// below the eviction target. Callers hold c.mu.
func (c *ProxyCache) evict() int {
	if c.maxBytes <= 0 || c.size <= c.maxBytes {
		return 0
	}

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return c.entries[keys[i]].LastAccessedAt.Before(c.entries[keys[j]].LastAccessedAt)
	})

	limit := int64(float64(c.maxBytes) * c.target)
	removed := 0
	for _, key := range keys {
		if c.size <= limit {
			break
		}
		c.remove(key)
		removed++
	}
	return removed
}

func (c *ProxyCache) remove(key string) {
	if e, ok := c.entries[key]; ok {
		c.size -= e.Size()
		delete(c.entries, key)
	}
}

// Clear removes every entry and resets the hit counters.
func (c *ProxyCache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	clear(c.entries)
	c.size = 0
	c.hits, c.misses = 0, 0
	return n
}

// Size returns the number of body bytes held.
func (c *ProxyCache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Stats reports entry counts, size and hit rate.
func (c *ProxyCache) Stats() clipper.ProxyCacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	stats := clipper.ProxyCacheStats{
		TotalEntries: len(c.entries),
		TotalSizeMB:  float64(c.size) / (1024 * 1024),
		TotalHits:    c.hits,
	}
	for _, e := range c.entries {
		if now.Sub(e.CachedAt) < c.ttl {
			stats.ValidEntries++
		}
	}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}
	return stats
}
