// Package cache provides the in-memory extraction and proxy caches.
package cache

import (
	"sync"
	"time"

	"github.com/fwojciec/clipper"
)

var _ clipper.ExtractionCache = (*ExtractionCache)(nil)

// Option configures a cache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithNow sets the clock used for TTL decisions.
func WithNow(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type extractionEntry struct {
	result   *clipper.ExtractionResult
	cachedAt time.Time
}

// ExtractionCache holds extraction results for TTL and keeps successful
// ones around for TTL×staleFactor to serve when a fresh extraction fails.
type ExtractionCache struct {
	mu       sync.Mutex
	entries  map[string]extractionEntry
	ttl      time.Duration
	staleTTL time.Duration
	now      func() time.Time
}

// NewExtractionCache creates a cache with the given TTL and stale factor.
func NewExtractionCache(ttl time.Duration, staleFactor int, opts ...Option) *ExtractionCache {
	o := buildOptions(opts)
	if staleFactor < 1 {
		staleFactor = 1
	}
	return &ExtractionCache{
		entries:  make(map[string]extractionEntry),
		ttl:      ttl,
		staleTTL: ttl * time.Duration(staleFactor),
		now:      o.now,
	}
}

// Get returns a copy of the entry for key while it is younger than the TTL.
func (c *ExtractionCache) Get(key string) (*clipper.ExtractionResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.cachedAt) >= c.ttl {
		return nil, false
	}
	return e.result.Clone(), true
}

// GetStale returns a copy of a successful entry younger than the stale TTL.
func (c *ExtractionCache) GetStale(key string) (*clipper.ExtractionResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !e.result.Success || c.now().Sub(e.cachedAt) >= c.staleTTL {
		return nil, false
	}
	return e.result.Clone(), true
}

// Set stores a copy of result under key.
func (c *ExtractionCache) Set(key string, result *clipper.ExtractionResult) {
	if result == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = extractionEntry{result: result.Clone(), cachedAt: c.now()}
}

// Sweep removes entries that can no longer be served, fresh or stale.
func (c *ExtractionCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		age := now.Sub(e.cachedAt)
		if age >= c.staleTTL || (!e.result.Success && age >= c.ttl) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Clear removes every entry.
func (c *ExtractionCache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	clear(c.entries)
	return n
}

// Stats reports the number of entries and how many are within the TTL.
func (c *ExtractionCache) Stats() clipper.ExtractionCacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	stats := clipper.ExtractionCacheStats{TotalEntries: len(c.entries)}
	for _, e := range c.entries {
		if now.Sub(e.cachedAt) < c.ttl {
			stats.ValidEntries++
		}
	}
	return stats
}
