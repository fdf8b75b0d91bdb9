package clipper

import (
	"context"
	"time"
)

// ExtractionCache memoizes extraction results by URL.
// Implementations store copies; callers may not mutate what they get back.
type ExtractionCache interface {
	// Get returns the entry for key while it is younger than the TTL.
	Get(key string) (*ExtractionResult, bool)

	// GetStale returns a previously successful entry younger than the
	// extended stale TTL. Used when a fresh extraction fails.
	GetStale(key string) (*ExtractionResult, bool)

	// Set stores result under key.
	Set(key string, result *ExtractionResult)

	// Sweep removes entries past the stale TTL and returns how many were removed.
	Sweep() int

	// Clear removes every entry and returns how many were removed.
	Clear() int

	Stats() ExtractionCacheStats
}

// ProxyEntry is a cached proxy response.
type ProxyEntry struct {
	Body           []byte
	ContentType    string
	FinalURL       string
	StrategyUsed   string
	CachedAt       time.Time
	LastAccessedAt time.Time
	HitCount       int
}

// Size returns the number of bytes the entry accounts for.
func (e *ProxyEntry) Size() int64 {
	return int64(len(e.Body))
}

// ProxyCache memoizes proxied bodies with TTL expiry and LRU eviction
// under a byte ceiling.
type ProxyCache interface {
	Get(key string) (*ProxyEntry, bool)
	Set(key string, entry *ProxyEntry)

	// Sweep purges expired entries, then evicts least recently accessed
	// entries while the cache is over its ceiling. Returns entries removed.
	Sweep() int

	Clear() int
	Stats() ProxyCacheStats
}

// ExtractionStore persists successful extraction results across restarts.
type ExtractionStore interface {
	// FindExtraction returns the stored result and when it was cached.
	// Returns ENOTFOUND if nothing is stored for the URL.
	FindExtraction(ctx context.Context, url string) (*ExtractionResult, time.Time, error)

	// SaveExtraction stores result for url, replacing any previous value.
	SaveExtraction(ctx context.Context, url string, result *ExtractionResult, cachedAt time.Time) error

	// DeleteExtractions removes every stored result and returns how many were removed.
	DeleteExtractions(ctx context.Context) (int, error)
}

// ExtractionCacheStats summarizes the extraction cache.
type ExtractionCacheStats struct {
	TotalEntries int `json:"totalEntries"`
	ValidEntries int `json:"validEntries"`
}

// ProxyCacheStats summarizes the proxy cache.
type ProxyCacheStats struct {
	TotalEntries int     `json:"totalEntries"`
	ValidEntries int     `json:"validEntries"`
	TotalSizeMB  float64 `json:"totalSizeMb"`
	TotalHits    int     `json:"totalHits"`
	HitRate      float64 `json:"hitRate"`
}

// CacheLimits reports the configured cache policy.
type CacheLimits struct {
	ExtractionTTLSeconds int     `json:"extractionTtlSeconds"`
	ProxyTTLSeconds      int     `json:"proxyTtlSeconds"`
	ProxyMaxSizeMB       float64 `json:"proxyMaxSizeMb"`
	EvictionTarget       float64 `json:"evictionTarget"`
	StaleFactor          int     `json:"staleFactor"`
}

// CacheStats is the combined cache report.
type CacheStats struct {
	ProxyCache      ProxyCacheStats      `json:"proxyCache"`
	ExtractionCache ExtractionCacheStats `json:"extractionCache"`
	CacheLimits     CacheLimits          `json:"cacheLimits"`
}

// ClearResult reports how many entries a clear removed.
type ClearResult struct {
	Cleared           int `json:"cleared"`
	ExtractionCleared int `json:"extractionCleared"`
	ProxyCleared      int `json:"proxyCleared"`
}
