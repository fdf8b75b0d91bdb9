package extract

import (
	"context"
	"log/slog"

	"github.com/fwojciec/clipper"
)

var _ clipper.CacheService = (*Caches)(nil)

// Caches reports on and clears the extraction and proxy caches.
type Caches struct {
	Extraction clipper.ExtractionCache
	Proxy      clipper.ProxyCache
	Store      clipper.ExtractionStore
	Config     clipper.Config
	Logger     *slog.Logger
}

// CacheStats returns the combined cache report. Expired entries are swept first.
func (c *Caches) CacheStats() clipper.CacheStats {
	cfg := c.Config.WithDefaults()
	var stats clipper.CacheStats
	if c.Extraction != nil {
		c.Extraction.Sweep()
		stats.ExtractionCache = c.Extraction.Stats()
	}
	if c.Proxy != nil {
		c.Proxy.Sweep()
		stats.ProxyCache = c.Proxy.Stats()
	}
	stats.CacheLimits = clipper.CacheLimits{
		ExtractionTTLSeconds: int(cfg.ExtractionTTL.Seconds()),
		ProxyTTLSeconds:      int(cfg.ProxyTTL.Seconds()),
		ProxyMaxSizeMB:       float64(cfg.ProxyMaxBytes) / (1024 * 1024),
		EvictionTarget:       cfg.EvictionTarget,
		StaleFactor:          cfg.StaleFactor,
	}
	return stats
}

// ClearCaches empties both caches and the durable store.
func (c *Caches) ClearCaches(ctx context.Context) clipper.ClearResult {
	var result clipper.ClearResult
	if c.Extraction != nil {
		result.ExtractionCleared = c.Extraction.Clear()
	}
	if c.Proxy != nil {
		result.ProxyCleared = c.Proxy.Clear()
	}
	if c.Store != nil {
		if _, err := c.Store.DeleteExtractions(ctx); err != nil && c.Logger != nil {
			c.Logger.Warn("clearing extraction store failed", "err", err)
		}
	}
	result.Cleared = result.ExtractionCleared + result.ProxyCleared
	return result
}
