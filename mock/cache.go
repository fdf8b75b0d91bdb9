package mock

import (
	"context"
	"time"

	"github.com/fwojciec/clipper"
)

var _ clipper.ExtractionCache = (*ExtractionCache)(nil)

// ExtractionCache is a mock implementation of clipper.ExtractionCache.
type ExtractionCache struct {
	GetFn      func(key string) (*clipper.ExtractionResult, bool)
	GetStaleFn func(key string) (*clipper.ExtractionResult, bool)
	SetFn      func(key string, result *clipper.ExtractionResult)
	SweepFn    func() int
	ClearFn    func() int
	StatsFn    func() clipper.ExtractionCacheStats
}

func (c *ExtractionCache) Get(key string) (*clipper.ExtractionResult, bool) {
	return c.GetFn(key)
}

func (c *ExtractionCache) GetStale(key string) (*clipper.ExtractionResult, bool) {
	return c.GetStaleFn(key)
}

func (c *ExtractionCache) Set(key string, result *clipper.ExtractionResult) {
	c.SetFn(key, result)
}

func (c *ExtractionCache) Sweep() int {
	return c.SweepFn()
}

func (c *ExtractionCache) Clear() int {
	return c.ClearFn()
}

func (c *ExtractionCache) Stats() clipper.ExtractionCacheStats {
	return c.StatsFn()
}

var _ clipper.ProxyCache = (*ProxyCache)(nil)

// ProxyCache is a mock implementation of clipper.ProxyCache.
type ProxyCache struct {
	GetFn   func(key string) (*clipper.ProxyEntry, bool)
	SetFn   func(key string, entry *clipper.ProxyEntry)
	SweepFn func() int
	ClearFn func() int
	StatsFn func() clipper.ProxyCacheStats
}

func (c *ProxyCache) Get(key string) (*clipper.ProxyEntry, bool) {
	return c.GetFn(key)
}

func (c *ProxyCache) Set(key string, entry *clipper.ProxyEntry) {
	c.SetFn(key, entry)
}

func (c *ProxyCache) Sweep() int {
	return c.SweepFn()
}

func (c *ProxyCache) Clear() int {
	return c.ClearFn()
}

func (c *ProxyCache) Stats() clipper.ProxyCacheStats {
	return c.StatsFn()
}

var _ clipper.ExtractionStore = (*ExtractionStore)(nil)

// ExtractionStore is a mock implementation of clipper.ExtractionStore.
type ExtractionStore struct {
	FindExtractionFn    func(ctx context.Context, url string) (*clipper.ExtractionResult, time.Time, error)
	SaveExtractionFn    func(ctx context.Context, url string, result *clipper.ExtractionResult, cachedAt time.Time) error
	DeleteExtractionsFn func(ctx context.Context) (int, error)
}

func (s *ExtractionStore) FindExtraction(ctx context.Context, url string) (*clipper.ExtractionResult, time.Time, error) {
	return s.FindExtractionFn(ctx, url)
}

func (s *ExtractionStore) SaveExtraction(ctx context.Context, url string, result *clipper.ExtractionResult, cachedAt time.Time) error {
	return s.SaveExtractionFn(ctx, url, result, cachedAt)
}

func (s *ExtractionStore) DeleteExtractions(ctx context.Context) (int, error) {
	return s.DeleteExtractionsFn(ctx)
}
