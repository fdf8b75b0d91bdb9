package mock

import (
	"context"

	"github.com/fwojciec/clipper"
)

var _ clipper.ExtractionService = (*ExtractionService)(nil)

// ExtractionService is a mock implementation of clipper.ExtractionService.
type ExtractionService struct {
	ExtractFn         func(ctx context.Context, url string) *clipper.ExtractionResult
	ExtractMarkdownFn func(ctx context.Context, url string) *clipper.MarkdownResult
}

func (s *ExtractionService) Extract(ctx context.Context, url string) *clipper.ExtractionResult {
	return s.ExtractFn(ctx, url)
}

func (s *ExtractionService) ExtractMarkdown(ctx context.Context, url string) *clipper.MarkdownResult {
	return s.ExtractMarkdownFn(ctx, url)
}

var _ clipper.ProxyService = (*ProxyService)(nil)

// ProxyService is a mock implementation of clipper.ProxyService.
type ProxyService struct {
	FetchPageFn  func(ctx context.Context, url string) (*clipper.ProxyResponse, error)
	FetchImageFn func(ctx context.Context, url string) (*clipper.ProxyResponse, error)
}

func (s *ProxyService) FetchPage(ctx context.Context, url string) (*clipper.ProxyResponse, error) {
	return s.FetchPageFn(ctx, url)
}

func (s *ProxyService) FetchImage(ctx context.Context, url string) (*clipper.ProxyResponse, error) {
	return s.FetchImageFn(ctx, url)
}

var _ clipper.CacheService = (*CacheService)(nil)

// CacheService is a mock implementation of clipper.CacheService.
type CacheService struct {
	CacheStatsFn  func() clipper.CacheStats
	ClearCachesFn func(ctx context.Context) clipper.ClearResult
}

func (s *CacheService) CacheStats() clipper.CacheStats {
	return s.CacheStatsFn()
}

func (s *CacheService) ClearCaches(ctx context.Context) clipper.ClearResult {
	return s.ClearCachesFn(ctx)
}
