package mock

import (
	"context"

	"github.com/fwojciec/clipper"
)

var _ clipper.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of clipper.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, req clipper.FetchRequest) (*clipper.FetchResult, error)
}

func (f *Fetcher) Fetch(ctx context.Context, req clipper.FetchRequest) (*clipper.FetchResult, error) {
	return f.FetchFn(ctx, req)
}

var _ clipper.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of clipper.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}
