package extract

import (
	"context"
	"strings"
	"sync"

	"github.com/fwojciec/clipper"
	"golang.org/x/time/rate"
)

var _ clipper.DomainLimiter = (*DomainLimiter)(nil)

// ImageBurst is the per-host burst used for image proxy fetches. A reader
// page routinely pulls dozens of images from one CDN at once.
const ImageBurst = 32

// DomainLimiter provides per-host rate limiting of outbound fetches using
// token buckets, so fallback refetches do not hammer a single site.
// Hosts are keyed case-insensitively with any leading "www." removed.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

// LimiterOption configures a DomainLimiter.
type LimiterOption func(*DomainLimiter)

// WithBurst sets the number of requests a host may receive at once before
// the rate applies. Values below 1 are ignored.
func WithBurst(n int) LimiterOption {
	return func(d *DomainLimiter) {
		if n >= 1 {
			d.burst = n
		}
	}
}

// NewDomainLimiter creates a DomainLimiter allowing rps requests per second
// per host with a burst of 1 unless WithBurst says otherwise. A non-positive
// rps disables limiting.
func NewDomainLimiter(rps float64, opts ...LimiterOption) *DomainLimiter {
	d := &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Wait blocks until the rate limit allows a request to host.
// Returns an error if the context is canceled before the wait completes.
func (d *DomainLimiter) Wait(ctx context.Context, host string) error {
	if d.rps <= 0 {
		return ctx.Err()
	}

	key := hostKey(host)
	d.mu.Lock()
	limiter, ok := d.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(d.rps), d.burst)
		d.limiters[key] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}

func hostKey(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	return strings.TrimPrefix(host, "www.")
}
