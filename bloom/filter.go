// Package bloom implements clipper.URLSet with a Bloom filter. The pipeline
// uses it to remember guessed AMP URLs that turned out not to exist.
package bloom

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/fwojciec/clipper"
)

var _ clipper.URLSet = (*Filter)(nil)

// Filter is a concurrency-safe Bloom filter over URLs. Once the number of
// added URLs reaches its capacity the filter is cleared, so its false
// positive rate stays near the configured one in long-running processes.
type Filter struct {
	mu       sync.Mutex
	f        *bloom.BloomFilter
	capacity uint
	added    uint
}

// NewFilter creates a new Bloom filter sized for n expected items
// with the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f:        bloom.NewWithEstimates(n, fpRate),
		capacity: n,
	}
}

// Add adds a URL to the filter.
func (f *Filter) Add(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.f.TestString(url) {
		return
	}
	if f.added >= f.capacity {
		f.f.ClearAll()
		f.added = 0
	}
	f.f.AddString(url)
	f.added++
}

// Test returns true if the URL might be in the filter.
// False positives are possible; false negatives are not, until the
// filter is cleared.
func (f *Filter) Test(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.f.TestString(url)
}

// EstimatedCount returns the approximate number of items in the filter.
func (f *Filter) EstimatedCount() uint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint(f.f.ApproximatedSize())
}
