// Package bloom provides listing deduplication using Bloom filters.
package bloom

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Filter remembers listing keys (site/sourceID) seen during a scrape run.
// The Bloom filter answers the common "never seen" case; its positives are
// confirmed against the exact key set, so no listing is ever dropped as a
// false duplicate. It is safe for concurrent use.
type Filter struct {
	mu             sync.Mutex
	f              *bloom.BloomFilter
	keys           map[string]struct{}
	falsePositives int
}

// NewFilter creates a filter sized for n expected listings with the given
// Bloom false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f:    bloom.NewWithEstimates(n, fpRate),
		keys: make(map[string]struct{}),
	}
}

// Seen records key and reports whether it was recorded before.
func (f *Filter) Seen(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	maybe := f.f.TestOrAddString(key)
	if _, ok := f.keys[key]; ok {
		return true
	}
	if maybe {
		f.falsePositives++
	}
	f.keys[key] = struct{}{}
	return false
}

// Test reports whether key might have been recorded. It never records.
func (f *Filter) Test(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.f.TestString(key)
}

// Len returns the number of distinct keys recorded.
func (f *Filter) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.keys)
}

// FalsePositives returns how many new keys the Bloom filter alone would
// have reported as duplicates.
func (f *Filter) FalsePositives() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.falsePositives
}
