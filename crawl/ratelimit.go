package crawl

import (
	"context"
	"strings"
	"sync"

	"github.com/fwojciec/carlot"
	"golang.org/x/time/rate"
)

var _ carlot.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter provides per-domain rate limiting using token buckets.
// Each domain gets its own limiter so that result pages of one site and
// photos from another CDN are throttled independently. A leading "www." is
// ignored when keying limiters.
type DomainLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	rps       float64
	overrides map[string]float64
}

// LimiterOption configures a DomainLimiter.
type LimiterOption func(*DomainLimiter)

// WithDomainRate sets a specific rate for one domain.
func WithDomainRate(domain string, rps float64) LimiterOption {
	return func(d *DomainLimiter) {
		d.overrides[domainKey(domain)] = rps
	}
}

// NewDomainLimiter creates a new DomainLimiter with the specified requests per second limit.
// Each domain gets its own limiter with a burst of 1 (no bursting allowed).
func NewDomainLimiter(rps float64, opts ...LimiterOption) *DomainLimiter {
	d := &DomainLimiter{
		limiters:  make(map[string]*rate.Limiter),
		rps:       rps,
		overrides: make(map[string]float64),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Wait blocks until the rate limit allows a request to the domain.
// Returns an error if the context is canceled before the wait completes.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	key := domainKey(domain)

	d.mu.Lock()
	limiter, ok := d.limiters[key]
	if !ok {
		rps, ok := d.overrides[key]
		if !ok {
			rps = d.rps
		}
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
		d.limiters[key] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}

func domainKey(domain string) string {
	return strings.TrimPrefix(strings.ToLower(domain), "www.")
}
