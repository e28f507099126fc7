package util

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter throttles article fetches per domain so batch runs stay polite
// even when many URLs point at one host.
type Limiter struct {
	mu        sync.Mutex
	perDomain map[string]*rate.Limiter
	rps       rate.Limit
	burst     int
}

// NewLimiter creates a limiter allowing requestsPerSecond per domain.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}
	return &Limiter{
		perDomain: make(map[string]*rate.Limiter),
		rps:       rate.Limit(requestsPerSecond),
		burst:     burst,
	}
}

// Wait blocks until the domain of rawURL has capacity or ctx is done.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	return l.domainLimiter(parsed.Host).Wait(ctx)
}

// Allow reports whether a fetch may proceed right now without waiting.
func (l *Limiter) Allow(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return l.domainLimiter(parsed.Host).Allow()
}

func (l *Limiter) domainLimiter(domain string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.perDomain[domain]; ok {
		return lim
	}
	lim := rate.NewLimiter(l.rps, l.burst)
	l.perDomain[domain] = lim
	return lim
}
