package fetchers

import (
	"context"
	"sync"
	"time"
)

// hostLimiter is a simple token-bucket rate limiter scoped to one
// scraper host, since each upstream RapidAPI host enforces its own
// independent quota.
type hostLimiter struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	perSecond  float64
	lastRefill time.Time
}

// newHostLimiter builds a limiter allowing ratePerSecond sustained
// requests per second, bursting up to one second's worth of tokens. A
// non-positive rate disables limiting.
func newHostLimiter(ratePerSecond float64) *hostLimiter {
	if ratePerSecond <= 0 {
		return nil
	}
	return &hostLimiter{
		tokens:     ratePerSecond,
		maxTokens:  ratePerSecond,
		perSecond:  ratePerSecond,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available or ctx is cancelled.
func (l *hostLimiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	for {
		l.mu.Lock()
		l.refillLocked()
		if l.tokens >= 1 {
			l.tokens--
			l.mu.Unlock()
			return nil
		}
		deficit := 1 - l.tokens
		wait := time.Duration(deficit/l.perSecond*1000) * time.Millisecond
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *hostLimiter) refillLocked() {
	now := time.Now()
	elapsed := now.Sub(l.lastRefill).Seconds()
	l.tokens += elapsed * l.perSecond
	if l.tokens > l.maxTokens {
		l.tokens = l.maxTokens
	}
	l.lastRefill = now
}
