package util

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

var (
	// DefaultRate is the default minimum time between requests
	DefaultRate = 1 * time.Second
	// DefaultBurst is the default burst size
	DefaultBurst = 5
)

// RateLimiter implements a token bucket shared by every caller of a client
type RateLimiter struct {
	mu        sync.Mutex
	clock     clockwork.Clock
	last      time.Time
	rate      time.Duration
	tokens    int
	maxTokens int
	jitter    bool
}

// NewRateLimiter creates a new RateLimiter with the specified rate and burst size.
// rate is the minimum time between requests once the burst is spent.
func NewRateLimiter(rate time.Duration, burst int) *RateLimiter {
	r := NewRateLimiterWithClock(rate, burst, clockwork.NewRealClock())
	r.jitter = true
	return r
}

// NewRateLimiterWithClock is NewRateLimiter with an explicit clock.
// Jitter is disabled so waits are predictable under a fake clock.
func NewRateLimiterWithClock(rate time.Duration, burst int, clock clockwork.Clock) *RateLimiter {
	if rate <= 0 {
		rate = DefaultRate
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return &RateLimiter{
		clock:     clock,
		last:      clock.Now(),
		rate:      rate,
		tokens:    burst,
		maxTokens: burst,
	}
}

// Wait blocks until a token is available or the context is cancelled
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	now := r.clock.Now()

	// Refill based on the time passed since the last refill
	if gained := int(now.Sub(r.last) / r.rate); gained > 0 {
		r.tokens += gained
		if r.tokens > r.maxTokens {
			r.tokens = r.maxTokens
		}
		r.last = r.last.Add(time.Duration(gained) * r.rate)
	}

	if r.tokens > 0 {
		r.tokens--
		r.mu.Unlock()
		return nil
	}

	wait := r.rate
	if r.jitter {
		wait += time.Duration(rand.Float64() * 0.2 * float64(r.rate))
	}
	next := r.last.Add(wait)
	// Reserve the slot so concurrent waiters queue behind each other
	r.last = next
	r.mu.Unlock()

	timer := r.clock.NewTimer(next.Sub(now))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}

// Rate returns the minimum time between requests
func (r *RateLimiter) Rate() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rate
}
