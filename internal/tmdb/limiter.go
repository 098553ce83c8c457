package tmdb

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Limiter is the process-wide gate for outbound upstream requests. It
// enforces two limits jointly: permits per second (token bucket, burst equal
// to the per-second rate) and a cap on concurrent in-flight requests. Both
// must be acquired before a request leaves the process.
type Limiter struct {
	tokens *rate.Limiter
	slots  *semaphore.Weighted
}

// NewLimiter builds a limiter for ratePerSec permits/sec and maxInFlight
// concurrent requests.
func NewLimiter(ratePerSec, maxInFlight int) *Limiter {
	return &Limiter{
		tokens: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec),
		slots:  semaphore.NewWeighted(int64(maxInFlight)),
	}
}

// Acquire blocks until a connection slot and a rate token are both held, or
// the context is cancelled. The caller must Release the slot when the
// request completes.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.slots.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire connection slot: %w", err)
	}
	if err := l.tokens.Wait(ctx); err != nil {
		l.slots.Release(1)
		return fmt.Errorf("acquire rate token: %w", err)
	}
	return nil
}

// Release frees the connection slot held by a completed request.
func (l *Limiter) Release() {
	l.slots.Release(1)
}
