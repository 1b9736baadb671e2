// Package retry runs an operation under a bounded retry policy with
// exponential backoff. The same Policy drives interactive queries and
// batch capability probing.
package retry

import (
	"context"
	"time"

	"github.com/teranos/skosprobe/errors"
)

// MaxDelay bounds a single backoff wait. Doubling past it would overflow
// time.Duration long before any endpoint recovers.
const MaxDelay = 10 * time.Minute

// MaxRetries bounds Policy.Retries as accepted from configuration.
const MaxRetries = 20

// Policy describes how many times to retry and how long to wait in between.
type Policy struct {
	// Retries is the number of additional attempts after the first (total attempts = Retries+1).
	Retries int

	// BaseDelay is the wait after the first failed attempt. It doubles each time.
	BaseDelay time.Duration

	// ShouldRetry decides whether a failed attempt may be retried. nil retries everything.
	ShouldRetry func(err error) bool

	// OnRetry is called before each backoff sleep. Observational only.
	OnRetry func(attempt int, delay time.Duration, err error)

	// Sleep waits for d or until ctx is done. nil uses SleepContext.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Delay returns the backoff before retrying failed attempt n (1-based):
// BaseDelay * 2^(n-1), clamped to MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 || p.BaseDelay <= 0 {
		return 0
	}
	if p.BaseDelay >= MaxDelay {
		return MaxDelay
	}
	shift := uint(attempt - 1)
	if shift >= 63 || p.BaseDelay > MaxDelay>>shift {
		return MaxDelay
	}
	return p.BaseDelay << shift
}

// Attempts returns the total number of attempts the policy allows.
func (p Policy) Attempts() int {
	if p.Retries < 0 {
		return 1
	}
	return p.Retries + 1
}

// Do runs fn until it succeeds, fails with a non-retryable error, the policy
// is exhausted, or ctx is done. Attempts are strictly sequential and numbered
// from 1. On exhaustion the last error is returned unchanged.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	var lastErr error

	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	total := p.Attempts()
	for attempt := 1; attempt <= total; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx, attempt)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if p.ShouldRetry != nil && !p.ShouldRetry(err) {
			return zero, err
		}
		if attempt == total {
			break
		}

		delay := p.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}

	if lastErr == nil {
		return zero, errors.WithStack(errors.ErrNoAttempts)
	}
	return zero, lastErr
}

// SleepContext waits for d, returning early with ctx.Err() if ctx is done first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
