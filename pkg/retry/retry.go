package retry

import (
	"context"
	"time"
)

// Policy defines how a transient-failure operation is retried. Only errors the
// caller's predicate accepts are retried; everything else returns immediately.
type Policy struct {
	// MaxAttempts is the total number of invocations, first call included
	MaxAttempts int

	// BaseDelay is the backoff before the second attempt
	BaseDelay time.Duration

	// Factor is the multiplier applied to the delay after each failed attempt
	Factor float64

	// Sleep is injectable for tests; nil means a context-aware time.Sleep
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy returns the policy used against the market-data provider:
// three attempts with 1s, 2s backoff between them.
func DefaultPolicy() *Policy {
	return &Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Factor:      2.0,
	}
}

// Backoff returns the delay that precedes the given attempt (attempt >= 2).
func (p *Policy) Backoff(attempt int) time.Duration {
	delay := float64(p.BaseDelay)
	for i := 2; i < attempt; i++ {
		delay *= p.Factor
	}
	return time.Duration(delay)
}

func (p *Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do invokes op up to p.MaxAttempts times, sleeping with exponential backoff
// between attempts. The first result whose error is nil or not retryable is
// returned as-is. If every attempt fails with a retryable error, the last one
// is returned. Context expiry during backoff also surfaces the last error, so
// the caller degrades the same way it would on exhaustion.
func Do[T any](ctx context.Context, p *Policy, retryable func(error) bool, op func(context.Context) (T, error)) (T, error) {
	var result T
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		result, lastErr = op(ctx)
		if lastErr == nil || !retryable(lastErr) {
			return result, lastErr
		}

		if attempt == p.MaxAttempts {
			break
		}

		if err := p.sleep(ctx, p.Backoff(attempt+1)); err != nil {
			break
		}
	}

	return result, lastErr
}
