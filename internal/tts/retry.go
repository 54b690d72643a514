package tts

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Policy describes bounded exponential backoff around the synthesis call.
// It is a plain value so tests can drive it with a fake sleep and a fixed
// random source.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// BaseDelay is the delay before the first retry; each further retry
	// doubles it up to MaxDelay.
	BaseDelay time.Duration
	// MaxDelay caps the per-retry delay.
	MaxDelay time.Duration
	// Jitter is the fraction of the delay randomized in both directions,
	// in [0, 1].
	Jitter float64

	// Sleep waits for the given duration or until the context is done.
	// Nil selects the real clock.
	Sleep func(ctx context.Context, d time.Duration) error
	// Rand returns a value in [0, 1). Nil selects math/rand.
	Rand func() float64
}

// DefaultPolicy returns the retry policy used for production synthesis calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 4,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Jitter:      0.2,
	}
}

// Do runs fn up to MaxAttempts times, backing off between attempts. Only
// errors for which Retryable reports true are retried; anything else is
// returned as-is. Context expiry during a backoff wait is surfaced as a
// TransientError so callers treat an overall timeout like any other
// connection-level failure.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := p.wait(ctx, p.delay(attempt-1)); err != nil {
				return err
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		if !Retryable(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("tts: %d attempts exhausted: %w", attempts, lastErr)
}

// delay computes the backoff before the given retry (1-based).
func (p Policy) delay(retry int) time.Duration {
	d := p.BaseDelay
	if d <= 0 {
		d = time.Second
	}
	for i := 1; i < retry; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			d = p.MaxDelay
			break
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}

	if p.Jitter > 0 {
		r := p.Rand
		if r == nil {
			r = rand.Float64
		}
		// Spread the delay across [d*(1-jitter), d*(1+jitter)].
		d = time.Duration(float64(d) * (1 + p.Jitter*(2*r()-1)))
	}
	return d
}

func (p Policy) wait(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return &TransientError{Err: fmt.Errorf("backoff interrupted: %w", ctx.Err())}
	case <-timer.C:
		return nil
	}
}
