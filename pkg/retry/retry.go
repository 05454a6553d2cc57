// Package retry computes bounded exponential backoff schedules and drives
// retry loops for transient failures.
//
// Backoff is a pure function over the attempt number; the orchestrator and
// the webhook sender share it so every outbound retry in the system follows
// the same curve. Exhausting the attempt budget converts a transient
// failure into a permanent one surfaced to the caller.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// ErrAttemptsExhausted marks a transient failure that used up its retry
// budget and is now permanent from the caller's point of view.
var ErrAttemptsExhausted = errors.New("retry: attempts exhausted")

// Backoff returns the delay before the given retry. Attempt numbering
// starts at 1: the first retry waits initial, each following retry grows by
// multiplier, and the delay never exceeds max.
//
//	Backoff(1, 1s, 10s, 2) == 1s
//	Backoff(2, 1s, 10s, 2) == 2s
//	Backoff(5, 1s, 10s, 2) == 10s (capped)
func Backoff(attempt int, initial, max time.Duration, multiplier float64) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := float64(initial) * math.Pow(multiplier, float64(attempt-1))
	if delay > float64(max) {
		return max
	}
	return time.Duration(delay)
}

// Policy bounds a retry loop.
type Policy struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int
	// InitialDelay is the wait before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the exponential growth.
	MaxDelay time.Duration
	// Multiplier is the per-retry growth factor.
	Multiplier float64
	// JitterFactor randomizes each delay by up to the given fraction to
	// spread retries from concurrent callers. Zero keeps delays exact.
	JitterFactor float64
}

// DefaultPolicy matches the transport retry budget: three attempts with
// one-second initial delay doubling up to thirty seconds.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
	}
}

// Delay returns the wait before retry number attempt (starting at 1),
// with jitter applied when configured.
func (p Policy) Delay(attempt int) time.Duration {
	delay := Backoff(attempt, p.InitialDelay, p.MaxDelay, p.Multiplier)
	if p.JitterFactor > 0 && delay > 0 {
		spread := (rand.Float64()*2 - 1) * p.JitterFactor
		delay = time.Duration(float64(delay) * (1 + spread))
	}
	return delay
}

// Do runs fn until it succeeds, fails permanently, or the attempt budget is
// spent. retryable classifies errors; a nil classifier retries everything.
// The sleep between attempts respects context cancellation.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error, retryable func(error) bool) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Delay(attempt - 1)):
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
	}

	return errors.Join(ErrAttemptsExhausted, lastErr)
}
