package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/requil/requil/pkg/retry"
)

func TestBackoff(t *testing.T) {
	t.Parallel()

	initial := 1000 * time.Millisecond
	max := 10000 * time.Millisecond

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 1, want: 1000 * time.Millisecond},
		{attempt: 2, want: 2000 * time.Millisecond},
		{attempt: 3, want: 4000 * time.Millisecond},
		{attempt: 4, want: 8000 * time.Millisecond},
		{attempt: 5, want: 10000 * time.Millisecond},
		{attempt: 10, want: 10000 * time.Millisecond},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, retry.Backoff(tt.attempt, initial, max, 2),
			"attempt %d", tt.attempt)
	}
}

func TestBackoff_NonPositiveAttempt(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Duration(0), retry.Backoff(0, time.Second, time.Minute, 2))
	assert.Equal(t, time.Duration(0), retry.Backoff(-3, time.Second, time.Minute, 2))
}

func fastPolicy(attempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()

	calls := 0
	err := retry.Do(context.Background(), fastPolicy(5), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustionBecomesPermanent(t *testing.T) {
	t.Parallel()

	transient := errors.New("provider outage")
	calls := 0
	err := retry.Do(context.Background(), fastPolicy(3), func(ctx context.Context) error {
		calls++
		return transient
	}, nil)

	assert.ErrorIs(t, err, retry.ErrAttemptsExhausted)
	assert.ErrorIs(t, err, transient, "the underlying cause must survive wrapping")
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentErrorsAreNotRetried(t *testing.T) {
	t.Parallel()

	permanent := errors.New("invalid recipient")
	calls := 0
	err := retry.Do(context.Background(), fastPolicy(5), func(ctx context.Context) error {
		calls++
		return permanent
	}, func(err error) bool { return false })

	assert.ErrorIs(t, err, permanent)
	assert.NotErrorIs(t, err, retry.ErrAttemptsExhausted)
	assert.Equal(t, 1, calls)
}

func TestDo_RespectsContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	policy := retry.Policy{
		MaxAttempts:  5,
		InitialDelay: time.Hour, // the sleep must be interrupted, not served
		MaxDelay:     time.Hour,
		Multiplier:   2,
	}

	done := make(chan error, 1)
	go func() {
		done <- retry.Do(ctx, policy, func(ctx context.Context) error {
			return errors.New("transient")
		}, nil)
	}()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("retry loop did not observe cancellation")
	}
}

func TestPolicy_DelayWithoutJitterIsExact(t *testing.T) {
	t.Parallel()

	p := fastPolicy(3)
	assert.Equal(t, time.Millisecond, p.Delay(1))
	assert.Equal(t, 2*time.Millisecond, p.Delay(2))
}

func TestPolicy_JitterStaysWithinBounds(t *testing.T) {
	t.Parallel()

	p := retry.Policy{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2,
		JitterFactor: 0.5,
	}

	for range 100 {
		d := p.Delay(1)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}
