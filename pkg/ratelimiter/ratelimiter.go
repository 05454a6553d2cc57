package ratelimiter

import (
	"context"
	"fmt"
)

// RateLimiter is the admission-control interface the send orchestrator
// consults per subject key.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
	AllowN(ctx context.Context, key string, n int) (*Result, error)
}

// Bucket implements a token bucket rate limiter over a Store.
type Bucket struct {
	store  Store
	config Config
}

// NewBucket creates a token bucket limiter with the given budget.
func NewBucket(store Store, config Config) (*Bucket, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &Bucket{store: store, config: config}, nil
}

// NewBucketForTier creates a limiter with a named tier's budget.
func NewBucketForTier(store Store, tier Tier) (*Bucket, error) {
	return NewBucket(store, TierConfig(tier))
}

func (tb *Bucket) Allow(ctx context.Context, key string) (*Result, error) {
	return tb.AllowN(ctx, key, 1)
}

func (tb *Bucket) AllowN(ctx context.Context, key string, n int) (*Result, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: must be positive, got %d", ErrInvalidTokenCount, n)
	}
	if float64(n) > tb.config.Capacity() {
		return nil, fmt.Errorf("%w: %d exceeds bucket capacity %d", ErrInvalidTokenCount, n, int(tb.config.Capacity()))
	}

	state, err := tb.store.ConsumeTokens(ctx, key, n, tb.config)
	if err != nil {
		return nil, err
	}
	return state.result(tb.config, n), nil
}

// Status returns the current bucket state without consuming tokens.
func (tb *Bucket) Status(ctx context.Context, key string) (*Result, error) {
	state, err := tb.store.ConsumeTokens(ctx, key, 0, tb.config)
	if err != nil {
		return nil, err
	}
	return state.result(tb.config, 0), nil
}

// Reset clears the bucket for a key, restoring full capacity.
func (tb *Bucket) Reset(ctx context.Context, key string) error {
	return tb.store.Reset(ctx, key)
}

func (c Config) validate() error {
	if c.Rate <= 0 {
		return fmt.Errorf("%w: rate must be positive, got %v", ErrInvalidConfig, c.Rate)
	}
	if c.Burst < 1 {
		return fmt.Errorf("%w: burst multiplier must be at least 1, got %v", ErrInvalidConfig, c.Burst)
	}
	return nil
}
