package ratelimiter

import (
	"math"
	"time"
)

// Config defines the token bucket shape for one tier.
type Config struct {
	// Rate is the sustained refill rate in tokens per second.
	Rate float64
	// Burst is the multiplier applied to Rate to size the bucket, so the
	// capacity tolerates short spikes. Must be at least 1.
	Burst float64
}

// Capacity is the maximum token count the bucket can hold.
func (c Config) Capacity() float64 {
	return c.Rate * c.Burst
}

// Tier names a preconfigured rate budget.
type Tier string

const (
	// TierBaseline is the default workspace budget.
	TierBaseline Tier = "baseline"
	// TierElevated is the raised budget for upgraded workspaces.
	TierElevated Tier = "elevated"
)

// TierConfig returns the bucket configuration for a named tier. Unknown
// tiers fall back to the baseline budget.
func TierConfig(t Tier) Config {
	switch t {
	case TierElevated:
		return Config{Rate: 100, Burst: 2}
	default:
		return Config{Rate: 10, Burst: 2}
	}
}

// Result reports the outcome of an admission check.
type Result struct {
	// Allowed reports whether the request fits the budget. Tokens are only
	// consumed when true.
	Allowed bool
	// Limit is the bucket capacity, rounded down.
	Limit int
	// Remaining is the whole number of tokens left.
	Remaining int
	// RetryAfter is how long until enough tokens accumulate for the denied
	// request. Zero when allowed.
	RetryAfter time.Duration
	// ResetAt is when the bucket is back at full capacity.
	ResetAt time.Time
}

// State is the raw bucket state a Store returns. The limiter converts it
// into a Result.
type State struct {
	Allowed   bool
	Remaining float64
	ResetAt   time.Time
}

func (s State) result(cfg Config, requested int) *Result {
	r := &Result{
		Allowed:   s.Allowed,
		Limit:     int(cfg.Capacity()),
		Remaining: int(math.Floor(s.Remaining)),
		ResetAt:   s.ResetAt,
	}
	if !s.Allowed && cfg.Rate > 0 {
		deficit := float64(requested) - s.Remaining
		r.RetryAfter = time.Duration(deficit / cfg.Rate * float64(time.Second))
	}
	return r
}
