package ratelimiter

import "context"

// Store is the storage contract for bucket state. Implementations must make
// the read-refill-consume sequence atomic per key; no cross-key locking is
// required.
type Store interface {
	// ConsumeTokens refills the bucket for the elapsed time, then consumes
	// the requested tokens if enough are available. Tokens are never
	// consumed on denial.
	ConsumeTokens(ctx context.Context, key string, tokens int, cfg Config) (State, error)

	// Reset clears the bucket state for the given key.
	Reset(ctx context.Context, key string) error
}
