package idempotency

import (
	"context"
	"time"
)

// Store is the minimal atomic key-value contract the manager needs. Any
// backend offering an atomic conditional create with TTL can satisfy it;
// the Redis implementation maps it onto SET NX / GET / DEL.
type Store interface {
	// SetNX creates the key with the given TTL only if it does not exist.
	// Returns true when the key was created by this call.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Get reads a key. The second return reports whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}
