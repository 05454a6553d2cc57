package idempotency

import "errors"

var (
	// ErrConflict indicates the idempotency key was reused with a different
	// request body. Never retried and never silently accepted.
	ErrConflict = errors.New("idempotency: key reused with a different request body")

	// ErrStoreUnavailable indicates the shared store failed. The request
	// must fail closed rather than risk a duplicate execution.
	ErrStoreUnavailable = errors.New("idempotency: store unavailable")

	// ErrInvalidKey indicates an empty or oversized idempotency key.
	ErrInvalidKey = errors.New("idempotency: invalid key")
)
