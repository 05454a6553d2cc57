package send

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrValidation is returned when the request is structurally invalid
	// before any side effect happens.
	ErrValidation = errors.New("send: invalid request")

	// ErrRequestInFlight is returned when another execution holds the lock
	// for the same idempotency key and no result is cached yet.
	ErrRequestInFlight = errors.New("send: request with this idempotency key is already in flight")
)

// RateLimitError reports a denied request together with the wait the caller
// should observe before retrying.
type RateLimitError struct {
	RetryAfter time.Duration
	ResetAt    time.Time
	Remaining  int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("send: rate limit exceeded, retry after %s", e.RetryAfter)
}
