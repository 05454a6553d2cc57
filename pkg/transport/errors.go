package transport

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMessage = errors.New("transport: invalid message")
	ErrInvalidConfig  = errors.New("transport: invalid configuration")
)

// Error classifies a delivery failure. Transient failures may be retried
// under the backoff policy; permanent ones are terminal for the recipient.
type Error struct {
	Provider  string
	Transient bool
	Err       error
}

func (e *Error) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("transport: %s failure from %s: %v", kind, e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Transient wraps err as a retry-eligible failure.
func Transient(provider string, err error) *Error {
	return &Error{Provider: provider, Transient: true, Err: err}
}

// Permanent wraps err as a terminal failure.
func Permanent(provider string, err error) *Error {
	return &Error{Provider: provider, Transient: false, Err: err}
}

// IsTransient reports whether err is a retry-eligible delivery failure.
// Unclassified errors are treated as permanent: retrying what we do not
// understand risks duplicate delivery.
func IsTransient(err error) bool {
	var te *Error
	return errors.As(err, &te) && te.Transient
}
