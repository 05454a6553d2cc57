package webhook

import "errors"

var (
	ErrInvalidConfiguration = errors.New("webhook: invalid configuration")
	ErrInvalidPayload       = errors.New("webhook: invalid payload")
	ErrInvalidSignature     = errors.New("webhook: signature mismatch")
	ErrEnvelopeTooOld       = errors.New("webhook: envelope is older than the allowed age")
	ErrTimestampInFuture    = errors.New("webhook: envelope timestamp is in the future")
	ErrMissingHeaders       = errors.New("webhook: missing signature headers")
	ErrDeliveryFailed       = errors.New("webhook: delivery failed")
	ErrPermanentFailure     = errors.New("webhook: permanent delivery failure")
	ErrInvalidURL           = errors.New("webhook: invalid url")
)
