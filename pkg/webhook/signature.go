package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Standard header names for outbound notifications.
const (
	HeaderSignature = "X-Requil-Signature"
	HeaderTimestamp = "X-Requil-Timestamp"
	HeaderID        = "X-Requil-ID"
)

// DefaultMaxAge is the verification freshness window. A correctly signed
// envelope older than this is rejected as a possible replay.
const DefaultMaxAge = 5 * time.Minute

// maxClockSkew tolerates slightly fast sender clocks while still rejecting
// far-future timestamps.
const maxClockSkew = time.Minute

// Headers carries the signature material for one envelope.
type Headers struct {
	Signature string
	Timestamp int64
	ID        string
}

// Apply sets the signature headers on an outbound HTTP request.
func (h Headers) Apply(req *http.Request) {
	req.Header.Set(HeaderSignature, h.Signature)
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(h.Timestamp, 10))
	req.Header.Set(HeaderID, h.ID)
}

// Sign produces signature headers for a payload. The signature binds the
// payload to the current timestamp, so the same payload signed at two
// different moments yields two different signatures while signing the same
// payload with the same timestamp stays deterministic.
func Sign(secret string, payload []byte) (Headers, error) {
	return SignAt(secret, payload, time.Now().Unix())
}

// SignAt signs a payload with an explicit timestamp. Same payload, secret,
// and timestamp always produce the same signature; only the envelope id
// differs between calls.
func SignAt(secret string, payload []byte, timestamp int64) (Headers, error) {
	if secret == "" {
		return Headers{}, fmt.Errorf("%w: secret is required", ErrInvalidConfiguration)
	}
	if len(payload) == 0 {
		return Headers{}, fmt.Errorf("%w: payload cannot be empty", ErrInvalidPayload)
	}

	return Headers{
		Signature: compute(secret, timestamp, payload),
		Timestamp: timestamp,
		ID:        uuid.New().String(),
	}, nil
}

// Verify checks envelope authenticity and freshness. The two checks are
// independent and both must pass: a valid signature on a stale envelope is
// a replay, a fresh envelope with a wrong signature is a forgery. A
// non-positive maxAge applies DefaultMaxAge.
func Verify(secret string, payload []byte, headers Headers, maxAge time.Duration) error {
	if secret == "" {
		return fmt.Errorf("%w: secret is required", ErrInvalidConfiguration)
	}
	if len(payload) == 0 {
		return fmt.Errorf("%w: payload cannot be empty", ErrInvalidPayload)
	}
	if headers.Signature == "" || headers.Timestamp == 0 {
		return ErrMissingHeaders
	}

	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	age := time.Since(time.Unix(headers.Timestamp, 0))
	if age > maxAge {
		return fmt.Errorf("%w: %v old with max age %v", ErrEnvelopeTooOld, age.Truncate(time.Second), maxAge)
	}
	if age < -maxClockSkew {
		return ErrTimestampInFuture
	}

	expected := compute(secret, headers.Timestamp, payload)
	if !hmac.Equal([]byte(expected), []byte(headers.Signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// FromHTTP extracts signature headers from an inbound request, for
// receivers verifying our notifications.
func FromHTTP(h http.Header) (Headers, error) {
	sig := Headers{
		Signature: h.Get(HeaderSignature),
		ID:        h.Get(HeaderID),
	}

	raw := h.Get(HeaderTimestamp)
	if sig.Signature == "" || raw == "" {
		return Headers{}, ErrMissingHeaders
	}

	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return Headers{}, fmt.Errorf("%w: invalid timestamp %q", ErrMissingHeaders, raw)
	}
	sig.Timestamp = ts
	return sig, nil
}

func compute(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
