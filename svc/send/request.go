package send

import (
	"errors"
	"fmt"

	"github.com/requil/requil/pkg/transport"
)

// HardBatchCap is the absolute recipient ceiling per request, regardless of
// configuration.
const HardBatchCap = 1000

// DefaultMaxBatchSize is the configured recipient ceiling when no override
// is given.
const DefaultMaxBatchSize = 500

// Recipient is one destination with its personalization variables.
type Recipient struct {
	Email     string         `json:"email"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Request is one send call: a template reference plus a recipient batch.
type Request struct {
	Template       string      `json:"template"`
	To             []Recipient `json:"to"`
	IdempotencyKey string      `json:"idempotencyKey,omitempty"`
}

// Result is the terminal outcome of a send request. It is cached under the
// idempotency key, so duplicates observe the exact same counts.
type Result struct {
	OK         bool     `json:"ok"`
	JobID      string   `json:"jobId"`
	SnapshotID string   `json:"usedTemplateSnapshotId"`
	Sent       int      `json:"sent"`
	Failed     int      `json:"failed"`
	Warnings   []string `json:"warnings,omitempty"`

	// Duplicate marks a result served from the idempotency cache rather
	// than a fresh execution. Not part of the cached payload.
	Duplicate bool `json:"-"`
}

func (r Request) validate(maxBatch int) error {
	if r.Template == "" {
		return errors.Join(ErrValidation, errors.New("template is required"))
	}
	if len(r.To) == 0 {
		return errors.Join(ErrValidation, errors.New("at least one recipient is required"))
	}
	limit := maxBatch
	if limit <= 0 || limit > HardBatchCap {
		limit = HardBatchCap
	}
	if len(r.To) > limit {
		return errors.Join(ErrValidation, fmt.Errorf("batch of %d exceeds the %d recipient limit", len(r.To), limit))
	}
	for i, rcpt := range r.To {
		if !transport.ValidAddress(rcpt.Email) {
			return errors.Join(ErrValidation, fmt.Errorf("recipient %d: invalid address %q", i, rcpt.Email))
		}
	}
	return nil
}
