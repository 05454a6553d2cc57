package transport

import (
	"context"
	"fmt"
	"regexp"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Message is one fully rendered email ready for provider dispatch.
type Message struct {
	To      []string
	From    string
	Subject string
	HTML    string
	Text    string
	Tag     string
}

// Receipt is the provider's acknowledgement of an accepted message.
type Receipt struct {
	MessageID string
	Accepted  []string
}

// Sender is the provider abstraction the orchestrator dispatches through.
type Sender interface {
	Send(ctx context.Context, msg Message) (*Receipt, error)
}

// Validate checks the message is dispatchable at all. Content problems are
// the pipeline's responsibility; this guards the provider boundary.
func (m Message) Validate() error {
	if len(m.To) == 0 {
		return fmt.Errorf("%w: at least one recipient is required", ErrInvalidMessage)
	}
	for _, addr := range m.To {
		if !emailRegex.MatchString(addr) {
			return fmt.Errorf("%w: recipient %q is not a valid address", ErrInvalidMessage, addr)
		}
	}
	if m.From != "" && !emailRegex.MatchString(m.From) {
		return fmt.Errorf("%w: sender %q is not a valid address", ErrInvalidMessage, m.From)
	}
	if m.Subject == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	}
	if m.HTML == "" {
		return fmt.Errorf("%w: html body is required", ErrInvalidMessage)
	}
	if m.Text == "" {
		return fmt.Errorf("%w: text body is required for multipart delivery", ErrInvalidMessage)
	}
	return nil
}

// ValidAddress reports whether a single address passes the same check the
// provider boundary applies.
func ValidAddress(addr string) bool {
	return emailRegex.MatchString(addr)
}
