package transport

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"
)

type resendSender struct {
	client *resend.Client
	config Config
}

// NewResendSender creates a Resend-backed sender.
func NewResendSender(cfg Config) (Sender, error) {
	if cfg.ResendAPIKey == "" {
		return nil, fmt.Errorf("%w: ResendAPIKey is required", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}

	return &resendSender{
		client: resend.NewClient(cfg.ResendAPIKey),
		config: cfg,
	}, nil
}

func (s *resendSender) Send(ctx context.Context, msg Message) (*Receipt, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	from := msg.From
	if from == "" {
		from = s.config.SenderEmail
	}

	req := &resend.SendEmailRequest{
		From:    from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: s.config.ReplyToEmail,
	}
	if msg.Tag != "" {
		req.Tags = []resend.Tag{{Name: "tag", Value: msg.Tag}}
	}

	sent, err := s.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		// The SDK flattens API and network failures into one error; treat
		// them as transient and let the retry budget bound the damage.
		return nil, Transient("resend", err)
	}

	return &Receipt{MessageID: sent.Id, Accepted: msg.To}, nil
}
