package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/requil/requil/pkg/retry"
)

// Sender delivers signed event notifications over HTTP.
// Zero value is not usable; use NewSender.
type Sender struct {
	client *http.Client
	secret string
	policy retry.Policy
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

// WithHTTPClient replaces the default client, for custom transports or
// tests.
func WithHTTPClient(client *http.Client) SenderOption {
	return func(s *Sender) {
		if client != nil {
			s.client = client
		}
	}
}

// WithRetryPolicy overrides the delivery retry budget.
func WithRetryPolicy(p retry.Policy) SenderOption {
	return func(s *Sender) { s.policy = p }
}

// NewSender creates a sender that signs every delivery with the given
// secret. The default client pools connections per endpoint and bounds each
// request to ten seconds.
func NewSender(secret string, opts ...SenderOption) (*Sender, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: secret is required", ErrInvalidConfiguration)
	}

	s := &Sender{
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		secret: secret,
		policy: retry.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Send marshals the event to JSON, signs it, and posts it to the endpoint
// with bounded retries. HTTP 4xx responses never retry; network errors and
// 5xx responses follow the backoff schedule until the budget is spent.
func (s *Sender) Send(ctx context.Context, endpoint string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: cannot marshal event: %w", ErrInvalidPayload, err)
	}
	if err := validateEndpoint(endpoint); err != nil {
		return err
	}

	err = retry.Do(ctx, s.policy, func(ctx context.Context) error {
		return s.attempt(ctx, endpoint, payload)
	}, func(err error) bool {
		return !errors.Is(err, ErrPermanentFailure)
	})
	if err != nil {
		return errors.Join(ErrDeliveryFailed, err)
	}
	return nil
}

func (s *Sender) attempt(ctx context.Context, endpoint string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return errors.Join(ErrPermanentFailure, err)
	}

	// Each attempt gets a fresh timestamp and id, so receivers can apply
	// their freshness window to the attempt they actually received.
	headers, err := Sign(s.secret, payload)
	if err != nil {
		return errors.Join(ErrPermanentFailure, err)
	}
	headers.Apply(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
		return fmt.Errorf("%w: endpoint answered %d", ErrPermanentFailure, resp.StatusCode)
	default:
		return fmt.Errorf("endpoint answered %d", resp.StatusCode)
	}
}

func validateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return errors.Join(ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	return nil
}
