package send

import (
	"errors"

	"github.com/requil/requil/pkg/render"
	"github.com/requil/requil/pkg/webhook"
)

// Config is the env-driven tuning surface of the orchestrator.
type Config struct {
	SenderAddress string `env:"SENDER_EMAIL,required"`
	MaxBatchSize  int    `env:"SEND_MAX_BATCH_SIZE" envDefault:"500"`
	Concurrency   int    `env:"SEND_DISPATCH_CONCURRENCY" envDefault:"8"`
	RenderMode    string `env:"SEND_RENDER_MODE" envDefault:"permissive"`
	WebhookURL    string `env:"SEND_WEBHOOK_URL"`
	WebhookSecret string `env:"SEND_WEBHOOK_SECRET"`
}

// ErrWebhookConfig indicates the webhook URL and secret were not
// configured together.
var ErrWebhookConfig = errors.New("send: webhook URL and secret must be configured together")

// Options converts the config into service options, including the webhook
// event sink when one is configured.
func (c Config) Options() ([]Option, error) {
	opts := []Option{
		WithMaxBatchSize(c.MaxBatchSize),
		WithConcurrency(c.Concurrency),
	}
	if c.RenderMode == string(render.ModeStrict) {
		opts = append(opts, WithRenderMode(render.ModeStrict))
	}

	sink, err := c.EventSink()
	if err != nil {
		return nil, err
	}
	if sink != nil {
		opts = append(opts, WithEventSink(sink))
	}
	return opts, nil
}

// EventSink builds the signed webhook sink from the config. Returns nil
// when no webhook is configured; a URL without a secret (or the reverse)
// is a configuration error, never a silently unsigned delivery.
func (c Config) EventSink() (EventSink, error) {
	if c.WebhookURL == "" && c.WebhookSecret == "" {
		return nil, nil
	}
	if c.WebhookURL == "" || c.WebhookSecret == "" {
		return nil, ErrWebhookConfig
	}
	sender, err := webhook.NewSender(c.WebhookSecret)
	if err != nil {
		return nil, err
	}
	return NewWebhookSink(sender, c.WebhookURL), nil
}
