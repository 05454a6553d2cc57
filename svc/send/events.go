package send

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/requil/requil/pkg/webhook"
)

// Event types emitted over the webhook channel.
const (
	EventSendCompleted = "send.completed"
)

// Event is the envelope delivered to webhook consumers.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

// SendCompletedData describes a finished dispatch job.
type SendCompletedData struct {
	JobID      string `json:"jobId"`
	Template   string `json:"template"`
	SnapshotID string `json:"snapshotId"`
	Sent       int    `json:"sent"`
	Failed     int    `json:"failed"`
}

// EventSink receives pipeline events. Delivery is best effort; a sink
// failure never changes the outcome of the request that produced the event.
type EventSink interface {
	Emit(ctx context.Context, event Event) error
}

// WebhookSink delivers events to a single signed webhook endpoint.
type WebhookSink struct {
	sender   *webhook.Sender
	endpoint string
}

func NewWebhookSink(sender *webhook.Sender, endpoint string) *WebhookSink {
	return &WebhookSink{sender: sender, endpoint: endpoint}
}

func (s *WebhookSink) Emit(ctx context.Context, event Event) error {
	return s.sender.Send(ctx, s.endpoint, event)
}

func newEvent(eventType string, data any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}
