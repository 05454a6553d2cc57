// Package send implements the dispatch orchestrator: one call validates the
// batch, enforces idempotency and rate limits, resolves the template
// snapshot, re-checks the guardrail gate, renders per recipient, and
// dispatches through the configured provider with bounded retries.
package send

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/requil/requil/pkg/guardrail"
	"github.com/requil/requil/pkg/idempotency"
	"github.com/requil/requil/pkg/logger"
	"github.com/requil/requil/pkg/ratelimiter"
	"github.com/requil/requil/pkg/render"
	"github.com/requil/requil/pkg/retry"
	"github.com/requil/requil/pkg/transport"
	"github.com/requil/requil/svc/templates"
)

// DefaultConcurrency bounds parallel provider calls per request.
const DefaultConcurrency = 8

// Resolver supplies the current snapshot and compiled document for a
// template. Implemented by the templates service.
type Resolver interface {
	Resolve(ctx context.Context, stableID string) (*templates.Resolved, error)
}

// Option configures the Service.
type Option func(*Service)

// WithIdempotency enables at-most-once semantics for requests that carry an
// idempotency key.
func WithIdempotency(m *idempotency.Manager) Option {
	return func(s *Service) { s.idem = m }
}

// WithRateLimiter enforces a per-account send budget.
func WithRateLimiter(l ratelimiter.RateLimiter) Option {
	return func(s *Service) { s.limiter = l }
}

// WithEventSink attaches a webhook event sink.
func WithEventSink(sink EventSink) Option {
	return func(s *Service) { s.events = sink }
}

func WithRetryPolicy(p retry.Policy) Option {
	return func(s *Service) { s.policy = p }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func WithMaxBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBatch = n
		}
	}
}

func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithRenderMode selects strict or permissive placeholder handling.
func WithRenderMode(mode render.Mode) Option {
	return func(s *Service) { s.mode = mode }
}

// Service coordinates the full dispatch pipeline for send requests.
type Service struct {
	resolver    Resolver
	sender      transport.Sender
	from        string
	idem        *idempotency.Manager
	limiter     ratelimiter.RateLimiter
	events      EventSink
	policy      retry.Policy
	log         *slog.Logger
	maxBatch    int
	concurrency int
	mode        render.Mode
}

func New(resolver Resolver, sender transport.Sender, from string, opts ...Option) *Service {
	s := &Service{
		resolver:    resolver,
		sender:      sender,
		from:        from,
		policy:      retry.DefaultPolicy(),
		log:         slog.Default(),
		maxBatch:    DefaultMaxBatchSize,
		concurrency: DefaultConcurrency,
		mode:        render.ModePermissive,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send executes one request for the given account. The account is the rate
// limit subject; the request's idempotency key scopes duplicate detection.
//
// The outcome always reports exact sent and failed counts; a partial
// failure is never collapsed into a full success or a full failure.
func (s *Service) Send(ctx context.Context, account string, req Request) (*Result, error) {
	start := time.Now()
	traceID := uuid.NewString()
	log := s.log.With(
		logger.Component("send"),
		logger.TraceID(traceID),
		logger.TemplateID(req.Template),
	)

	if err := req.validate(s.maxBatch); err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("send: encode request: %w", err)
	}

	locked := false
	if s.idem != nil && req.IdempotencyKey != "" {
		result, err := s.acquire(ctx, req.IdempotencyKey, body)
		if err != nil {
			return nil, err
		}
		if result != nil {
			log.InfoContext(ctx, "duplicate request served from idempotency cache",
				logger.JobID(result.JobID))
			return result, nil
		}
		locked = true
	}

	if s.limiter != nil {
		rl, err := s.limiter.Allow(ctx, account)
		if err != nil {
			s.abandon(ctx, locked, req.IdempotencyKey)
			return nil, err
		}
		if !rl.Allowed {
			s.abandon(ctx, locked, req.IdempotencyKey)
			return nil, &RateLimitError{
				RetryAfter: rl.RetryAfter,
				ResetAt:    rl.ResetAt,
				Remaining:  rl.Remaining,
			}
		}
	}

	resolved, err := s.resolver.Resolve(ctx, req.Template)
	if err != nil {
		s.abandon(ctx, locked, req.IdempotencyKey)
		return nil, err
	}

	// Publish already gated the document, but stores can be tampered with
	// and rules tighten over time, so the gate runs again before dispatch.
	analyzed, err := guardrail.Analyze(resolved.HTML)
	if err != nil {
		s.abandon(ctx, locked, req.IdempotencyKey)
		return nil, err
	}
	if !analyzed.SendReady() {
		s.abandon(ctx, locked, req.IdempotencyKey)
		return nil, analyzed.Err()
	}

	result := s.dispatch(ctx, req, resolved.Snapshot, analyzed.HTML)

	if locked {
		if err := s.idem.StoreResult(ctx, req.IdempotencyKey, result, body); err != nil {
			// The lock is left to expire: releasing it without a stored
			// result would let a retry execute the batch a second time.
			log.ErrorContext(ctx, "failed to cache send result",
				logger.JobID(result.JobID), logger.Error(err))
			result.Warnings = append(result.Warnings, "result caching failed; the idempotency key stays locked until it expires")
		} else if err := s.idem.ReleaseLock(ctx, req.IdempotencyKey); err != nil {
			log.WarnContext(ctx, "failed to release idempotency lock",
				logger.JobID(result.JobID), logger.Error(err))
		}
	}

	s.emit(ctx, log, newEvent(EventSendCompleted, SendCompletedData{
		JobID:      result.JobID,
		Template:   req.Template,
		SnapshotID: result.SnapshotID,
		Sent:       result.Sent,
		Failed:     result.Failed,
	}))

	log.InfoContext(ctx, "send completed",
		logger.JobID(result.JobID),
		logger.SnapshotID(result.SnapshotID),
		slog.Int("sent", result.Sent),
		slog.Int("failed", result.Failed),
		logger.Duration(time.Since(start)),
	)
	return result, nil
}

// acquire runs the duplicate check and takes the execution lock. It returns
// a non-nil result when the request was already completed and the cached
// outcome should be served.
func (s *Service) acquire(ctx context.Context, key string, body []byte) (*Result, error) {
	chk, err := s.idem.Check(ctx, key, body)
	if err != nil {
		return nil, err
	}
	if chk.Duplicate && chk.Result != nil {
		return decodeCached(chk.Result)
	}
	if chk.InFlight {
		return nil, ErrRequestInFlight
	}

	acquired, err := s.idem.AcquireLock(ctx, key, body)
	if err != nil {
		return nil, err
	}
	if !acquired {
		// Lost the race. A completed result may have landed in between.
		chk, err := s.idem.Check(ctx, key, body)
		if err != nil {
			return nil, err
		}
		if chk.Duplicate && chk.Result != nil {
			return decodeCached(chk.Result)
		}
		return nil, ErrRequestInFlight
	}
	return nil, nil
}

// abandon releases the idempotency lock after a failure that happened
// before any message left the building, so the caller may retry freely.
func (s *Service) abandon(ctx context.Context, locked bool, key string) {
	if !locked {
		return
	}
	if err := s.idem.ReleaseLock(ctx, key); err != nil {
		s.log.WarnContext(ctx, "failed to release idempotency lock",
			logger.Component("send"), logger.Error(err))
	}
}

// dispatch renders and sends the batch with bounded concurrency. Individual
// recipient failures are counted, never escalated to a request error.
func (s *Service) dispatch(ctx context.Context, req Request, snap *templates.Snapshot, doc string) *Result {
	result := &Result{
		JobID:      uuid.NewString(),
		SnapshotID: snap.SnapshotID,
	}

	preheader := ""
	if snap.Preheader != nil {
		preheader = *snap.Preheader
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, rcpt := range req.To {
		g.Go(func() error {
			sent, warnings := s.deliver(gctx, rcpt, req.Template, snap, doc, preheader)

			mu.Lock()
			defer mu.Unlock()
			if sent {
				result.Sent++
			} else {
				result.Failed++
			}
			result.Warnings = append(result.Warnings, warnings...)
			return nil
		})
	}
	_ = g.Wait()

	result.OK = result.Failed == 0
	return result
}

// deliver renders and dispatches one message. Returns whether the message
// was accepted and any warnings worth surfacing to the caller.
func (s *Service) deliver(ctx context.Context, rcpt Recipient, tag string, snap *templates.Snapshot, doc, preheader string) (bool, []string) {
	out, err := render.Render(render.Input{
		HTML:         doc,
		SubjectLines: snap.SubjectLines,
		Preheader:    preheader,
		Schema:       snap.VariablesSchema,
		Variables:    rcpt.Variables,
		Recipient:    rcpt.Email,
		Mode:         s.mode,
	})
	if err != nil {
		return false, []string{fmt.Sprintf("%s: render failed: %v", rcpt.Email, err)}
	}

	warnings := make([]string, 0, len(out.Warnings))
	for _, w := range out.Warnings {
		warnings = append(warnings, fmt.Sprintf("%s: %s", rcpt.Email, w))
	}

	msg := transport.Message{
		To:      []string{rcpt.Email},
		From:    s.from,
		Subject: out.UsedSubject,
		HTML:    out.HTML,
		Text:    out.Plaintext,
		Tag:     tag,
	}

	err = retry.Do(ctx, s.policy, func(ctx context.Context) error {
		_, err := s.sender.Send(ctx, msg)
		return err
	}, transport.IsTransient)
	if err != nil {
		if errors.Is(err, retry.ErrAttemptsExhausted) {
			return false, append(warnings, fmt.Sprintf("%s: delivery failed after retries: %v", rcpt.Email, err))
		}
		return false, append(warnings, fmt.Sprintf("%s: delivery failed: %v", rcpt.Email, err))
	}
	return true, warnings
}

func (s *Service) emit(ctx context.Context, log *slog.Logger, event Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Emit(ctx, event); err != nil {
		log.WarnContext(ctx, "webhook event delivery failed",
			logger.Event(event.Type), logger.Error(err))
	}
}

func decodeCached(raw json.RawMessage) (*Result, error) {
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("send: decode cached result: %w", err)
	}
	result.Duplicate = true
	return &result, nil
}
