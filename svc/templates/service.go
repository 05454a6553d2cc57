// Package templates implements the publish pipeline: a structural template
// definition is compiled, vetted, content-addressed, and stored as an
// immutable snapshot that the send path resolves by stable ID.
package templates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/requil/requil/pkg/cache"
	"github.com/requil/requil/pkg/canonical"
	"github.com/requil/requil/pkg/guardrail"
	"github.com/requil/requil/pkg/logger"
	"github.com/requil/requil/pkg/markup"
	"github.com/requil/requil/pkg/render"
)

// DefaultLocalCacheSize bounds the per-instance compiled output cache.
const DefaultLocalCacheSize = 256

// PublishInput carries everything the editor submits on publish.
type PublishInput struct {
	StableID     string
	Definition   []byte
	Schema       render.Schema
	SubjectLines []string
	Preheader    *string
	Notes        *string
}

// PublishResult is the outcome of a successful publish.
type PublishResult struct {
	Snapshot *Snapshot
	// HTML is the compiled and repaired document, already cached.
	HTML string
	// Warnings combines compiler and guardrail warnings.
	Warnings []string
}

// Resolved pairs a snapshot with its ready-to-render document.
type Resolved struct {
	Snapshot *Snapshot
	HTML     string
}

// Option configures the Service.
type Option func(*Service)

// WithContentCache attaches a shared cache layer for compiled output.
func WithContentCache(cc ContentCache) Option {
	return func(s *Service) { s.content = cc }
}

// WithLocalCacheSize overrides the in-process cache capacity.
func WithLocalCacheSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.local = cache.NewLRUCache[string, string](n)
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// Service owns template publishing and snapshot resolution.
type Service struct {
	store   Store
	content ContentCache
	local   *cache.LRUCache[string, string]
	log     *slog.Logger
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		local: cache.NewLRUCache[string, string](DefaultLocalCacheSize),
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish compiles the definition, runs the guardrail gate, mints the
// content-addressed snapshot ID, persists the snapshot, and makes it the
// current version of the template. Guardrail violations reject the publish.
func (s *Service) Publish(ctx context.Context, in PublishInput) (*PublishResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	def, err := markup.ParseDefinition(in.Definition)
	if err != nil {
		return nil, err
	}

	compiled, err := markup.Compile(def)
	if err != nil {
		return nil, err
	}

	analyzed, err := guardrail.Analyze(compiled.HTML)
	if err != nil {
		return nil, err
	}
	if !analyzed.SendReady() {
		return nil, analyzed.Err()
	}

	source, err := markup.Source(def)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		StableID:        in.StableID,
		CompiledMarkup:  source,
		VariablesSchema: in.Schema,
		SubjectLines:    in.SubjectLines,
		Preheader:       in.Preheader,
		Notes:           in.Notes,
		SafetyFlags:     analyzed.Warnings,
		CreatedAt:       time.Now().UTC(),
	}

	id, err := canonical.SnapshotID(snap.Fields())
	if err != nil {
		return nil, err
	}
	snap.SnapshotID = id

	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("templates: save snapshot: %w", err)
	}
	if err := s.store.SetCurrent(ctx, in.StableID, id); err != nil {
		return nil, fmt.Errorf("templates: set current snapshot: %w", err)
	}

	s.cacheHTML(ctx, id, analyzed.HTML)

	s.log.InfoContext(ctx, "template published",
		logger.Component("templates"),
		logger.TemplateID(in.StableID),
		logger.SnapshotID(id),
	)

	warnings := append(append([]string{}, compiled.Warnings...), analyzed.Warnings...)
	return &PublishResult{Snapshot: snap, HTML: analyzed.HTML, Warnings: warnings}, nil
}

// Resolve returns the current snapshot of the template together with its
// compiled document.
func (s *Service) Resolve(ctx context.Context, stableID string) (*Resolved, error) {
	id, err := s.store.CurrentSnapshotID(ctx, stableID)
	if err != nil {
		return nil, err
	}
	return s.ResolveSnapshot(ctx, id)
}

// ResolveSnapshot returns one exact snapshot with its compiled document,
// verifying content integrity before use. Compiled output is served from
// the in-process cache, then the shared cache, then recompiled from the
// stored markup.
func (s *Service) ResolveSnapshot(ctx context.Context, snapshotID string) (*Resolved, error) {
	snap, err := s.store.GetSnapshot(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	if err := snap.Verify(); err != nil {
		return nil, err
	}

	if html, ok := s.local.Get(snapshotID); ok {
		return &Resolved{Snapshot: snap, HTML: html}, nil
	}

	if s.content != nil {
		html, ok, err := s.content.Get(ctx, htmlKey(snapshotID))
		if err != nil {
			s.log.WarnContext(ctx, "shared compile cache unavailable",
				logger.Component("templates"), logger.Error(err))
		} else if ok {
			s.local.Put(snapshotID, html)
			return &Resolved{Snapshot: snap, HTML: html}, nil
		}
	}

	html, err := s.recompile(ctx, snap)
	if err != nil {
		return nil, err
	}
	return &Resolved{Snapshot: snap, HTML: html}, nil
}

// Rollback makes an earlier snapshot the current version of the template.
// The snapshot content is untouched; only the current pointer moves.
func (s *Service) Rollback(ctx context.Context, stableID, snapshotID string) error {
	snap, err := s.store.GetSnapshot(ctx, snapshotID)
	if err != nil {
		return err
	}
	if snap.StableID != stableID {
		return ErrSnapshotMismatch
	}
	if err := s.store.SetCurrent(ctx, stableID, snapshotID); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "template rolled back",
		logger.Component("templates"),
		logger.TemplateID(stableID),
		logger.SnapshotID(snapshotID),
	)
	return nil
}

// History lists the template's snapshots in publish order.
func (s *Service) History(ctx context.Context, stableID string) ([]*Snapshot, error) {
	return s.store.ListSnapshots(ctx, stableID)
}

// recompile rebuilds the document from the stored canonical markup after a
// cache miss. The guardrail pass is re-applied so the output matches what
// was cached at publish time.
func (s *Service) recompile(ctx context.Context, snap *Snapshot) (string, error) {
	def, err := markup.ParseDefinition([]byte(snap.CompiledMarkup))
	if err != nil {
		return "", fmt.Errorf("templates: stored markup unparseable: %w", err)
	}
	compiled, err := markup.Compile(def)
	if err != nil {
		return "", fmt.Errorf("templates: recompile: %w", err)
	}
	analyzed, err := guardrail.Analyze(compiled.HTML)
	if err != nil {
		return "", fmt.Errorf("templates: recompile analysis: %w", err)
	}

	s.cacheHTML(ctx, snap.SnapshotID, analyzed.HTML)
	return analyzed.HTML, nil
}

func (s *Service) cacheHTML(ctx context.Context, snapshotID, html string) {
	s.local.Put(snapshotID, html)
	if s.content == nil {
		return
	}
	if err := s.content.Set(ctx, htmlKey(snapshotID), html); err != nil {
		s.log.WarnContext(ctx, "shared compile cache write failed",
			logger.Component("templates"),
			logger.SnapshotID(snapshotID),
			logger.Error(err),
		)
	}
}

func htmlKey(snapshotID string) string { return "cache:html:" + snapshotID }

func validateInput(in PublishInput) error {
	switch {
	case in.StableID == "":
		return errors.Join(ErrInvalidInput, errors.New("stable ID is required"))
	case len(in.Definition) == 0:
		return errors.Join(ErrInvalidInput, errors.New("definition is required"))
	case len(in.SubjectLines) == 0:
		return errors.Join(ErrInvalidInput, errors.New("at least one subject line is required"))
	}
	for _, subj := range in.SubjectLines {
		if subj == "" {
			return errors.Join(ErrInvalidInput, errors.New("subject lines must be non-empty"))
		}
	}
	return nil
}
