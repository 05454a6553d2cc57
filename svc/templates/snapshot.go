package templates

import (
	"time"

	"github.com/requil/requil/pkg/canonical"
	"github.com/requil/requil/pkg/render"
)

// Snapshot is one immutable published version of a template. Its SnapshotID
// is derived from the content, so two snapshots with the same ID are
// guaranteed to render identically.
type Snapshot struct {
	StableID        string
	SnapshotID      string
	CompiledMarkup  string
	VariablesSchema render.Schema
	SubjectLines    []string
	Preheader       *string
	Notes           *string
	SafetyFlags     []string
	CreatedAt       time.Time
}

// Fields maps the snapshot onto the canonical identity payload. CreatedAt
// is deliberately absent: publishing identical content twice must mint the
// same identifier.
func (s *Snapshot) Fields() canonical.Fields {
	return canonical.Fields{
		StableID:        s.StableID,
		CompiledMarkup:  s.CompiledMarkup,
		VariablesSchema: s.VariablesSchema,
		SubjectLines:    s.SubjectLines,
		Preheader:       s.Preheader,
		Notes:           s.Notes,
		SafetyFlags:     s.SafetyFlags,
	}
}

// Verify recomputes the snapshot's identifier from its content and reports
// whether it still matches SnapshotID.
func (s *Snapshot) Verify() error {
	return canonical.Verify(s.Fields(), s.SnapshotID)
}
