package templates

import "errors"

var (
	// ErrInvalidInput is returned when a publish request is structurally
	// incomplete (missing stable ID, definition, or subject lines).
	ErrInvalidInput = errors.New("templates: invalid publish input")

	// ErrTemplateNotFound is returned when no published snapshot exists
	// for the requested stable ID.
	ErrTemplateNotFound = errors.New("templates: template not found")

	// ErrSnapshotNotFound is returned when the requested snapshot ID is
	// unknown to the store.
	ErrSnapshotNotFound = errors.New("templates: snapshot not found")

	// ErrSnapshotMismatch is returned by Rollback when the snapshot exists
	// but belongs to a different template.
	ErrSnapshotMismatch = errors.New("templates: snapshot belongs to another template")
)
