package templates_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/requil/requil/pkg/canonical"
	"github.com/requil/requil/pkg/guardrail"
	"github.com/requil/requil/pkg/render"
	"github.com/requil/requil/svc/templates"
)

const welcomeDefinition = `
name: welcome
sections:
  - blocks:
      - kind: heading
        text: "Welcome aboard, {{name}}!"
      - kind: text
        text: "We are glad you are here."
      - kind: button
        label: "Open dashboard"
        url: "https://app.example.com/dashboard"
`

func publishInput() templates.PublishInput {
	return templates.PublishInput{
		StableID:   "welcome",
		Definition: []byte(welcomeDefinition),
		Schema: render.Schema{
			Variables: map[string]render.Variable{
				"name": {Kind: "string", Required: true},
			},
		},
		SubjectLines: []string{"Welcome!", "You made it"},
	}
}

func TestService_PublishAndResolve(t *testing.T) {
	t.Parallel()

	svc := templates.New(templates.NewMemoryStore())

	res, err := svc.Publish(context.Background(), publishInput())
	require.NoError(t, err)
	require.NotNil(t, res.Snapshot)

	assert.Len(t, res.Snapshot.SnapshotID, 43)
	assert.Equal(t, "welcome", res.Snapshot.StableID)
	assert.NotEmpty(t, res.HTML)
	assert.Contains(t, res.HTML, "{{name}}")
	assert.NoError(t, res.Snapshot.Verify())

	resolved, err := svc.Resolve(context.Background(), "welcome")
	require.NoError(t, err)
	assert.Equal(t, res.Snapshot.SnapshotID, resolved.Snapshot.SnapshotID)
	assert.Equal(t, res.HTML, resolved.HTML)
}

func TestService_PublishIsDeterministic(t *testing.T) {
	t.Parallel()

	svc := templates.New(templates.NewMemoryStore())

	first, err := svc.Publish(context.Background(), publishInput())
	require.NoError(t, err)

	second, err := svc.Publish(context.Background(), publishInput())
	require.NoError(t, err)

	assert.Equal(t, first.Snapshot.SnapshotID, second.Snapshot.SnapshotID)
}

func TestService_PublishRejectsGuardrailViolations(t *testing.T) {
	t.Parallel()

	in := publishInput()
	in.Definition = []byte(`
name: welcome
sections:
  - blocks:
      - kind: button
        label: "Open"
        url: "http://insecure.example.com"
`)

	svc := templates.New(templates.NewMemoryStore())
	_, err := svc.Publish(context.Background(), in)
	require.Error(t, err)

	var gerr *guardrail.Error
	require.ErrorAs(t, err, &gerr)
	assert.NotEmpty(t, gerr.Violations)
}

func TestService_PublishValidatesInput(t *testing.T) {
	t.Parallel()

	svc := templates.New(templates.NewMemoryStore())

	in := publishInput()
	in.SubjectLines = nil
	_, err := svc.Publish(context.Background(), in)
	assert.ErrorIs(t, err, templates.ErrInvalidInput)

	in = publishInput()
	in.StableID = ""
	_, err = svc.Publish(context.Background(), in)
	assert.ErrorIs(t, err, templates.ErrInvalidInput)
}

func TestService_ResolveUnknownTemplate(t *testing.T) {
	t.Parallel()

	svc := templates.New(templates.NewMemoryStore())
	_, err := svc.Resolve(context.Background(), "missing")
	assert.ErrorIs(t, err, templates.ErrTemplateNotFound)
}

func TestService_ResolveSnapshotDetectsTampering(t *testing.T) {
	t.Parallel()

	store := templates.NewMemoryStore()
	svc := templates.New(store)

	res, err := svc.Publish(context.Background(), publishInput())
	require.NoError(t, err)

	// Corrupt the stored content while keeping the original ID.
	tampered := *res.Snapshot
	tampered.SubjectLines = []string{"Totally different"}
	require.NoError(t, store.SaveSnapshot(context.Background(), &tampered))

	_, err = svc.ResolveSnapshot(context.Background(), res.Snapshot.SnapshotID)
	assert.ErrorIs(t, err, canonical.ErrIntegrityFailure)
}

func TestService_RecompileAfterCacheLoss(t *testing.T) {
	t.Parallel()

	store := templates.NewMemoryStore()

	first := templates.New(store)
	res, err := first.Publish(context.Background(), publishInput())
	require.NoError(t, err)

	// A fresh service instance has a cold cache and must rebuild the
	// document from the stored markup.
	second := templates.New(store)
	resolved, err := second.Resolve(context.Background(), "welcome")
	require.NoError(t, err)
	assert.Equal(t, res.HTML, resolved.HTML)
}

func TestService_Rollback(t *testing.T) {
	t.Parallel()

	svc := templates.New(templates.NewMemoryStore())
	ctx := context.Background()

	v1, err := svc.Publish(ctx, publishInput())
	require.NoError(t, err)

	in := publishInput()
	in.SubjectLines = []string{"Updated subject"}
	v2, err := svc.Publish(ctx, in)
	require.NoError(t, err)
	require.NotEqual(t, v1.Snapshot.SnapshotID, v2.Snapshot.SnapshotID)

	resolved, err := svc.Resolve(ctx, "welcome")
	require.NoError(t, err)
	assert.Equal(t, v2.Snapshot.SnapshotID, resolved.Snapshot.SnapshotID)

	require.NoError(t, svc.Rollback(ctx, "welcome", v1.Snapshot.SnapshotID))

	resolved, err = svc.Resolve(ctx, "welcome")
	require.NoError(t, err)
	assert.Equal(t, v1.Snapshot.SnapshotID, resolved.Snapshot.SnapshotID)

	err = svc.Rollback(ctx, "other-template", v1.Snapshot.SnapshotID)
	assert.ErrorIs(t, err, templates.ErrSnapshotMismatch)
}

func TestService_History(t *testing.T) {
	t.Parallel()

	svc := templates.New(templates.NewMemoryStore())
	ctx := context.Background()

	v1, err := svc.Publish(ctx, publishInput())
	require.NoError(t, err)

	in := publishInput()
	in.SubjectLines = []string{"Second version"}
	v2, err := svc.Publish(ctx, in)
	require.NoError(t, err)

	history, err := svc.History(ctx, "welcome")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, v1.Snapshot.SnapshotID, history[0].SnapshotID)
	assert.Equal(t, v2.Snapshot.SnapshotID, history[1].SnapshotID)
}
