package logger_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/requil/requil/pkg/logger"
)

func TestGroup(t *testing.T) {
	attr := logger.Group("req", slog.String("id", "1"), slog.Int("n", 2))
	require.Equal(t, "req", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "id", g[0].Key)
	assert.Equal(t, "n", g[1].Key)
}

func TestErrors(t *testing.T) {
	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, err1, g[0].Value.Any())
	assert.Equal(t, err2, g[1].Value.Any())

	empty := logger.Errors(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestError(t *testing.T) {
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	empty := logger.Error(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestTraceID(t *testing.T) {
	attr := logger.TraceID("abc")
	require.Equal(t, "trace_id", attr.Key)
	assert.Equal(t, "abc", attr.Value.Any())

	empty := logger.TraceID("")
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestSnapshotID(t *testing.T) {
	attr := logger.SnapshotID("snap-1")
	require.Equal(t, "snapshot_id", attr.Key)
	assert.Equal(t, "snap-1", attr.Value.Any())
}

func TestJobID(t *testing.T) {
	attr := logger.JobID("job-1")
	require.Equal(t, "job_id", attr.Key)
	assert.Equal(t, "job-1", attr.Value.Any())
}

func TestTemplateID(t *testing.T) {
	attr := logger.TemplateID("welcome")
	require.Equal(t, "template_id", attr.Key)
	assert.Equal(t, "welcome", attr.Value.Any())
}
