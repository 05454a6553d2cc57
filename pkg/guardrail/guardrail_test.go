package guardrail_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/requil/requil/pkg/guardrail"
)

func TestAnalyze_CleanDocumentIsSendReady(t *testing.T) {
	t.Parallel()

	doc := `<html><body>
		<img src="https://cdn.example.com/logo.png" alt="Logo">
		<a href="https://example.com" rel="noopener">Visit us</a>
	</body></html>`

	result, err := guardrail.Analyze(doc)
	require.NoError(t, err)
	assert.True(t, result.SendReady())
	assert.NoError(t, result.Err())
	assert.Empty(t, result.Errors)
}

func TestAnalyze_FlagsDefectsAsErrors(t *testing.T) {
	t.Parallel()

	doc := `<html><body>
		<img src="https://cdn.example.com/banner.png">
		<a href="http://insecure.example.com">Insecure</a>
	</body></html>`

	result, err := guardrail.Analyze(doc)
	require.NoError(t, err)

	assert.False(t, result.SendReady())
	assert.GreaterOrEqual(t, len(result.Errors), 2)

	var gateErr *guardrail.Error
	require.ErrorAs(t, result.Err(), &gateErr)
	assert.Len(t, gateErr.Violations, len(result.Errors))
}

func TestAnalyze_InjectsNoopenerOnExternalAnchors(t *testing.T) {
	t.Parallel()

	doc := `<html><body>
		<a href="https://example.com/one">One</a>
		<a href="https://example.com/two" rel="nofollow">Two</a>
		<a href="https://example.com/three" rel="noopener">Three</a>
		<a href="#section">Internal</a>
	</body></html>`

	result, err := guardrail.Analyze(doc)
	require.NoError(t, err)

	// Every external anchor in the output must carry noopener; the internal
	// fragment link is left alone.
	assert.Contains(t, result.HTML, `href="https://example.com/one" rel="noopener"`)
	assert.Contains(t, result.HTML, `rel="nofollow noopener"`)
	assert.Equal(t, 1, strings.Count(result.HTML, `href="https://example.com/three" rel="noopener"`))
	assert.NotContains(t, result.HTML, `href="#section" rel=`)
	assert.Contains(t, result.Warnings, `added rel="noopener" to 2 external anchor(s)`)
}

func TestAnalyze_RepairNeverDropsContent(t *testing.T) {
	t.Parallel()

	doc := `<html><body><p>Keep me</p><a href="https://example.com">And me</a></body></html>`

	result, err := guardrail.Analyze(doc)
	require.NoError(t, err)
	assert.Contains(t, result.HTML, "Keep me")
	assert.Contains(t, result.HTML, "And me")
}

func TestAnalyze_OversizedDocument(t *testing.T) {
	t.Parallel()

	doc := "<html><body><p>" + strings.Repeat("a", 2048) + "</p></body></html>"

	result, err := guardrail.Analyze(doc, guardrail.WithMaxBytes(1024))
	require.NoError(t, err)
	assert.False(t, result.SendReady())
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "byte ceiling")

	// Default ceiling accepts the same document.
	result, err = guardrail.Analyze(doc)
	require.NoError(t, err)
	assert.True(t, result.SendReady())
}

func TestAnalyze_DecorativeImageWithEmptyAltAllowed(t *testing.T) {
	t.Parallel()

	doc := `<html><body><img src="https://cdn.example.com/spacer.png" alt=""></body></html>`

	result, err := guardrail.Analyze(doc)
	require.NoError(t, err)
	assert.True(t, result.SendReady(), "empty alt marks a decorative image and is valid")
}
