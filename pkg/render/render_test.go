package render_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/requil/requil/pkg/render"
)

func greetingInput() render.Input {
	return render.Input{
		HTML:         `<html><body><p>Hello {{firstName}}</p></body></html>`,
		SubjectLines: []string{"Hi {{firstName}}"},
		Schema: render.Schema{
			Variables: map[string]render.Variable{
				"firstName": {Kind: render.KindString, Default: "Friend"},
			},
		},
		Variables: map[string]any{"firstName": "John"},
		Recipient: "john@example.com",
		Mode:      render.ModePermissive,
	}
}

func TestRender_SubstitutesVariables(t *testing.T) {
	t.Parallel()

	out, err := render.Render(greetingInput())
	require.NoError(t, err)

	assert.Contains(t, out.HTML, "Hello John")
	assert.Equal(t, "Hi John", out.UsedSubject)
	assert.Contains(t, out.Plaintext, "Hello John")
	assert.Empty(t, out.Warnings)
}

func TestRender_EscapesVariableValuesInHTML(t *testing.T) {
	t.Parallel()

	in := greetingInput()
	in.Variables = map[string]any{
		"firstName": `<img src=x onerror=alert(1)><a href="http://evil.example">x</a>`,
	}

	out, err := render.Render(in)
	require.NoError(t, err)

	// A recipient's variables must never add markup to the document: the
	// guardrail gate ran before substitution, so anything injected here
	// would bypass it.
	assert.NotContains(t, out.HTML, "<img")
	assert.NotContains(t, out.HTML, `href="http://evil.example"`)
	assert.NotContains(t, out.HTML, "onerror")
	assert.Contains(t, out.HTML, "&lt;img")
	assert.Contains(t, out.HTML, "&lt;a href=")
}

func TestRender_EscapesPreheaderAndDefaults(t *testing.T) {
	t.Parallel()

	in := greetingInput()
	in.Preheader = "From {{firstName}}"
	in.Schema.Variables["firstName"] = render.Variable{
		Kind:    render.KindString,
		Default: `<b>bold</b>`,
	}
	in.Variables = nil

	out, err := render.Render(in)
	require.NoError(t, err)

	assert.NotContains(t, out.HTML, "<b>bold</b>")
	assert.Contains(t, out.HTML, "&lt;b&gt;bold&lt;/b&gt;")
}

func TestRender_SubjectStaysVerbatim(t *testing.T) {
	t.Parallel()

	in := greetingInput()
	in.Variables = map[string]any{"firstName": "Q&A <team>"}

	out, err := render.Render(in)
	require.NoError(t, err)

	// The subject is a plain-text context; escaping there would show
	// entities to the reader.
	assert.Equal(t, "Hi Q&A <team>", out.UsedSubject)
	assert.Contains(t, out.HTML, "Hello Q&amp;A &lt;team&gt;")
}

func TestRender_FallsBackToSchemaDefault(t *testing.T) {
	t.Parallel()

	in := greetingInput()
	in.Variables = nil

	out, err := render.Render(in)
	require.NoError(t, err)
	assert.Contains(t, out.HTML, "Hello Friend")
	assert.Equal(t, "Hi Friend", out.UsedSubject)
	assert.Empty(t, out.Warnings)
}

func TestRender_MissingVariableByMode(t *testing.T) {
	t.Parallel()

	base := func() render.Input {
		in := greetingInput()
		in.Schema = render.Schema{
			Variables: map[string]render.Variable{
				"firstName": {Kind: render.KindString, Required: true},
			},
		}
		in.Variables = nil
		return in
	}

	t.Run("permissive leaves a visible token and warns", func(t *testing.T) {
		t.Parallel()

		in := base()
		out, err := render.Render(in)
		require.NoError(t, err)
		assert.Contains(t, out.HTML, "[missing: firstName]")
		assert.NotContains(t, out.HTML, "Hello </p>", "content must never be silently blanked")
		assert.NotEmpty(t, out.Warnings)
	})

	t.Run("strict fails", func(t *testing.T) {
		t.Parallel()

		in := base()
		in.Mode = render.ModeStrict
		_, err := render.Render(in)
		assert.ErrorIs(t, err, render.ErrMissingVariable)
	})
}

func TestRender_SchemaValidation(t *testing.T) {
	t.Parallel()

	t.Run("undeclared variable rejected", func(t *testing.T) {
		t.Parallel()

		in := greetingInput()
		in.Variables = map[string]any{"firstName": "John", "rogue": "x"}
		_, err := render.Render(in)
		assert.ErrorIs(t, err, render.ErrInvalidVariables)
	})

	t.Run("undeclared variable allowed with additionalProperties", func(t *testing.T) {
		t.Parallel()

		in := greetingInput()
		in.Schema.AdditionalProperties = true
		in.Variables = map[string]any{"firstName": "John", "rogue": "x"}
		_, err := render.Render(in)
		assert.NoError(t, err)
	})

	t.Run("kind mismatch rejected", func(t *testing.T) {
		t.Parallel()

		in := greetingInput()
		in.Variables = map[string]any{"firstName": 42}
		_, err := render.Render(in)
		assert.ErrorIs(t, err, render.ErrInvalidVariables)
	})
}

func TestRender_SubjectSelectionIsStablePerRecipient(t *testing.T) {
	t.Parallel()

	in := greetingInput()
	in.SubjectLines = []string{"Variant A", "Variant B", "Variant C"}
	in.Variables = map[string]any{"firstName": "John"}

	first, err := render.Render(in)
	require.NoError(t, err)

	// The same recipient must land on the same variant every time.
	for range 10 {
		again, err := render.Render(in)
		require.NoError(t, err)
		assert.Equal(t, first.UsedSubject, again.UsedSubject)
	}

	// Without a recipient address the first line is the documented choice.
	in.Recipient = ""
	out, err := render.Render(in)
	require.NoError(t, err)
	assert.Equal(t, "Variant A", out.UsedSubject)
}

func TestRender_PreheaderInjectedButHiddenFromPlaintext(t *testing.T) {
	t.Parallel()

	in := greetingInput()
	in.Preheader = "Your {{firstName}} update"

	out, err := render.Render(in)
	require.NoError(t, err)
	assert.Contains(t, out.HTML, "Your John update")
	assert.Contains(t, out.HTML, "display:none")
	assert.NotContains(t, out.Plaintext, "Your John update")
}

func TestRender_InvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*render.Input)
	}{
		{name: "empty html", mutate: func(in *render.Input) { in.HTML = "" }},
		{name: "no subject lines", mutate: func(in *render.Input) { in.SubjectLines = nil }},
		{name: "unknown mode", mutate: func(in *render.Input) { in.Mode = "lenient" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := greetingInput()
			tt.mutate(&in)
			_, err := render.Render(in)
			assert.ErrorIs(t, err, render.ErrInvalidInput)
		})
	}
}

func TestExtractPlaintext(t *testing.T) {
	t.Parallel()

	doc := `<html><body>
		<h1>Welcome</h1>
		<p>Glad to have <strong>you</strong> here.</p>
		<p><a href="https://app.example.com">Open your dashboard</a></p>
	</body></html>`

	text := render.ExtractPlaintext(doc)

	assert.Contains(t, text, "Welcome")
	assert.Contains(t, text, "Glad to have you here.")
	assert.Contains(t, text, "Open your dashboard (https://app.example.com)")
	assert.False(t, strings.Contains(text, "<"), "no markup in plaintext")
}

func TestRender_PlaintextNeverEmpty(t *testing.T) {
	t.Parallel()

	in := greetingInput()
	in.HTML = `<html><body><img src="https://cdn.example.com/banner.png" alt=""></body></html>`

	out, err := render.Render(in)
	require.NoError(t, err)
	assert.NotEmpty(t, out.Plaintext)
}
