package render

import (
	"fmt"
	"hash/fnv"
	"html"
	"regexp"
	"strings"
)

// Mode controls how unresolvable placeholders are handled.
type Mode string

const (
	// ModeStrict fails the render when any placeholder cannot be resolved.
	ModeStrict Mode = "strict"
	// ModePermissive leaves a visible [missing: name] token and records a
	// warning. Content is never silently removed.
	ModePermissive Mode = "permissive"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)

// Input carries everything needed to personalize one message.
type Input struct {
	HTML         string
	SubjectLines []string
	Preheader    string
	Schema       Schema
	Variables    map[string]any
	Recipient    string
	Mode         Mode
}

// Output is the personalized message content.
type Output struct {
	HTML        string
	UsedSubject string
	Plaintext   string
	Warnings    []string
}

// Render substitutes variables into the compiled HTML, subject, and
// preheader for a single recipient and derives the plaintext body.
func Render(in Input) (*Output, error) {
	if in.HTML == "" {
		return nil, fmt.Errorf("%w: html is required", ErrInvalidInput)
	}
	if len(in.SubjectLines) == 0 {
		return nil, fmt.Errorf("%w: at least one subject line is required", ErrInvalidInput)
	}
	mode := in.Mode
	if mode == "" {
		mode = ModePermissive
	}
	if mode != ModeStrict && mode != ModePermissive {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, mode)
	}

	if err := in.Schema.Validate(in.Variables); err != nil {
		return nil, err
	}

	sub := substituter{
		schema: in.Schema,
		vars:   in.Variables,
		strict: mode == ModeStrict,
	}

	subject, err := sub.apply(selectSubject(in.SubjectLines, in.Recipient))
	if err != nil {
		return nil, err
	}

	body := in.HTML
	if in.Preheader != "" {
		preheader, err := sub.applyHTML(in.Preheader)
		if err != nil {
			return nil, err
		}
		body = injectPreheader(body, preheader)
	}

	renderedHTML, err := sub.applyHTML(body)
	if err != nil {
		return nil, err
	}

	plaintext := ExtractPlaintext(renderedHTML)
	if plaintext == "" {
		// The multipart contract requires a non-empty text part whenever
		// there is an HTML part. A subject-only fallback is the floor.
		plaintext = subject
	}

	return &Output{
		HTML:        renderedHTML,
		UsedSubject: subject,
		Plaintext:   plaintext,
		Warnings:    sub.warnings,
	}, nil
}

// selectSubject picks a subject line deterministically. The FNV-1a hash of
// the recipient address modulo the line count keeps per-recipient A/B
// assignment stable across sends; an empty recipient always gets line zero.
func selectSubject(lines []string, recipient string) string {
	if len(lines) == 1 || recipient == "" {
		return lines[0]
	}
	h := fnv.New32a()
	h.Write([]byte(recipient))
	return lines[int(h.Sum32())%len(lines)]
}

type substituter struct {
	schema   Schema
	vars     map[string]any
	strict   bool
	warnings []string
}

// apply substitutes placeholders verbatim. Used for the subject, which is
// a plain-text context.
func (s *substituter) apply(text string) (string, error) {
	return s.substitute(text, false)
}

// applyHTML substitutes placeholders into an HTML context. Values are
// HTML-escaped: the compiler escapes every piece of static text and
// sanitizes raw blocks, and the guardrail gate runs before substitution,
// so a verbatim value would be the one path for a recipient's variables to
// smuggle markup into the document.
func (s *substituter) applyHTML(text string) (string, error) {
	return s.substitute(text, true)
}

func (s *substituter) substitute(text string, escape bool) (string, error) {
	var failed error
	out := placeholderRe.ReplaceAllStringFunc(text, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]

		if value, ok := s.vars[name]; ok {
			return formatValue(value, escape)
		}
		if decl, ok := s.schema.Variables[name]; ok && decl.Default != nil {
			return formatValue(decl.Default, escape)
		}

		if s.strict {
			if failed == nil {
				failed = fmt.Errorf("%w: %q has no value and no default", ErrMissingVariable, name)
			}
			return match
		}
		s.warnings = append(s.warnings, fmt.Sprintf("variable %q has no value and no default", name))
		return "[missing: " + name + "]"
	})
	if failed != nil {
		return "", failed
	}
	return out, nil
}

// injectPreheader inserts the hidden preview text right after the opening
// body tag so inbox clients pick it up as the message preview.
func injectPreheader(doc, preheader string) string {
	span := `<div style="display:none;max-height:0px;overflow:hidden;">` + html.EscapeString(preheader) + `</div>`

	idx := strings.Index(doc, "<body")
	if idx == -1 {
		return span + doc
	}
	end := strings.Index(doc[idx:], ">")
	if end == -1 {
		return span + doc
	}
	insertAt := idx + end + 1
	return doc[:insertAt] + span + doc[insertAt:]
}
