// Package guardrail runs a static safety pass over compiled email HTML.
//
// One traversal of the parsed document flags deliverability and
// accessibility defects and applies safe, non-semantic repairs. Errors gate
// the pipeline: a document with errors is not send-ready and must be
// rejected at publish time and re-checked before dispatch. Warnings are
// informational and never block a send.
//
// The analyzer never mutates stored snapshots; repairs only affect the
// returned document.
package guardrail

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultMaxBytes is the document size ceiling. Many inbox providers clip
// or reject HTML beyond roughly this size.
const DefaultMaxBytes = 150 * 1024

// Error signals that a document failed the guardrail gate. It carries the
// full violation list so callers can surface every defect at once.
type Error struct {
	Violations []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("guardrail: document is not send-ready: %s", strings.Join(e.Violations, "; "))
}

// Result is the outcome of one analysis pass. HTML is the repaired document;
// the input is never modified in place.
type Result struct {
	HTML     string
	Warnings []string
	Errors   []string

	repaired int
}

// SendReady reports whether the document passed the gate.
func (r *Result) SendReady() bool { return len(r.Errors) == 0 }

// Err returns a gate error carrying the violations, or nil when send-ready.
func (r *Result) Err() error {
	if r.SendReady() {
		return nil
	}
	return &Error{Violations: r.Errors}
}

// Option configures an analysis pass.
type Option func(*config)

type config struct {
	maxBytes int
}

// WithMaxBytes overrides the document size ceiling.
func WithMaxBytes(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// Analyze runs the guardrail pass over a compiled document:
//
//   - every <img> without an alt attribute is an error,
//   - every http:// (non-secure) link target is an error,
//   - external anchors lacking rel="noopener" are repaired in the returned
//     document by injecting it,
//   - documents over the byte ceiling are an error.
func Analyze(doc string, opts ...Option) (*Result, error) {
	cfg := config{maxBytes: DefaultMaxBytes}
	for _, opt := range opts {
		opt(&cfg)
	}

	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("guardrail: cannot parse document: %w", err)
	}

	result := &Result{}
	inspect(root, result)

	if result.repaired > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("added rel=\"noopener\" to %d external anchor(s)", result.repaired))
	}

	var b strings.Builder
	if err := html.Render(&b, root); err != nil {
		return nil, fmt.Errorf("guardrail: cannot serialize document: %w", err)
	}
	result.HTML = b.String()

	switch {
	case len(result.HTML) > cfg.maxBytes:
		result.Errors = append(result.Errors,
			fmt.Sprintf("document is %d bytes, over the %d byte ceiling", len(result.HTML), cfg.maxBytes))
	case len(result.HTML) > cfg.maxBytes/2:
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("document is %d bytes, more than half the %d byte ceiling", len(result.HTML), cfg.maxBytes))
	}

	return result, nil
}

func inspect(n *html.Node, result *Result) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Img:
			inspectImage(n, result)
		case atom.A:
			inspectAnchor(n, result)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		inspect(c, result)
	}
}

func inspectImage(n *html.Node, result *Result) {
	if !hasAttr(n, "alt") {
		result.Errors = append(result.Errors,
			fmt.Sprintf("image %q has no alt text", attrValue(n, "src")))
	}
	if strings.HasPrefix(attrValue(n, "src"), "http://") {
		result.Errors = append(result.Errors,
			fmt.Sprintf("image %q uses a non-secure http:// source", attrValue(n, "src")))
	}
}

func inspectAnchor(n *html.Node, result *Result) {
	href := attrValue(n, "href")
	if href == "" {
		return
	}

	if strings.HasPrefix(href, "http://") {
		result.Errors = append(result.Errors,
			fmt.Sprintf("link %q uses non-secure http://", href))
	}

	if !isExternal(href) {
		return
	}

	// Repair rather than flag: adding rel="noopener" cannot change how the
	// message reads, so it is safe to do silently.
	rel := attrValue(n, "rel")
	if !containsToken(rel, "noopener") {
		setAttr(n, "rel", strings.TrimSpace(rel+" noopener"))
		result.repaired++
	}
}

func isExternal(href string) bool {
	return strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://")
}

func containsToken(list, token string) bool {
	for _, t := range strings.Fields(list) {
		if strings.EqualFold(t, token) {
			return true
		}
	}
	return false
}

func hasAttr(n *html.Node, name string) bool {
	for _, a := range n.Attr {
		if a.Key == name {
			return true
		}
	}
	return false
}

func attrValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}
