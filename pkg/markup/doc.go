// Package markup compiles structural template definitions into email-safe
// HTML documents.
//
// A definition is what the drag-and-drop editor emits: an ordered list of
// sections, each holding blocks (text, heading, button, image, divider,
// spacer, raw HTML). Definitions are accepted as YAML or JSON.
//
// The compiler produces a single self-contained document built from nested
// tables with inline styles only, since email clients cannot be assumed to
// load external stylesheets. Compilation is total over valid definitions:
// recoverable defects (unknown block kind, image without a source) are
// reported as warnings and never abort the pipeline; only unparseable input
// fails hard.
//
// Compilation is byte-deterministic: the same definition always produces the
// same HTML. Snapshot ids and compile caches depend on this.
//
// Markdown in text blocks is rendered with goldmark; raw HTML blocks are
// sanitized with a bluemonday policy restricted to email-safe constructs.
// Variable placeholders ({{name}}) pass through compilation untouched and
// are resolved later by the recipient renderer.
package markup
