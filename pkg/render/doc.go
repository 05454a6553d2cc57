// Package render personalizes compiled template output for one recipient.
//
// Rendering substitutes {{name}} placeholders in the compiled HTML, the
// chosen subject line, and the preheader against the caller-supplied
// variables map, falling back to defaults declared in the variables schema.
// Two modes exist: strict rendering fails on any placeholder that cannot be
// resolved, permissive rendering leaves a visible [missing: name] token and
// records a warning. Content is never silently blanked.
//
// Subject selection is deterministic and reproducible for audit: the FNV-1a
// hash of the recipient address modulo the number of subject lines picks the
// line, so a given recipient always sees the same variant. Without a
// recipient address the first line is used.
//
// A plaintext body is derived from the rendered HTML by structural text
// extraction so every message can be sent as multipart: block-level elements
// become line breaks and links surface their target as a trailing
// parenthetical.
package render
