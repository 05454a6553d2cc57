// Package canonical provides deterministic serialization and content
// addressing for template snapshots.
//
// A snapshot id is the SHA-256 digest of the canonical JSON encoding of the
// snapshot's meaningful fields, encoded with base64 raw-URL encoding. The
// canonical encoding sorts object keys recursively, preserves array order,
// and substitutes an explicit null for absent optional fields, so the same
// logical content always produces the same bytes regardless of how the input
// was constructed.
//
// Usage:
//
//	id, err := canonical.SnapshotID(canonical.Fields{
//	    StableID:       "welcome-email",
//	    CompiledMarkup: source,
//	    SubjectLines:   []string{"Welcome!"},
//	})
//
// The same function is used to mint ids at publish time and to verify the
// integrity of stored snapshots on read: recompute the id from the stored
// fields and compare it to the stored id.
package canonical
