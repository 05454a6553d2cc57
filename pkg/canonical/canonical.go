package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var (
	ErrInvalidFields    = errors.New("canonical: invalid snapshot fields")
	ErrEncodingFailed   = errors.New("canonical: encoding failed")
	ErrIntegrityFailure = errors.New("canonical: snapshot id does not match content")
)

// Fields is the ordered set of snapshot attributes that participate in
// content addressing. Anything not listed here (timestamps, audit metadata)
// must never influence the snapshot id.
//
// Preheader and Notes are pointers so that "absent" is representable; both
// absent and explicit null canonicalize to the same bytes.
type Fields struct {
	StableID        string
	CompiledMarkup  string
	VariablesSchema any
	SubjectLines    []string
	Preheader       *string
	Notes           *string
	SafetyFlags     []string
}

func (f Fields) validate() error {
	if f.StableID == "" {
		return fmt.Errorf("%w: stableId is required", ErrInvalidFields)
	}
	if len(f.SubjectLines) == 0 {
		return fmt.Errorf("%w: at least one subject line is required", ErrInvalidFields)
	}
	return nil
}

// Canonicalize returns the deterministic JSON encoding of v: object keys
// sorted recursively, array order preserved, numbers emitted verbatim.
func Canonicalize(v any) ([]byte, error) {
	normalized, err := normalize(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := encode(&buf, normalized); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SnapshotID derives the content address for the given fields: the SHA-256
// digest of the canonical payload, base64 raw-URL encoded (43 characters).
// Pure function: the same fields always yield the same id.
func SnapshotID(f Fields) (string, error) {
	payload, err := Payload(f)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return base64.RawURLEncoding.EncodeToString(sum[:]), nil
}

// Verify recomputes the snapshot id from the fields and compares it to the
// stored id. Used as an optional integrity check when reading snapshots.
func Verify(f Fields, id string) error {
	computed, err := SnapshotID(f)
	if err != nil {
		return err
	}
	if computed != id {
		return fmt.Errorf("%w: expected %s, got %s", ErrIntegrityFailure, id, computed)
	}
	return nil
}

func (f Fields) payloadMap() map[string]any {
	// Nil slices and nil pointers normalize to stable values so that
	// "absent" and "empty" cannot produce two different payloads.
	flags := f.SafetyFlags
	if flags == nil {
		flags = []string{}
	}
	return map[string]any{
		"stableId":        f.StableID,
		"compiledMarkup":  f.CompiledMarkup,
		"variablesSchema": f.VariablesSchema,
		"subjectLines":    f.SubjectLines,
		"preheader":       f.Preheader,
		"notes":           f.Notes,
		"safetyFlags":     flags,
	}
}

// Payload builds the canonical byte payload for the fields. Exposed so
// callers can log or persist the exact bytes that were hashed.
func Payload(f Fields) ([]byte, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	return Canonicalize(f.payloadMap())
}

// normalize round-trips v through encoding/json so that structs, maps, and
// slices all collapse to the same generic shape. UseNumber keeps numeric
// literals byte-stable instead of going through float64 formatting.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrEncodingFailed, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, errors.Join(ErrEncodingFailed, err)
	}
	return out, nil
}

func encode(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		buf.WriteString(val.String())
	case string:
		b, err := json.Marshal(val)
		if err != nil {
			return errors.Join(ErrEncodingFailed, err)
		}
		buf.Write(b)
	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return errors.Join(ErrEncodingFailed, err)
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := encode(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrEncodingFailed, v)
	}
	return nil
}
