package render

import (
	"encoding/json"
	"fmt"
	"html"
)

// VarKind tags the declared type of a template variable. Dynamic field bags
// are deliberately not supported: every variable is one of the known kinds,
// and anything beyond the declaration is gated by AdditionalProperties.
type VarKind string

const (
	KindString  VarKind = "string"
	KindNumber  VarKind = "number"
	KindBoolean VarKind = "boolean"
)

// Variable declares one expected template variable.
type Variable struct {
	Kind     VarKind `json:"kind" yaml:"kind"`
	Required bool    `json:"required,omitempty" yaml:"required,omitempty"`
	Default  any     `json:"default,omitempty" yaml:"default,omitempty"`
}

// Schema describes the variables a template expects, JSON-schema style.
type Schema struct {
	Variables            map[string]Variable `json:"variables,omitempty" yaml:"variables,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties,omitempty" yaml:"additionalProperties,omitempty"`
}

// Validate checks a caller-supplied variables map against the schema:
// unknown names are rejected unless AdditionalProperties is set, and values
// must match their declared kind.
func (s Schema) Validate(vars map[string]any) error {
	for name, value := range vars {
		decl, declared := s.Variables[name]
		if !declared {
			if s.AdditionalProperties {
				continue
			}
			return fmt.Errorf("%w: undeclared variable %q", ErrInvalidVariables, name)
		}
		if !matchesKind(value, decl.Kind) {
			return fmt.Errorf("%w: variable %q must be %s, got %T", ErrInvalidVariables, name, decl.Kind, value)
		}
	}
	return nil
}

func matchesKind(v any, kind VarKind) bool {
	switch kind {
	case KindString:
		_, ok := v.(string)
		return ok
	case KindNumber:
		switch v.(type) {
		case int, int32, int64, float32, float64, json.Number:
			return true
		}
		return false
	case KindBoolean:
		_, ok := v.(bool)
		return ok
	default:
		// Unknown kinds come from hand-edited schemas; accept rather than
		// block a send over a declaration the renderer cannot interpret.
		return true
	}
}

// formatValue converts a variable value to its textual form for
// substitution. json.Number keeps numeric text verbatim.
// formatValue renders a variable value as text. In HTML contexts the
// result is escaped; only the renderer decides context, never the caller.
func formatValue(v any, escape bool) string {
	var out string
	switch val := v.(type) {
	case string:
		out = val
	case json.Number:
		out = val.String()
	case bool:
		if val {
			out = "true"
		} else {
			out = "false"
		}
	case float64:
		// Trailing-zero-free formatting keeps 42.0 and 42 textually equal.
		out = formatFloat(val)
	default:
		out = fmt.Sprintf("%v", val)
	}
	if escape {
		return html.EscapeString(out)
	}
	return out
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
