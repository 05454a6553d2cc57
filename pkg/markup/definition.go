package markup

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/requil/requil/pkg/canonical"
)

// BlockKind identifies the kind of a content block.
type BlockKind string

const (
	BlockText    BlockKind = "text"
	BlockHeading BlockKind = "heading"
	BlockButton  BlockKind = "button"
	BlockImage   BlockKind = "image"
	BlockDivider BlockKind = "divider"
	BlockSpacer  BlockKind = "spacer"
	BlockRaw     BlockKind = "raw"
)

// Definition is the structural template a caller publishes. Field order and
// content are semantically significant; two definitions that differ in any
// field compile to different documents and mint different snapshot ids.
type Definition struct {
	Name       string    `json:"name" yaml:"name"`
	Width      int       `json:"width,omitempty" yaml:"width,omitempty"`
	Background string    `json:"background,omitempty" yaml:"background,omitempty"`
	Sections   []Section `json:"sections" yaml:"sections"`
}

// Section is a horizontal band of the document holding an ordered block list.
type Section struct {
	Background string  `json:"background,omitempty" yaml:"background,omitempty"`
	Padding    int     `json:"padding,omitempty" yaml:"padding,omitempty"`
	Blocks     []Block `json:"blocks" yaml:"blocks"`
}

// Block is a single content unit. Which fields apply depends on Kind;
// irrelevant fields are ignored by the compiler.
type Block struct {
	Kind BlockKind `json:"kind" yaml:"kind"`

	// text, heading
	Text  string `json:"text,omitempty" yaml:"text,omitempty"`
	Level int    `json:"level,omitempty" yaml:"level,omitempty"`

	// button
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	URL   string `json:"url,omitempty" yaml:"url,omitempty"`

	// image
	Src   string `json:"src,omitempty" yaml:"src,omitempty"`
	Alt   string `json:"alt,omitempty" yaml:"alt,omitempty"`
	Width int    `json:"width,omitempty" yaml:"width,omitempty"`

	// spacer
	Height int `json:"height,omitempty" yaml:"height,omitempty"`

	// raw
	HTML string `json:"html,omitempty" yaml:"html,omitempty"`

	Align string `json:"align,omitempty" yaml:"align,omitempty"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
}

// ParseDefinition decodes a YAML or JSON definition. JSON is a subset of
// YAML, so a single decoder covers both formats the editor layer produces.
func ParseDefinition(raw []byte) (*Definition, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrUnparseableDefinition)
	}

	var def Definition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, errors.Join(ErrUnparseableDefinition, err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks the structural requirements that make a definition
// compilable at all. Per-block defects are softer and surface as compile
// warnings instead.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	if len(d.Sections) == 0 {
		return fmt.Errorf("%w: at least one section is required", ErrInvalidDefinition)
	}
	if d.Width < 0 {
		return fmt.Errorf("%w: width must not be negative", ErrInvalidDefinition)
	}
	return nil
}

// Source returns the canonical serialized form of the definition. This is
// the `compiledMarkup` stored on a snapshot: a byte-stable representation of
// the dialect source, independent of whether the caller submitted YAML or
// JSON and of map iteration order.
func Source(d *Definition) (string, error) {
	b, err := canonical.Canonicalize(d)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
