// Package catalog holds the registry of industry label templates and sample
// programs.
//
// Templates are data: an ordered field schema plus a layout of blocks that
// the recipe package turns into fragments. The registry is loaded from YAML,
// TOML or JSON files; [Default] returns the embedded catalog.
//
//	reg, _ := catalog.Default()
//	tmpl, _ := reg.Lookup("logistics", "shipping")
//	for _, issue := range tmpl.Check(data) {
//	    fmt.Println(issue)
//	}
package catalog

import (
	"fmt"

	"github.com/matzehuels/zplkit/pkg/zpl"
)

// FieldKind is the kind of value a field holds.
type FieldKind string

// Field kinds.
const (
	KindText    FieldKind = "text"
	KindBarcode FieldKind = "barcode"
	KindQRCode  FieldKind = "qrcode"
)

// Valid reports whether k is a known kind.
func (k FieldKind) Valid() bool {
	return k == KindText || k == KindBarcode || k == KindQRCode
}

// Field is one entry in a template's form schema.
type Field struct {
	Key      string    `json:"key" yaml:"key" toml:"key"`
	Label    string    `json:"label" yaml:"label" toml:"label"`
	Kind     FieldKind `json:"kind" yaml:"kind" toml:"kind"`
	Required bool      `json:"required,omitempty" yaml:"required" toml:"required"`
}

// Block places static text or a field value on the label. Coordinates and
// sizes are printer dots.
type Block struct {
	Field     string    `json:"field,omitempty" yaml:"field" toml:"field"`
	Text      string    `json:"text,omitempty" yaml:"text" toml:"text"`
	Kind      FieldKind `json:"kind,omitempty" yaml:"kind" toml:"kind"`
	X         int       `json:"x" yaml:"x" toml:"x"`
	Y         int       `json:"y" yaml:"y" toml:"y"`
	FontSize  int       `json:"font_size,omitempty" yaml:"font_size" toml:"font_size"`
	Height    int       `json:"height,omitempty" yaml:"height" toml:"height"`
	Prefix    string    `json:"prefix,omitempty" yaml:"prefix" toml:"prefix"`
	Suffix    string    `json:"suffix,omitempty" yaml:"suffix" toml:"suffix"`
	Fallback  string    `json:"fallback,omitempty" yaml:"fallback" toml:"fallback"`
	OmitEmpty bool      `json:"omit_empty,omitempty" yaml:"omit_empty" toml:"omit_empty"`
}

// Static reports whether the block prints fixed text.
func (b Block) Static() bool { return b.Field == "" }

// Template is a named field schema with its layout.
type Template struct {
	Key      string  `json:"key" yaml:"key" toml:"key"`
	Name     string  `json:"name" yaml:"name" toml:"name"`
	Category string  `json:"category" yaml:"-" toml:"-"`
	Fields   []Field `json:"fields" yaml:"fields" toml:"fields"`
	Layout   []Block `json:"layout" yaml:"layout" toml:"layout"`
}

// ID returns "category/template".
func (t Template) ID() string { return t.Category + "/" + t.Key }

// Field returns the schema entry for key.
func (t Template) Field(key string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Category groups templates of one industry.
type Category struct {
	Key       string     `json:"key" yaml:"key" toml:"key"`
	Name      string     `json:"name" yaml:"name" toml:"name"`
	Templates []Template `json:"templates" yaml:"templates" toml:"templates"`
}

// Sample is a ready-made program.
type Sample struct {
	Key  string `json:"key" yaml:"key" toml:"key"`
	Name string `json:"name" yaml:"name" toml:"name"`
	Code string `json:"code" yaml:"code" toml:"code"`
}

// FormData maps field keys to literal values.
type FormData map[string]string

// Value returns the value for key, or "".
func (d FormData) Value(key string) string { return d[key] }

// Bindings returns one binding per schema field, in schema order, with the
// value from data. Keys outside the schema are ignored.
func (t Template) Bindings(data FormData) []zpl.Binding {
	out := make([]zpl.Binding, 0, len(t.Fields))
	for _, f := range t.Fields {
		out = append(out, zpl.Binding{Key: f.Key, Value: data[f.Key]})
	}
	return out
}

// =============================================================================
// Form checks
// =============================================================================

// IssueKind classifies an Issue.
type IssueKind string

// Issue kinds.
const (
	IssueMissingRequired IssueKind = "missing_required"
	IssueUnknownField    IssueKind = "unknown_field"
)

// Issue flags form data that will still compile but is probably wrong.
type Issue struct {
	Field string    `json:"field"`
	Kind  IssueKind `json:"kind"`
}

func (i Issue) String() string {
	switch i.Kind {
	case IssueMissingRequired:
		return fmt.Sprintf("required field %q is empty", i.Field)
	case IssueUnknownField:
		return fmt.Sprintf("field %q is not part of the template", i.Field)
	}
	return fmt.Sprintf("%s: %s", i.Kind, i.Field)
}

// Check reports empty required fields in schema order, then unknown keys in
// sorted order.
func (t Template) Check(data FormData) []Issue {
	var issues []Issue
	for _, f := range t.Fields {
		if f.Required && data[f.Key] == "" {
			issues = append(issues, Issue{Field: f.Key, Kind: IssueMissingRequired})
		}
	}
	for _, key := range sortedKeys(data) {
		if _, ok := t.Field(key); !ok {
			issues = append(issues, Issue{Field: key, Kind: IssueUnknownField})
		}
	}
	return issues
}
