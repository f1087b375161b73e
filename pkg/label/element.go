package label

import (
	"regexp"

	"github.com/matzehuels/zplkit/pkg/errors"
)

// ElementType identifies the kind of a label element.
type ElementType string

// Element types.
const (
	TypeText    ElementType = "text"
	TypeBarcode ElementType = "barcode"
	TypeQRCode  ElementType = "qrcode"
	TypeBox     ElementType = "box"
	TypeLine    ElementType = "line"
)

// Types lists every element type in toolbox order.
var Types = []ElementType{TypeText, TypeBarcode, TypeQRCode, TypeBox, TypeLine}

// Valid reports whether t is a known element type.
func (t ElementType) Valid() bool {
	switch t {
	case TypeText, TypeBarcode, TypeQRCode, TypeBox, TypeLine:
		return true
	}
	return false
}

// HasContent reports whether elements of this type carry a text payload.
func (t ElementType) HasContent() bool {
	return t == TypeText || t == TypeBarcode || t == TypeQRCode
}

// ParseElementType converts s into an ElementType.
func ParseElementType(s string) (ElementType, error) {
	t := ElementType(s)
	if !t.Valid() {
		return "", errors.New(errors.ErrCodeInvalidElement,
			"unknown element type: %q (must be one of: text, barcode, qrcode, box, line)", s)
	}
	return t, nil
}

// Element is one positioned visual item on a label.
// Positions and sizes are editor pixels and are never negative.
type Element struct {
	ID          string      `json:"id" bson:"id"`
	Type        ElementType `json:"type" bson:"type"`
	X           int         `json:"x" bson:"x"`
	Y           int         `json:"y" bson:"y"`
	Width       int         `json:"width" bson:"width"`
	Height      int         `json:"height" bson:"height"`
	Content     string      `json:"content" bson:"content"`
	FontSize    int         `json:"font_size" bson:"font_size"`
	FontVariant string      `json:"font_variant" bson:"font_variant"`
}

// Default element placement and font.
const (
	DefaultX           = 50
	DefaultY           = 50
	DefaultTextSize    = 25
	DefaultOtherSize   = 20
	DefaultFontVariant = "0N"
)

type defaults struct {
	width, height int
	content       string
}

var typeDefaults = map[ElementType]defaults{
	TypeText:    {200, 30, "New text"},
	TypeBarcode: {300, 60, "1234567890"},
	TypeQRCode:  {100, 100, "https://example.com"},
	TypeBox:     {200, 100, ""},
	TypeLine:    {200, 100, ""},
}

// newElement returns an element of type t populated with the type defaults.
func newElement(id string, t ElementType) Element {
	d := typeDefaults[t]
	size := DefaultOtherSize
	if t == TypeText {
		size = DefaultTextSize
	}
	return Element{
		ID:          id,
		Type:        t,
		X:           DefaultX,
		Y:           DefaultY,
		Width:       d.width,
		Height:      d.height,
		Content:     d.content,
		FontSize:    size,
		FontVariant: DefaultFontVariant,
	}
}

// fontVariantRegex matches a font name followed by an optional orientation.
var fontVariantRegex = regexp.MustCompile(`^[A-Z0-9][NRIB]?$`)

// ValidFontVariant reports whether v is a usable font selector such as "0N".
func ValidFontVariant(v string) bool {
	return fontVariantRegex.MatchString(v)
}

// Patch is a partial element update. Nil fields are left unchanged.
type Patch struct {
	X           *int    `json:"x,omitempty"`
	Y           *int    `json:"y,omitempty"`
	Width       *int    `json:"width,omitempty"`
	Height      *int    `json:"height,omitempty"`
	Content     *string `json:"content,omitempty"`
	FontSize    *int    `json:"font_size,omitempty"`
	FontVariant *string `json:"font_variant,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.X == nil && p.Y == nil && p.Width == nil && p.Height == nil &&
		p.Content == nil && p.FontSize == nil && p.FontVariant == nil
}

// apply merges p into e. Negative geometry is clamped to zero.
func (p Patch) apply(e *Element) {
	if p.X != nil {
		e.X = max(*p.X, 0)
	}
	if p.Y != nil {
		e.Y = max(*p.Y, 0)
	}
	if p.Width != nil {
		e.Width = max(*p.Width, 0)
	}
	if p.Height != nil {
		e.Height = max(*p.Height, 0)
	}
	if p.Content != nil {
		e.Content = *p.Content
	}
	if p.FontSize != nil {
		e.FontSize = max(*p.FontSize, 0)
	}
	if p.FontVariant != nil {
		e.FontVariant = *p.FontVariant
	}
}

// Ptr returns a pointer to v. Handy for building a Patch.
func Ptr[T any](v T) *T { return &v }
