package zpl

import (
	"github.com/matzehuels/zplkit/pkg/errors"
	"github.com/matzehuels/zplkit/pkg/label"
)

// Fragment is the command sequence emitted for one element.
type Fragment struct {
	ElementID string
	Kind      label.ElementType
	Commands  []Command
}

// Program is a compiled label: envelope header, fragments in paint order,
// and footer.
type Program struct {
	Header    []Command
	Fragments []Fragment
	Footer    []Command
}

// NewProgram wraps fragments in the standard ^XA ^CI28 ... ^XZ envelope.
func NewProgram(fragments ...Fragment) Program {
	return Program{
		Header:    []Command{StartFormat{}, UTF8},
		Fragments: fragments,
		Footer:    []Command{EndFormat{}},
	}
}

// FieldOrigins counts the ^FO commands in the program.
func (p Program) FieldOrigins() int {
	n := 0
	for _, f := range p.Fragments {
		for _, c := range f.Commands {
			if _, ok := c.(FieldOrigin); ok {
				n++
			}
		}
	}
	return n
}

// Bytes returns the rendered program.
func (p Program) Bytes() []byte {
	return []byte(p.String())
}

// =============================================================================
// Options
// =============================================================================

// Option configures Compile.
type Option func(*options)

type options struct {
	mapper   Mapper
	escape   EscapePolicy
	comments bool
}

func defaultOptions() options {
	return options{mapper: DefaultMapper(), escape: EscapeHex}
}

// WithMapper sets the pixel to dot mapper.
func WithMapper(m Mapper) Option {
	return func(o *options) { o.mapper = m }
}

// WithEscape sets the field data escape policy. Empty keeps the default.
func WithEscape(p EscapePolicy) Option {
	return func(o *options) {
		if p != "" {
			o.escape = p
		}
	}
}

// WithComments prefixes every fragment with a ^FX comment naming its element.
func WithComments() Option {
	return func(o *options) { o.comments = true }
}

// =============================================================================
// Compile
// =============================================================================

// Compile builds the program for doc. It fails only when the escape policy
// rejects an element's content.
func Compile(doc *label.Document, opts ...Option) (Program, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	elements := doc.List()
	fragments := make([]Fragment, 0, len(elements))
	for _, e := range elements {
		f, err := compileElement(e, o)
		if err != nil {
			return Program{}, err
		}
		if o.comments {
			f.Commands = append([]Command{Comment{Text: string(e.Type) + " " + e.ID}}, f.Commands...)
		}
		fragments = append(fragments, f)
	}
	return NewProgram(fragments...), nil
}

func compileElement(e label.Element, o options) (Fragment, error) {
	m := o.mapper
	x, y := m.Axis(e.X), m.Axis(e.Y)
	switch e.Type {
	case label.TypeText:
		return Text(e.ID, x, y, e.FontVariant, m.Size(e.FontSize), e.Content, o.escape)
	case label.TypeBarcode:
		return Barcode(e.ID, x, y, m.Size(e.Height), e.Content, o.escape)
	case label.TypeQRCode:
		return QR(e.ID, x, y, e.Content, o.escape)
	case label.TypeBox:
		return Box(e.ID, x, y, m.Size(e.Width), m.Size(e.Height)), nil
	case label.TypeLine:
		return Line(e.ID, x, y, m.Size(e.Width)), nil
	}
	return Fragment{}, errors.New(errors.ErrCodeInvalidElement, "element %s: unknown type %q", e.ID, e.Type)
}

// =============================================================================
// Fragment builders (device units)
// =============================================================================

// Text builds a text field. An invalid font variant falls back to
// label.DefaultFontVariant.
func Text(id string, x, y int, variant string, size int, content string, esc EscapePolicy) (Fragment, error) {
	if !label.ValidFontVariant(variant) {
		variant = label.DefaultFontVariant
	}
	data, err := fieldData(esc, id, "", content)
	if err != nil {
		return Fragment{}, err
	}
	cmds := []Command{FieldOrigin{X: x, Y: y}, Font{Variant: variant, Height: size, Width: size}}
	cmds = append(cmds, data...)
	return Fragment{ElementID: id, Kind: label.TypeText, Commands: append(cmds, FieldSeparator{})}, nil
}

// Barcode builds a Code 128 field of the given bar height.
func Barcode(id string, x, y, height int, content string, esc EscapePolicy) (Fragment, error) {
	data, err := fieldData(esc, id, "", content)
	if err != nil {
		return Fragment{}, err
	}
	cmds := []Command{FieldOrigin{X: x, Y: y}, StandardBarcode, Code128{Height: height}}
	cmds = append(cmds, data...)
	return Fragment{ElementID: id, Kind: label.TypeBarcode, Commands: append(cmds, FieldSeparator{})}, nil
}

// QR builds a QR code field whose payload is QRPayloadPrefix + content.
func QR(id string, x, y int, content string, esc EscapePolicy) (Fragment, error) {
	data, err := fieldData(esc, id, QRPayloadPrefix, content)
	if err != nil {
		return Fragment{}, err
	}
	cmds := []Command{FieldOrigin{X: x, Y: y}, QRCode{}}
	cmds = append(cmds, data...)
	return Fragment{ElementID: id, Kind: label.TypeQRCode, Commands: append(cmds, FieldSeparator{})}, nil
}

// Box builds a rectangle outline with BoxBorder thickness.
func Box(id string, x, y, width, height int) Fragment {
	return Fragment{ElementID: id, Kind: label.TypeBox, Commands: []Command{
		FieldOrigin{X: x, Y: y},
		GraphicBox{Width: width, Height: height, Thickness: BoxBorder},
		FieldSeparator{},
	}}
}

// Line builds a horizontal rule, a box of LineHeight.
func Line(id string, x, y, width int) Fragment {
	return Fragment{ElementID: id, Kind: label.TypeLine, Commands: []Command{
		FieldOrigin{X: x, Y: y},
		GraphicBox{Width: width, Height: LineHeight, Thickness: LineThickness},
		FieldSeparator{},
	}}
}
