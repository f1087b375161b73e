// Package recipe generates programs from catalog templates and form data.
//
// A template's layout is a list of blocks. Static blocks always print.
// Field blocks print prefix + value + suffix, substituting the block's
// fallback when the value is empty. A field block whose value is empty is
// left out entirely when its field is optional or the block sets omit_empty,
// so absent values never leave an empty ^FD behind.
package recipe

import (
	"strconv"

	"github.com/matzehuels/zplkit/pkg/catalog"
	"github.com/matzehuels/zplkit/pkg/label"
	"github.com/matzehuels/zplkit/pkg/zpl"
)

// Option configures Generate.
type Option func(*options)

type options struct {
	escape zpl.EscapePolicy
}

// WithEscape sets the field data escape policy.
func WithEscape(p zpl.EscapePolicy) Option {
	return func(o *options) {
		if p != "" {
			o.escape = p
		}
	}
}

// Generate builds the program for tmpl filled with data.
func Generate(tmpl catalog.Template, data catalog.FormData, opts ...Option) (zpl.Program, error) {
	o := options{escape: zpl.EscapeHex}
	for _, opt := range opts {
		opt(&o)
	}

	var fragments []zpl.Fragment
	for i, b := range tmpl.Layout {
		content, ok := blockContent(tmpl, b, data)
		if !ok {
			continue
		}
		f, err := blockFragment(blockID(b, i), b, content, o.escape)
		if err != nil {
			return zpl.Program{}, err
		}
		fragments = append(fragments, f)
	}
	return zpl.NewProgram(fragments...), nil
}

// blockContent resolves the printed text and reports whether the block
// emits at all.
func blockContent(tmpl catalog.Template, b catalog.Block, data catalog.FormData) (string, bool) {
	if b.Static() {
		return b.Prefix + b.Text + b.Suffix, true
	}
	v := data[b.Field]
	if v == "" {
		f, _ := tmpl.Field(b.Field)
		if !f.Required || b.OmitEmpty {
			return "", false
		}
		v = b.Fallback
	}
	return b.Prefix + v + b.Suffix, true
}

func blockFragment(id string, b catalog.Block, content string, esc zpl.EscapePolicy) (zpl.Fragment, error) {
	switch b.Kind {
	case catalog.KindBarcode:
		height := b.Height
		if height == 0 {
			height = zpl.StandardBarcode.Height
		}
		return zpl.Barcode(id, b.X, b.Y, height, content, esc)
	case catalog.KindQRCode:
		return zpl.QR(id, b.X, b.Y, content, esc)
	default:
		size := b.FontSize
		if size == 0 {
			size = label.DefaultTextSize
		}
		return zpl.Text(id, b.X, b.Y, label.DefaultFontVariant, size, content, esc)
	}
}

func blockID(b catalog.Block, i int) string {
	if b.Static() {
		return "static-" + strconv.Itoa(i)
	}
	return b.Field
}
