package zpl

import (
	"fmt"
	"strings"

	"github.com/matzehuels/zplkit/pkg/errors"
)

// EscapePolicy controls how field data containing ZPL control bytes is emitted.
type EscapePolicy string

// Escape policies.
const (
	EscapeHex    EscapePolicy = "hex"
	EscapeStrip  EscapePolicy = "strip"
	EscapeReject EscapePolicy = "reject"
	EscapeNone   EscapePolicy = "none"
)

// EscapePolicies lists every policy; the first is the default.
var EscapePolicies = []EscapePolicy{EscapeHex, EscapeStrip, EscapeReject, EscapeNone}

// ParseEscapePolicy converts s into an EscapePolicy. Empty selects EscapeHex.
func ParseEscapePolicy(s string) (EscapePolicy, error) {
	switch p := EscapePolicy(strings.ToLower(s)); p {
	case "":
		return EscapeHex, nil
	case EscapeHex, EscapeStrip, EscapeReject, EscapeNone:
		return p, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput,
		"invalid escape policy: %q (must be one of: hex, strip, reject, none)", s)
}

// HexIndicator is the escape prefix announced by ^FH.
const HexIndicator = '_'

// isControl reports whether b would be interpreted by the printer inside
// field data: a command prefix or a control character.
func isControl(b byte) bool {
	return b == '^' || b == '~' || b < 0x20 || b == 0x7f
}

// NeedsEscape reports whether s contains bytes that change the meaning of a
// ^FD payload.
func NeedsEscape(s string) bool {
	for i := 0; i < len(s); i++ {
		if isControl(s[i]) {
			return true
		}
	}
	return false
}

// fieldData returns the commands that carry data under policy p, without the
// terminating ^FS. owner names the element in errors.
func fieldData(p EscapePolicy, owner, prefix, data string) ([]Command, error) {
	if !NeedsEscape(data) {
		return []Command{FieldData{Data: prefix + data}}, nil
	}
	switch p {
	case EscapeNone:
		return []Command{FieldData{Data: prefix + data}}, nil
	case EscapeStrip:
		return []Command{FieldData{Data: prefix + strip(data)}}, nil
	case EscapeReject:
		return nil, errors.New(errors.ErrCodeInvalidContent,
			"element %s: content contains reserved character %s", owner, describeFirst(data))
	default:
		return []Command{
			FieldHex{Indicator: HexIndicator},
			FieldData{Data: hexEscape(prefix) + hexEscape(data)},
		}, nil
	}
}

// FieldValue returns s as it appears in ^FD data emitted under policy p.
// Templatize needs it to find values that were escaped during compilation.
func FieldValue(p EscapePolicy, s string) string {
	if !NeedsEscape(s) {
		return s
	}
	switch p {
	case EscapeStrip:
		return strip(s)
	case EscapeHex, "":
		return hexEscape(s)
	}
	return s
}

func strip(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if !isControl(s[i]) {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// hexEscape writes control bytes and the indicator itself as _XX.
func hexEscape(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isControl(c) || c == HexIndicator {
			fmt.Fprintf(&b, "%c%02X", HexIndicator, c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func describeFirst(s string) string {
	for i := 0; i < len(s); i++ {
		if isControl(s[i]) {
			if s[i] >= 0x20 && s[i] != 0x7f {
				return fmt.Sprintf("%q at offset %d", s[i], i)
			}
			return fmt.Sprintf("0x%02X at offset %d", s[i], i)
		}
	}
	return "none"
}
