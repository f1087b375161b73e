package zpl

import (
	"io"
	"strings"
)

// String renders the program text.
func (p Program) String() string {
	var b strings.Builder
	p.WriteTo(&b)
	return b.String()
}

// WriteTo writes the rendered program to w.
func (p Program) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	for _, c := range p.Header {
		b.WriteString(c.String())
		b.WriteByte('\n')
	}
	for _, f := range p.Fragments {
		writeCommands(&b, f.Commands)
		b.WriteByte('\n')
	}
	for i, c := range p.Footer {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(c.String())
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// writeCommands puts one command per line. ^FS, and ^FD directly after ^FH,
// continue the previous line.
func writeCommands(b *strings.Builder, cmds []Command) {
	for i, c := range cmds {
		if i > 0 && !joinsPrevious(cmds[i-1], c) {
			b.WriteByte('\n')
		}
		b.WriteString(c.String())
	}
	if len(cmds) > 0 {
		b.WriteByte('\n')
	}
}

func joinsPrevious(prev, c Command) bool {
	switch c.(type) {
	case FieldSeparator:
		return true
	case FieldData:
		_, hex := prev.(FieldHex)
		return hex
	}
	return false
}
