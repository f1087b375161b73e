// Package export turns generated programs into the copy and file formats
// offered by the CLI and the HTTP API.
package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/matzehuels/zplkit/pkg/zpl"
)

// Format names shared by the CLI, the pipeline and the server.
const (
	FormatZPL       = "zpl"
	FormatOptimized = "optimized"
	FormatVariables = "variables"
	FormatJS        = "js"
	FormatPNG       = "png"
)

// Formats lists every export format in display order.
var Formats = []string{FormatZPL, FormatOptimized, FormatVariables, FormatJS, FormatPNG}

var extensions = map[string]string{
	FormatZPL:       ".zpl",
	FormatOptimized: ".min.zpl",
	FormatVariables: ".tmpl.zpl",
	FormatJS:        ".js",
	FormatPNG:       ".png",
}

// Valid reports whether format is a known export format.
func Valid(format string) bool {
	_, ok := extensions[format]
	return ok
}

// Extension returns the file extension for format, including the dot.
func Extension(format string) string {
	return extensions[format]
}

// Binary reports whether the format is not text.
func Binary(format string) bool {
	return format == FormatPNG
}

// =============================================================================
// JavaScript snippet
// =============================================================================

// ZebraVendorID is the USB vendor id used in the WebUSB hint.
const ZebraVendorID = 0x0a5f

var jsTemplate = template.Must(template.New("js").Parse(`const zplCode = ` + "`{{.Code}}`" + `;

// Printer connection examples
// 1. Browser, WebUSB
if (navigator.usb) {
  const printer = await navigator.usb.requestDevice({
    filters: [{ vendorId: {{.VendorID}} }] // Zebra
  });
  // printer.print(zplCode);
}

// 2. Node.js, serial port
// npm install serialport
// const SerialPort = require('serialport');
// const port = new SerialPort('/dev/ttyUSB0', { baudRate: 9600 });
// port.write(zplCode);

// 3. Network printer (raw port 9100)
// fetch('http://192.168.1.100:9100', {
//   method: 'POST',
//   body: zplCode
// });
`))

var jsEscaper = strings.NewReplacer(`\`, `\\`, "`", "\\`", "${", "\\${")

// JavaScript wraps the optimized form of markup in a template literal and
// appends printer connection examples.
func JavaScript(markup string) string {
	var buf bytes.Buffer
	_ = jsTemplate.Execute(&buf, struct {
		Code     string
		VendorID string
	}{
		Code:     jsEscaper.Replace(zpl.Optimize(markup)),
		VendorID: fmt.Sprintf("0x%04x", ZebraVendorID),
	})
	return buf.String()
}

// =============================================================================
// Files
// =============================================================================

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// OpenOutput creates path, or returns stdout when path is empty or "-".
func OpenOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	return os.Create(path)
}

// BasePath strips a known export extension from output, or derives a base
// from input when output is empty.
func BasePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	// Compound extensions first so ".min.zpl" is not read as ".zpl".
	for _, format := range []string{FormatOptimized, FormatVariables, FormatZPL, FormatJS, FormatPNG} {
		if ext := extensions[format]; strings.HasSuffix(output, ext) {
			return strings.TrimSuffix(output, ext)
		}
	}
	return output
}

// Write writes one artifact to path (stdout when empty).
func Write(path string, data []byte) error {
	out, err := OpenOutput(path)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// WriteAll writes each artifact in formats order to base+extension and
// returns the paths written. Formats without an artifact are skipped.
func WriteAll(base string, formats []string, artifacts map[string][]byte) ([]string, error) {
	var paths []string
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		path := base + Extension(format)
		if err := Write(path, data); err != nil {
			return paths, fmt.Errorf("%s: %w", format, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
