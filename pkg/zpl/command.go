package zpl

import "strconv"

// Command is one ZPL command record.
type Command interface {
	// Mnemonic returns the two-letter command name including its prefix, e.g. "^FO".
	Mnemonic() string
	// String returns the formatted command.
	String() string
}

// =============================================================================
// Envelope
// =============================================================================

// StartFormat opens a label format (^XA).
type StartFormat struct{}

func (StartFormat) Mnemonic() string { return "^XA" }
func (StartFormat) String() string   { return "^XA" }

// EndFormat closes a label format (^XZ).
type EndFormat struct{}

func (EndFormat) Mnemonic() string { return "^XZ" }
func (EndFormat) String() string   { return "^XZ" }

// ChangeEncoding selects the character set; 28 is UTF-8 (^CI28).
type ChangeEncoding struct {
	Charset int
}

func (ChangeEncoding) Mnemonic() string { return "^CI" }
func (c ChangeEncoding) String() string { return "^CI" + strconv.Itoa(c.Charset) }

// UTF8 is the encoding directive emitted in every program header.
var UTF8 = ChangeEncoding{Charset: 28}

// =============================================================================
// Fields
// =============================================================================

// FieldOrigin positions the next field (^FOx,y).
type FieldOrigin struct {
	X, Y int
}

func (FieldOrigin) Mnemonic() string { return "^FO" }
func (c FieldOrigin) String() string  { return "^FO" + itoa2(c.X, c.Y) }

// Font selects a scalable font (^A{font}{orientation},h,w).
type Font struct {
	Variant       string
	Height, Width int
}

func (Font) Mnemonic() string { return "^A" }
func (c Font) String() string  { return "^A" + c.Variant + "," + itoa2(c.Height, c.Width) }

// FieldHex enables hexadecimal escapes in the following ^FD (^FH_).
type FieldHex struct {
	Indicator byte
}

func (FieldHex) Mnemonic() string { return "^FH" }
func (c FieldHex) String() string  { return "^FH" + string(c.Indicator) }

// FieldData carries the field payload (^FD...).
type FieldData struct {
	Data string
}

func (FieldData) Mnemonic() string { return "^FD" }
func (c FieldData) String() string  { return "^FD" + c.Data }

// FieldSeparator terminates a field (^FS).
type FieldSeparator struct{}

func (FieldSeparator) Mnemonic() string { return "^FS" }
func (FieldSeparator) String() string   { return "^FS" }

// Comment is an inline comment ignored by the printer (^FX).
type Comment struct {
	Text string
}

func (Comment) Mnemonic() string { return "^FX" }
func (c Comment) String() string  { return "^FX " + c.Text }

// =============================================================================
// Symbols and graphics
// =============================================================================

// BarcodeDefaults sets module width, wide-to-narrow ratio and default
// height for subsequent barcodes (^BYw,r,h).
type BarcodeDefaults struct {
	ModuleWidth, Ratio, Height int
}

func (BarcodeDefaults) Mnemonic() string { return "^BY" }
func (c BarcodeDefaults) String() string {
	return "^BY" + strconv.Itoa(c.ModuleWidth) + "," + itoa2(c.Ratio, c.Height)
}

// StandardBarcode is the ^BY2,2,50 setting used for every Code 128 field.
var StandardBarcode = BarcodeDefaults{ModuleWidth: 2, Ratio: 2, Height: 50}

// Code128 is a Code 128 barcode with the interpretation line printed below
// and no check digit (^BCN,h,Y,N,N,A).
type Code128 struct {
	Height int
}

func (Code128) Mnemonic() string { return "^BC" }
func (c Code128) String() string  { return "^BCN," + strconv.Itoa(c.Height) + ",Y,N,N,A" }

// QRCode is a model 2 QR code, magnification 4, high error correction,
// mask 7 (^BQN,2,4,H,7).
type QRCode struct{}

func (QRCode) Mnemonic() string { return "^BQ" }
func (QRCode) String() string   { return "^BQN,2,4,H,7" }

// QRPayloadPrefix precedes QR field data: error correction H, automatic input.
const QRPayloadPrefix = "QA,"

// GraphicBox draws a box of the given size and border thickness (^GBw,h,t).
type GraphicBox struct {
	Width, Height, Thickness int
}

func (GraphicBox) Mnemonic() string { return "^GB" }
func (c GraphicBox) String() string {
	return "^GB" + itoa2(c.Width, c.Height) + "," + strconv.Itoa(c.Thickness)
}

// Box and line geometry.
const (
	BoxBorder     = 3
	LineHeight    = 2
	LineThickness = 2
)

func itoa2(a, b int) string {
	return strconv.Itoa(a) + "," + strconv.Itoa(b)
}
