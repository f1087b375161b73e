// Package label provides the in-memory model of an editable label.
//
// # Overview
//
// A [Document] is an ordered collection of positioned [Element] values plus
// the [Profile] (print resolution and physical label size) the label is
// designed for. Element order is the paint order and is preserved all the
// way through markup emission.
//
// Elements are created, changed and deleted only through the document:
//
//	doc := label.New(label.DefaultProfile())
//	title, _ := doc.Add(label.TypeText)
//	doc.Update(title.ID, label.Patch{Content: label.Ptr("Fragile"), FontSize: label.Ptr(40)})
//	code, _ := doc.Add(label.TypeBarcode)
//	doc.Remove(code.ID)
//
// # Element Types
//
//   - [TypeText]: a line of text; Width and Height are ignored
//   - [TypeBarcode]: a Code 128 barcode; Height sets the bar height
//   - [TypeQRCode]: a QR code
//   - [TypeBox]: a rectangle outline of Width x Height
//   - [TypeLine]: a horizontal rule of Width
//
// [Document.Add] assigns a fresh UUID and deterministic, non-empty defaults
// so that a newly added element always compiles to well-formed markup.
//
// # Units
//
// Element positions are editor pixels. The zpl package maps them to printer
// dots; see [github.com/matzehuels/zplkit/pkg/zpl.Mapper].
//
// # Concurrency
//
// A Document is owned by a single editing session and is not safe for
// concurrent mutation. Compiling a document only reads it.
package label
