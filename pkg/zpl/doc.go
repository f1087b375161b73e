// Package zpl compiles label documents into ZPL printer programs.
//
// # Overview
//
// Compilation happens in two steps. [Compile] decides what to emit: it maps
// each [label.Element] to a [Fragment], a short ordered list of typed
// [Command] records. [Program.String] then decides how to format it, writing
// the whole program in a single pass:
//
//	^XA
//	^CI28
//	^FO100,100
//	^A0N,25,25
//	^FDNew text^FS
//
//	^XZ
//
// Every program opens with ^XA and the UTF-8 encoding directive ^CI28 and
// closes with ^XZ. Each element produces exactly one ^FO field origin, and
// each fragment is followed by a blank line.
//
// # Coordinates
//
// Element positions are editor pixels and pass through a [Mapper] (scale 2
// by default, rounded to the nearest dot). Widths, heights and font sizes
// are already device magnitudes and are only rounded and clamped.
//
// # Field Data Escaping
//
// Content is untrusted. An [EscapePolicy] decides what happens to the ZPL
// control prefixes ^ and ~ and to control characters inside field data:
//
//   - [EscapeHex] (default): emit ^FH_ and write those bytes as _XX
//   - [EscapeStrip]: drop them
//   - [EscapeReject]: fail with INVALID_CONTENT
//   - [EscapeNone]: insert content verbatim
//
// Content without such bytes is emitted unchanged under every policy.
//
// # Post-processing
//
// [Optimize] strips blank lines, surrounding whitespace and // comment
// lines. [Templatize] turns literal field values back into {{key}}
// placeholders and [Fill] reverses it.
//
// All functions in this package are pure and safe for concurrent use.
package zpl
