package zpl

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/zplkit/pkg/errors"
	"github.com/matzehuels/zplkit/pkg/label"
)

func newDoc(t *testing.T, types ...label.ElementType) *label.Document {
	t.Helper()
	doc := label.New(label.DefaultProfile())
	for _, typ := range types {
		if _, err := doc.Add(typ); err != nil {
			t.Fatalf("Add(%s): %v", typ, err)
		}
	}
	return doc
}

func TestCompileEnvelope(t *testing.T) {
	docs := map[string][]label.ElementType{
		"empty":  nil,
		"single": {label.TypeText},
		"all":    label.Types,
		"repeat": {label.TypeBox, label.TypeBox, label.TypeLine, label.TypeQRCode, label.TypeText, label.TypeBarcode},
	}

	for name, types := range docs {
		t.Run(name, func(t *testing.T) {
			doc := newDoc(t, types...)
			prog, err := Compile(doc)
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			out := prog.String()
			if !strings.HasPrefix(out, "^XA\n^CI28\n") {
				t.Errorf("program must start with ^XA^CI28, got %q", out[:min(len(out), 12)])
			}
			if !strings.HasSuffix(out, "^XZ") {
				t.Errorf("program must end with ^XZ")
			}
			if got := strings.Count(out, "^FO"); got != doc.Len() {
				t.Errorf("^FO count = %d, want %d", got, doc.Len())
			}
			if prog.FieldOrigins() != doc.Len() {
				t.Errorf("FieldOrigins() = %d, want %d", prog.FieldOrigins(), doc.Len())
			}
		})
	}
}

func TestCompileText(t *testing.T) {
	doc := newDoc(t, label.TypeText)
	prog, err := Compile(doc)
	if err != nil {
		t.Fatal(err)
	}
	want := "^XA\n^CI28\n^FO100,100\n^A0N,25,25\n^FDNew text^FS\n\n^XZ"
	if got := prog.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
}

func TestCompileFragments(t *testing.T) {
	doc := label.New(label.DefaultProfile())
	text, _ := doc.Add(label.TypeText)
	doc.Update(text.ID, label.Patch{X: label.Ptr(10), Y: label.Ptr(20), FontSize: label.Ptr(40), Content: label.Ptr("Hi")})
	bc, _ := doc.Add(label.TypeBarcode)
	doc.Update(bc.ID, label.Patch{Height: label.Ptr(100)})
	qr, _ := doc.Add(label.TypeQRCode)
	box, _ := doc.Add(label.TypeBox)
	doc.Update(box.ID, label.Patch{Width: label.Ptr(200), Height: label.Ptr(2)})
	line, _ := doc.Add(label.TypeLine)
	doc.Update(line.ID, label.Patch{Width: label.Ptr(300)})

	prog, err := Compile(doc)
	if err != nil {
		t.Fatal(err)
	}

	want := []Fragment{
		{ElementID: text.ID, Kind: label.TypeText, Commands: []Command{
			FieldOrigin{20, 40}, Font{"0N", 40, 40}, FieldData{"Hi"}, FieldSeparator{},
		}},
		{ElementID: bc.ID, Kind: label.TypeBarcode, Commands: []Command{
			FieldOrigin{100, 100}, BarcodeDefaults{2, 2, 50}, Code128{100}, FieldData{"1234567890"}, FieldSeparator{},
		}},
		{ElementID: qr.ID, Kind: label.TypeQRCode, Commands: []Command{
			FieldOrigin{100, 100}, QRCode{}, FieldData{"QA,https://example.com"}, FieldSeparator{},
		}},
		{ElementID: box.ID, Kind: label.TypeBox, Commands: []Command{
			FieldOrigin{100, 100}, GraphicBox{200, 2, 3}, FieldSeparator{},
		}},
		{ElementID: line.ID, Kind: label.TypeLine, Commands: []Command{
			FieldOrigin{100, 100}, GraphicBox{300, 2, 2}, FieldSeparator{},
		}},
	}
	if diff := cmp.Diff(want, prog.Fragments); diff != "" {
		t.Errorf("fragments mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileBoxIsNeverBarcode(t *testing.T) {
	doc := label.New(label.DefaultProfile())
	box, _ := doc.Add(label.TypeBox)
	doc.Update(box.ID, label.Patch{Width: label.Ptr(200), Height: label.Ptr(2)})

	prog, _ := Compile(doc)
	out := prog.String()
	if !strings.Contains(out, "^GB200,2,3^FS") {
		t.Errorf("expected ^GB200,2,3^FS in:\n%s", out)
	}
	for _, cmd := range []string{"^BC", "^BQ", "^BY"} {
		if strings.Contains(out, cmd) {
			t.Errorf("box emitted barcode command %s", cmd)
		}
	}
}

func TestCompilePreservesOrder(t *testing.T) {
	doc := newDoc(t, label.TypeLine, label.TypeQRCode, label.TypeText)
	prog, _ := Compile(doc)

	var got []string
	for _, f := range prog.Fragments {
		got = append(got, f.ElementID)
	}
	var want []string
	for _, e := range doc.List() {
		want = append(want, e.ID)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileMapper(t *testing.T) {
	doc := label.New(label.DefaultProfile())
	e, _ := doc.Add(label.TypeBox)
	doc.Update(e.ID, label.Patch{X: label.Ptr(10), Y: label.Ptr(3)})

	prog, _ := Compile(doc, WithMapper(Mapper{Scale: 1.5}))
	origin := prog.Fragments[0].Commands[0].(FieldOrigin)
	if origin.X != 15 || origin.Y != 5 {
		t.Errorf("origin = %+v, want {15 5}", origin)
	}
}

func TestCompileComments(t *testing.T) {
	doc := newDoc(t, label.TypeBox)
	id := doc.List()[0].ID
	prog, _ := Compile(doc, WithComments())
	out := prog.String()
	if !strings.Contains(out, "^FX box "+id+"\n^FO") {
		t.Errorf("expected ^FX comment before ^FO:\n%s", out)
	}
	if prog.FieldOrigins() != 1 {
		t.Errorf("comments must not add field origins")
	}
}

func TestCompileInvalidFontFallsBack(t *testing.T) {
	doc := label.New(label.DefaultProfile())
	e, _ := doc.Add(label.TypeText)
	doc.Update(e.ID, label.Patch{FontVariant: label.Ptr("^XZ")})

	prog, _ := Compile(doc)
	if !strings.Contains(prog.String(), "^A0N,25,25") {
		t.Errorf("invalid variant should fall back to 0N:\n%s", prog)
	}
}

func TestCompileEmptyContent(t *testing.T) {
	doc := label.New(label.DefaultProfile())
	e, _ := doc.Add(label.TypeText)
	doc.Update(e.ID, label.Patch{Content: label.Ptr("")})

	prog, err := Compile(doc)
	if err != nil {
		t.Fatalf("empty content must still compile: %v", err)
	}
	if !strings.Contains(prog.String(), "^FD^FS") {
		t.Errorf("expected blank payload:\n%s", prog)
	}
}

func TestCompileRejectNamesElement(t *testing.T) {
	doc := label.New(label.DefaultProfile())
	e, _ := doc.Add(label.TypeText)
	doc.Update(e.ID, label.Patch{Content: label.Ptr("evil^XZ")})

	_, err := Compile(doc, WithEscape(EscapeReject))
	if !errors.Is(err, errors.ErrCodeInvalidContent) {
		t.Fatalf("expected INVALID_CONTENT, got %v", err)
	}
	if !strings.Contains(err.Error(), e.ID) {
		t.Errorf("error should name element %s: %v", e.ID, err)
	}
}
