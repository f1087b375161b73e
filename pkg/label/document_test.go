package label

import (
	"bytes"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/zplkit/pkg/errors"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("el-%d", n)
	}
}

func TestAddDefaults(t *testing.T) {
	tests := []struct {
		typ     ElementType
		width   int
		height  int
		content string
		size    int
	}{
		{TypeText, 200, 30, "New text", 25},
		{TypeBarcode, 300, 60, "1234567890", 20},
		{TypeQRCode, 100, 100, "https://example.com", 20},
		{TypeBox, 200, 100, "", 20},
		{TypeLine, 200, 100, "", 20},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			doc := New(Profile{})
			e, err := doc.Add(tt.typ)
			if err != nil {
				t.Fatalf("Add: %v", err)
			}
			if e.ID == "" {
				t.Error("expected non-empty id")
			}
			if e.X != DefaultX || e.Y != DefaultY {
				t.Errorf("position = (%d,%d), want (%d,%d)", e.X, e.Y, DefaultX, DefaultY)
			}
			if e.Width != tt.width || e.Height != tt.height {
				t.Errorf("size = %dx%d, want %dx%d", e.Width, e.Height, tt.width, tt.height)
			}
			if e.Content != tt.content {
				t.Errorf("content = %q, want %q", e.Content, tt.content)
			}
			if e.FontSize != tt.size {
				t.Errorf("font size = %d, want %d", e.FontSize, tt.size)
			}
			if e.FontVariant != DefaultFontVariant {
				t.Errorf("font variant = %q", e.FontVariant)
			}
		})
	}
}

func TestAddUnknownType(t *testing.T) {
	doc := New(DefaultProfile())
	_, err := doc.Add("circle")
	if !errors.Is(err, errors.ErrCodeInvalidElement) {
		t.Fatalf("expected INVALID_ELEMENT, got %v", err)
	}
	if doc.Len() != 0 {
		t.Error("failed Add must not append")
	}
}

func TestAddUniqueIDs(t *testing.T) {
	doc := New(DefaultProfile())
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		e, err := doc.Add(Types[i%len(Types)])
		if err != nil {
			t.Fatal(err)
		}
		if seen[e.ID] {
			t.Fatalf("duplicate id %s", e.ID)
		}
		seen[e.ID] = true
	}
}

func TestAddSkipsCollidingID(t *testing.T) {
	doc := New(DefaultProfile())
	ids := []string{"a", "a", "b"}
	doc.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	first, _ := doc.Add(TypeText)
	second, _ := doc.Add(TypeText)
	if first.ID != "a" || second.ID != "b" {
		t.Errorf("ids = %s, %s; want a, b", first.ID, second.ID)
	}
}

func TestUpdate(t *testing.T) {
	doc := New(DefaultProfile())
	doc.newID = seqIDs()
	e, _ := doc.Add(TypeBox)

	ok := doc.Update(e.ID, Patch{Width: Ptr(200), Height: Ptr(2), X: Ptr(10)})
	if !ok {
		t.Fatal("Update returned false for existing id")
	}
	got, _ := doc.Get(e.ID)
	want := e
	want.Width, want.Height, want.X = 200, 2, 10
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("element mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateClampsNegative(t *testing.T) {
	doc := New(DefaultProfile())
	e, _ := doc.Add(TypeBox)
	doc.Update(e.ID, Patch{X: Ptr(-5), Y: Ptr(-1), Width: Ptr(-10), Height: Ptr(-3), FontSize: Ptr(-2)})
	got, _ := doc.Get(e.ID)
	if got.X != 0 || got.Y != 0 || got.Width != 0 || got.Height != 0 || got.FontSize != 0 {
		t.Errorf("negative values not clamped: %+v", got)
	}
}

func TestUpdateUnknownID(t *testing.T) {
	doc := New(DefaultProfile())
	doc.Add(TypeText)
	before := doc.List()

	if doc.Update("missing", Patch{Content: Ptr("x")}) {
		t.Error("Update should report false for unknown id")
	}
	if diff := cmp.Diff(before, doc.List()); diff != "" {
		t.Errorf("document changed (-want +got):\n%s", diff)
	}
}

func TestRemovePreservesOrder(t *testing.T) {
	doc := New(DefaultProfile())
	doc.newID = seqIDs()
	for _, typ := range []ElementType{TypeText, TypeBarcode, TypeQRCode, TypeBox} {
		doc.Add(typ)
	}

	if !doc.Remove("el-2") {
		t.Fatal("Remove returned false")
	}
	if doc.Remove("el-2") {
		t.Error("second Remove should return false")
	}

	var ids []string
	for _, e := range doc.List() {
		ids = append(ids, e.ID)
	}
	if diff := cmp.Diff([]string{"el-1", "el-3", "el-4"}, ids); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestListIsCopy(t *testing.T) {
	doc := New(DefaultProfile())
	doc.Add(TypeText)
	list := doc.List()
	list[0].Content = "mutated"
	if got := doc.List()[0].Content; got != "New text" {
		t.Errorf("List leaked internal state, content = %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		elements []Element
		wantErr  bool
	}{
		{"empty", nil, false},
		{"ok", []Element{{ID: "a", Type: TypeText}, {ID: "b", Type: TypeBox}}, false},
		{"duplicate id", []Element{{ID: "a", Type: TypeText}, {ID: "a", Type: TypeBox}}, true},
		{"missing id", []Element{{Type: TypeText}}, true},
		{"unknown type", []Element{{ID: "a", Type: "star"}}, true},
		{"negative x", []Element{{ID: "a", Type: TypeText, X: -1}}, true},
		{"bad font", []Element{{ID: "a", Type: TypeText, FontVariant: "^XZ"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Restore("", DefaultProfile(), tt.elements)
			if (err != nil) != tt.wantErr {
				t.Errorf("Restore() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProfile(t *testing.T) {
	p := Profile{}.WithDefaults()
	if p != DefaultProfile() {
		t.Errorf("WithDefaults = %v", p)
	}
	if p.Resolution.DotsPerMM() != 8 {
		t.Errorf("DotsPerMM = %d", p.Resolution.DotsPerMM())
	}
	if w, h := Size3x2.Canvas(); w != 450 || h != 300 {
		t.Errorf("3x2 canvas = %dx%d", w, h)
	}
	if err := (Profile{Resolution: "10dpmm", Size: Size4x6}).Validate(); !errors.Is(err, errors.ErrCodeInvalidProfile) {
		t.Errorf("expected INVALID_PROFILE, got %v", err)
	}
	if err := (Profile{Resolution: Res12dpmm, Size: "5x5"}).Validate(); err == nil {
		t.Error("expected error for unknown size")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	doc := New(Profile{Resolution: Res12dpmm, Size: Size2x1})
	doc.Name = "parcel"
	e, _ := doc.Add(TypeText)
	doc.Update(e.ID, Patch{Content: Ptr("Hello ^world")})
	doc.Add(TypeQRCode)

	path := filepath.Join(t.TempDir(), "parcel.json")
	if err := ExportJSON(path, doc); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	got, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if got.Name != doc.Name || got.Profile != doc.Profile {
		t.Errorf("header mismatch: %s %v", got.Name, got.Profile)
	}
	if diff := cmp.Diff(doc.List(), got.List()); diff != "" {
		t.Errorf("elements mismatch (-want +got):\n%s", diff)
	}
}

func TestReadJSONRejectsInvalid(t *testing.T) {
	input := `{"profile":{"resolution":"8dpmm","size":"4x6"},"elements":[{"id":"a","type":"text"},{"id":"a","type":"box"}]}`
	_, err := ReadJSON(bytes.NewBufferString(input))
	if !errors.Is(err, errors.ErrCodeInvalidElement) {
		t.Errorf("expected INVALID_ELEMENT, got %v", err)
	}

	_, err = ReadJSON(bytes.NewBufferString("{not json"))
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}
