package label

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/zplkit/pkg/errors"
)

// wireDocument is the JSON shape of a Document.
type wireDocument struct {
	Name     string    `json:"name,omitempty"`
	Profile  Profile   `json:"profile"`
	Elements []Element `json:"elements"`
}

// MarshalJSON implements json.Marshaler.
func (d *Document) MarshalJSON() ([]byte, error) {
	elems := d.elements
	if elems == nil {
		elems = []Element{}
	}
	return json.Marshal(wireDocument{Name: d.Name, Profile: d.Profile, Elements: elems})
}

// UnmarshalJSON implements json.Unmarshaler. The decoded document is validated.
func (d *Document) UnmarshalJSON(data []byte) error {
	var w wireDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	restored, err := Restore(w.Name, w.Profile, w.Elements)
	if err != nil {
		return err
	}
	*d = *restored
	return nil
}

// ReadJSON decodes a document from r.
func ReadJSON(r io.Reader) (*Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		if errors.GetCode(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode label document")
	}
	return &d, nil
}

// WriteJSON encodes d to w with indentation.
func WriteJSON(w io.Writer, d *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// ImportJSON reads a document from a file.
func ImportJSON(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// ExportJSON writes a document to a file.
func ExportJSON(path string, d *Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(f, d); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
