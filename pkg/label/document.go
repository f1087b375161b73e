package label

import (
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/zplkit/pkg/errors"
)

// Document is an ordered set of elements designed for one profile.
// Element order is paint order.
type Document struct {
	Name    string
	Profile Profile

	elements []Element
	newID    func() string
}

// New creates an empty document for the given profile.
// Empty profile fields are filled from DefaultProfile.
func New(profile Profile) *Document {
	return &Document{Profile: profile.WithDefaults()}
}

// Restore rebuilds a document from previously listed elements, for example
// after decoding it from storage. The elements are validated.
func Restore(name string, profile Profile, elements []Element) (*Document, error) {
	d := &Document{Name: name, Profile: profile.WithDefaults(), elements: slices.Clone(elements)}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Add appends a new element of type t with fresh id and type defaults.
func (d *Document) Add(t ElementType) (Element, error) {
	if !t.Valid() {
		return Element{}, errors.New(errors.ErrCodeInvalidElement,
			"unknown element type: %q", t)
	}
	id := d.nextID()
	for d.indexOf(id) >= 0 {
		id = d.nextID()
	}
	e := newElement(id, t)
	d.elements = append(d.elements, e)
	return e, nil
}

// Update merges p into the element with the given id.
// It reports false, changing nothing, when no element has that id.
func (d *Document) Update(id string, p Patch) bool {
	i := d.indexOf(id)
	if i < 0 {
		return false
	}
	p.apply(&d.elements[i])
	return true
}

// Remove deletes the element with the given id and reports whether it existed.
func (d *Document) Remove(id string) bool {
	i := d.indexOf(id)
	if i < 0 {
		return false
	}
	d.elements = slices.Delete(d.elements, i, i+1)
	return true
}

// List returns a copy of the elements in paint order.
func (d *Document) List() []Element {
	return slices.Clone(d.elements)
}

// Get returns the element with the given id.
func (d *Document) Get(id string) (Element, bool) {
	i := d.indexOf(id)
	if i < 0 {
		return Element{}, false
	}
	return d.elements[i], true
}

// Len returns the number of elements.
func (d *Document) Len() int { return len(d.elements) }

// Clear removes every element.
func (d *Document) Clear() { d.elements = nil }

// Validate checks the profile and every element: ids must be unique and
// non-empty, types known, and geometry non-negative.
func (d *Document) Validate() error {
	if err := d.Profile.Validate(); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(d.elements))
	for i, e := range d.elements {
		if e.ID == "" {
			return errors.New(errors.ErrCodeInvalidElement, "element %d: missing id", i)
		}
		if _, dup := seen[e.ID]; dup {
			return errors.New(errors.ErrCodeInvalidElement, "element %d: duplicate id %q", i, e.ID)
		}
		seen[e.ID] = struct{}{}
		if !e.Type.Valid() {
			return errors.New(errors.ErrCodeInvalidElement, "element %q: unknown type %q", e.ID, e.Type)
		}
		if e.X < 0 || e.Y < 0 || e.Width < 0 || e.Height < 0 || e.FontSize < 0 {
			return errors.New(errors.ErrCodeInvalidElement, "element %q: negative geometry", e.ID)
		}
		if e.FontVariant != "" && !ValidFontVariant(e.FontVariant) {
			return errors.New(errors.ErrCodeInvalidElement, "element %q: invalid font variant %q", e.ID, e.FontVariant)
		}
	}
	return nil
}

func (d *Document) indexOf(id string) int {
	return slices.IndexFunc(d.elements, func(e Element) bool { return e.ID == id })
}

func (d *Document) nextID() string {
	if d.newID != nil {
		return d.newID()
	}
	return uuid.NewString()
}
