package label

import (
	"fmt"

	"github.com/matzehuels/zplkit/pkg/errors"
)

// Resolution is a print-head density class in dots per millimetre.
type Resolution string

// Supported print resolutions.
const (
	Res6dpmm  Resolution = "6dpmm"
	Res8dpmm  Resolution = "8dpmm"
	Res12dpmm Resolution = "12dpmm"
	Res24dpmm Resolution = "24dpmm"
)

var resolutionDots = map[Resolution]int{
	Res6dpmm:  6,
	Res8dpmm:  8,
	Res12dpmm: 12,
	Res24dpmm: 24,
}

// Resolutions lists the supported resolutions from lowest to highest.
var Resolutions = []Resolution{Res6dpmm, Res8dpmm, Res12dpmm, Res24dpmm}

// DotsPerMM returns the dot density, or 0 for an unknown resolution.
func (r Resolution) DotsPerMM() int { return resolutionDots[r] }

// DPI returns the approximate dots per inch (152, 203, 300, 600).
func (r Resolution) DPI() int {
	switch r {
	case Res6dpmm:
		return 152
	case Res8dpmm:
		return 203
	case Res12dpmm:
		return 300
	case Res24dpmm:
		return 600
	}
	return 0
}

// Size is a named physical label size class.
type Size string

// Supported label sizes (width x height in inches).
const (
	Size4x6 Size = "4x6"
	Size3x2 Size = "3x2"
	Size2x1 Size = "2x1"
)

// Sizes lists the supported label sizes.
var Sizes = []Size{Size4x6, Size3x2, Size2x1}

type sizeSpec struct {
	widthIn, heightIn float64
	canvasW, canvasH  int
}

var sizeSpecs = map[Size]sizeSpec{
	Size4x6: {4, 6, 600, 400},
	Size3x2: {3, 2, 450, 300},
	Size2x1: {2, 1, 300, 150},
}

// Canvas returns the editor canvas extent in pixels for this size.
func (s Size) Canvas() (width, height int) {
	spec := sizeSpecs[s]
	return spec.canvasW, spec.canvasH
}

// Inches returns the physical label dimensions.
func (s Size) Inches() (width, height float64) {
	spec := sizeSpecs[s]
	return spec.widthIn, spec.heightIn
}

// Millimetres returns the physical label dimensions in mm.
func (s Size) Millimetres() (width, height float64) {
	w, h := s.Inches()
	return w * 25.4, h * 25.4
}

// String returns a display name such as `4" x 6"`.
func (s Size) String() string {
	w, h := s.Inches()
	return fmt.Sprintf(`%g" x %g"`, w, h)
}

// Profile pairs a print resolution with a physical label size. It is used to
// parameterise preview rendering.
type Profile struct {
	Resolution Resolution `json:"resolution" bson:"resolution" toml:"resolution"`
	Size       Size       `json:"size" bson:"size" toml:"size"`
}

// DefaultProfile returns the 8dpmm, 4x6 profile.
func DefaultProfile() Profile {
	return Profile{Resolution: Res8dpmm, Size: Size4x6}
}

// WithDefaults fills empty fields from DefaultProfile.
func (p Profile) WithDefaults() Profile {
	def := DefaultProfile()
	if p.Resolution == "" {
		p.Resolution = def.Resolution
	}
	if p.Size == "" {
		p.Size = def.Size
	}
	return p
}

// Validate checks that both the resolution and the size are supported.
func (p Profile) Validate() error {
	if _, ok := resolutionDots[p.Resolution]; !ok {
		return errors.New(errors.ErrCodeInvalidProfile,
			"invalid resolution: %q (must be one of: 6dpmm, 8dpmm, 12dpmm, 24dpmm)", p.Resolution)
	}
	if _, ok := sizeSpecs[p.Size]; !ok {
		return errors.New(errors.ErrCodeInvalidProfile,
			"invalid size: %q (must be one of: 4x6, 3x2, 2x1)", p.Size)
	}
	return nil
}

// String returns "resolution/size", e.g. "8dpmm/4x6".
func (p Profile) String() string {
	return string(p.Resolution) + "/" + string(p.Size)
}
