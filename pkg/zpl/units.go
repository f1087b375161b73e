package zpl

import "math"

// DefaultScale converts editor pixels to printer dots.
const DefaultScale = 2.0

// Mapper converts editor pixel positions into device units.
// The zero value uses DefaultScale.
type Mapper struct {
	Scale float64
}

// DefaultMapper returns a Mapper using DefaultScale.
func DefaultMapper() Mapper {
	return Mapper{Scale: DefaultScale}
}

func (m Mapper) scale() float64 {
	if m.Scale <= 0 {
		return DefaultScale
	}
	return m.Scale
}

// Axis maps a pixel coordinate to dots, rounding to the nearest integer.
// Negative input maps to 0, so Axis is monotonic and Axis(0) == 0.
func (m Mapper) Axis(px int) int {
	if px <= 0 {
		return 0
	}
	return int(math.Round(float64(px) * m.scale()))
}

// Size clamps a width, height or font size to a non-negative integer.
// Sizes are not scaled.
func (m Mapper) Size(v int) int {
	return max(v, 0)
}

// MapAxis maps px with DefaultScale.
func MapAxis(px int) int {
	return DefaultMapper().Axis(px)
}
