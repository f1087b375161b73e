package zpl

import "testing"

func TestMapAxis(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 0},
		{1, 2},
		{50, 100},
		{-7, 0},
	}
	for _, tt := range tests {
		if got := MapAxis(tt.in); got != tt.want {
			t.Errorf("MapAxis(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMapperMonotonic(t *testing.T) {
	for _, scale := range []float64{0, 0.5, 1, 1.33, 2, 2.5, 3.7} {
		m := Mapper{Scale: scale}
		if m.Axis(0) != 0 {
			t.Errorf("scale %v: Axis(0) = %d", scale, m.Axis(0))
		}
		prev := m.Axis(-100)
		for px := -99; px <= 1000; px++ {
			got := m.Axis(px)
			if got < prev {
				t.Fatalf("scale %v: Axis(%d) = %d < Axis(%d) = %d", scale, px, got, px-1, prev)
			}
			prev = got
		}
	}
}

func TestMapperRounding(t *testing.T) {
	m := Mapper{Scale: 0.5}
	if got := m.Axis(3); got != 2 {
		t.Errorf("Axis(3) at 0.5 = %d, want 2 (half rounds away from zero)", got)
	}
	if got := m.Size(-4); got != 0 {
		t.Errorf("Size(-4) = %d, want 0", got)
	}
	if got := m.Size(37); got != 37 {
		t.Errorf("Size must not scale, got %d", got)
	}
}
