package geometry

import (
	"fmt"
	"math"

	"github.com/dyuri/cave3d/internal/model"
)

// HueDirection selects which end of the height range is blue
type HueDirection int

const (
	DeepBlue HueDirection = iota // Lowest point blue, highest red
	DeepRed                      // Lowest point red, highest blue
)

// ParseHueDirection parses "deep_blue" or "deep_red"
func ParseHueDirection(s string) (HueDirection, error) {
	switch s {
	case "", "deep_blue":
		return DeepBlue, nil
	case "deep_red":
		return DeepRed, nil
	default:
		return DeepBlue, fmt.Errorf("unknown hue direction: %s", s)
	}
}

func (d HueDirection) String() string {
	if d == DeepRed {
		return "deep_red"
	}
	return "deep_blue"
}

// maxHue is the hue span used for heights, blue (2/3) to red (0)
const maxHue = 2.0 / 3.0

// ColorMapper maps absolute heights to colours
type ColorMapper struct {
	MinZ      float64
	MaxZ      float64
	Direction HueDirection
}

// Degenerate reports whether the height range is empty
func (m ColorMapper) Degenerate() bool {
	return m.MaxZ == m.MinZ
}

// Hue returns the hue in [0, 2/3] for height h. Heights outside the
// range take the colour of the nearer end; a degenerate range gives hue 0.
func (m ColorMapper) Hue(h float64) float64 {
	if m.Degenerate() {
		return 0
	}
	t := (h - m.MinZ) / (m.MaxZ - m.MinZ)
	t = math.Max(0, math.Min(1, t))
	if m.Direction == DeepRed {
		return t * maxHue
	}
	return maxHue - t*maxHue
}

// At returns the fully saturated colour for height h
func (m ColorMapper) At(h float64) model.Color {
	return HSLToRGB(m.Hue(h), 1, 0.5)
}

// HSLToRGB converts hue, saturation and lightness in [0,1] to RGB.
// The hue wraps, so any finite value is accepted.
func HSLToRGB(h, s, l float64) model.Color {
	if s == 0 {
		return model.Color{R: l, G: l, B: l}
	}

	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q

	return model.Color{
		R: hueToRGB(p, q, h+1.0/3.0),
		G: hueToRGB(p, q, h),
		B: hueToRGB(p, q, h-1.0/3.0),
	}
}

func hueToRGB(p, q, t float64) float64 {
	t -= math.Floor(t)
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}
