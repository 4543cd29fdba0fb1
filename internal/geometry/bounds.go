package geometry

import (
	"errors"
	"math"

	"github.com/dyuri/cave3d/internal/model"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrDegenerateExtent is returned when the points span no volume or
// the height range is empty. Callers fall back to an identity scale or
// a fixed hue.
var ErrDegenerateExtent = errors.New("degenerate extent")

// DefaultTargetExtent is the size of the largest bounding box side
// after normalization
const DefaultTargetExtent = 150.0

// Bounds is an axis-aligned bounding box in survey units
type Bounds struct {
	Min   r3.Vec
	Max   r3.Vec
	Empty bool
}

// ComputeBounds scans points once for the per-axis minimum and maximum
func ComputeBounds(points []model.Point3) Bounds {
	if len(points) == 0 {
		return Bounds{Empty: true}
	}

	b := Bounds{
		Min: r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		Max: r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}
	for _, p := range points {
		x, y, z := float64(p.X), float64(p.Y), float64(p.Z)
		b.Min.X = math.Min(b.Min.X, x)
		b.Min.Y = math.Min(b.Min.Y, y)
		b.Min.Z = math.Min(b.Min.Z, z)
		b.Max.X = math.Max(b.Max.X, x)
		b.Max.Y = math.Max(b.Max.Y, y)
		b.Max.Z = math.Max(b.Max.Z, z)
	}
	return b
}

// Size returns the extent along each axis
func (b Bounds) Size() r3.Vec {
	if b.Empty {
		return r3.Vec{}
	}
	return r3.Sub(b.Max, b.Min)
}

// Center returns the middle of the box
func (b Bounds) Center() r3.Vec {
	if b.Empty {
		return r3.Vec{}
	}
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

// Transform returns the translation and uniform scale that centres the
// box on the origin with its largest side equal to extent.
//
// A box with zero size returns ErrDegenerateExtent together with a
// usable transform: the box is centred but not scaled.
func (b Bounds) Transform(extent float64) (model.Transform, error) {
	if b.Empty {
		return model.IdentityTransform(), ErrDegenerateExtent
	}

	size := b.Size()
	largest := math.Max(size.X, math.Max(size.Y, size.Z))
	t := model.Transform{Scale: 1, Center: b.Center()}
	if largest == 0 {
		return t, ErrDegenerateExtent
	}
	t.Scale = extent / largest
	return t, nil
}

// ColorMapper returns a height mapper over the box's Z range
func (b Bounds) ColorMapper(dir HueDirection) ColorMapper {
	return ColorMapper{MinZ: b.Min.Z, MaxZ: b.Max.Z, Direction: dir}
}
