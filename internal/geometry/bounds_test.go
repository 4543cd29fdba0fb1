package geometry

import (
	"testing"

	"github.com/dyuri/cave3d/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestBoundsTransformRoundTrip(t *testing.T) {
	points := []model.Point3{
		{X: -500, Y: 20, Z: -3000},
		{X: 1200, Y: -800, Z: 40},
		{X: 300, Y: 950, Z: -1500},
	}
	b := ComputeBounds(points)
	assert.Equal(t, r3.Vec{X: -500, Y: -800, Z: -3000}, b.Min)
	assert.Equal(t, r3.Vec{X: 1200, Y: 950, Z: 40}, b.Max)

	const extent = 150.0
	tr, err := b.Transform(extent)
	require.NoError(t, err)

	for _, corner := range []r3.Vec{b.Min, b.Max} {
		v := tr.ApplyVec(corner)
		for _, c := range []float64{v.X, v.Y, v.Z} {
			assert.GreaterOrEqual(t, c, -extent/2-1e-9)
			assert.LessOrEqual(t, c, extent/2+1e-9)
		}
	}

	// The largest axis spans the full extent
	lo, hi := tr.ApplyVec(b.Min), tr.ApplyVec(b.Max)
	assert.InDelta(t, extent, hi.Z-lo.Z, 1e-9)
}

func TestBoundsDegenerate(t *testing.T) {
	b := ComputeBounds([]model.Point3{{X: 7, Y: 8, Z: 9}, {X: 7, Y: 8, Z: 9}})
	tr, err := b.Transform(150)
	assert.ErrorIs(t, err, ErrDegenerateExtent)
	assert.Equal(t, 1.0, tr.Scale)
	assert.Equal(t, r3.Vec{}, tr.Apply(model.Point3{X: 7, Y: 8, Z: 9}))

	empty := ComputeBounds(nil)
	assert.True(t, empty.Empty)
	_, err = empty.Transform(150)
	assert.ErrorIs(t, err, ErrDegenerateExtent)
}
