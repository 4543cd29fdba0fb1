package geometry

import (
	"fmt"
	"testing"

	"github.com/dyuri/cave3d/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// straightPassage returns n stations 100 units apart along +X and a
// tube through them
func straightPassage(n int) (*model.StationRegistry, model.Tube) {
	reg := model.NewStationRegistry()
	tube := make(model.Tube, n)
	for i := 0; i < n; i++ {
		label := fmt.Sprintf("s%d", i)
		reg.Set(model.Station{Label: label, Pos: model.Point3{X: int32(100 * i)}})
		tube[i] = model.CrossSectionRing{Label: label, Left: 10, Right: 20, Up: 30, Down: 40}
	}
	return reg, tube
}

var testColors = ColorMapper{MinZ: -40, MaxZ: 30}

func TestBuildTubeTriangleCount(t *testing.T) {
	for _, n := range []int{2, 3, 5, 10} {
		t.Run(fmt.Sprintf("%d rings", n), func(t *testing.T) {
			reg, tube := straightPassage(n)
			m, err := BuildTube(tube, reg, testColors)
			require.NoError(t, err)

			// Two caps of two triangles plus eight side triangles per segment
			assert.Equal(t, 4+8*(n-1), m.Triangles())
			assert.Len(t, m.Colors, len(m.Vertices))
		})
	}
}

func TestBuildTubeTooShort(t *testing.T) {
	reg, tube := straightPassage(1)

	m, err := BuildTube(tube, reg, testColors)
	require.NoError(t, err)
	assert.Empty(t, m.Vertices)

	m, err = BuildTube(nil, reg, testColors)
	require.NoError(t, err)
	assert.Empty(t, m.Vertices)
}

func TestBuildTubeRimOffsets(t *testing.T) {
	reg, tube := straightPassage(2)
	m, err := BuildTube(tube, reg, testColors)
	require.NoError(t, err)

	// Start cap is LU, LD, RU. Passage runs along +X, so left is +Y.
	assert.Equal(t, r3.Vec{X: 0, Y: 10, Z: 30}, m.Vertices[0])
	assert.Equal(t, r3.Vec{X: 0, Y: 10, Z: -40}, m.Vertices[1])
	assert.Equal(t, r3.Vec{X: 0, Y: -20, Z: 30}, m.Vertices[2])

	// Vertex colour follows vertex height
	assert.Equal(t, testColors.At(30), m.Colors[0])
	assert.Equal(t, testColors.At(-40), m.Colors[1])
}

func TestBuildTubeUnresolved(t *testing.T) {
	reg, tube := straightPassage(3)
	tube[1].Label = "missing"

	_, err := BuildTube(tube, reg, testColors)
	assert.ErrorIs(t, err, ErrUnresolvedStation)
	assert.Contains(t, err.Error(), "missing")
}

func TestBuildTubeSingleRingUnresolved(t *testing.T) {
	reg, _ := straightPassage(2)

	m, err := BuildTube(model.Tube{{Label: "zz", Up: 5}}, reg, testColors)
	assert.ErrorIs(t, err, ErrUnresolvedStation)
	assert.Empty(t, m.Vertices)

	meshes, skipped, err := BuildTubes([]model.Tube{{{Label: "s1"}}, {{Label: "zz"}}}, reg, testColors)
	assert.ErrorIs(t, err, ErrUnresolvedStation)
	assert.Empty(t, meshes)
	assert.Equal(t, []int{1}, skipped)
}

func TestBuildTubesCollectsErrors(t *testing.T) {
	reg, good := straightPassage(3)
	bad := model.Tube{{Label: "s0"}, {Label: "nowhere"}}

	meshes, skipped, err := BuildTubes([]model.Tube{bad, good, bad}, reg, testColors)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolvedStation)
	assert.Len(t, meshes, 1)
	assert.Equal(t, []int{0, 2}, skipped)
}

func TestRingDirectionBisector(t *testing.T) {
	pos := []model.Point3{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}}

	d := ringDirection(pos, 1)
	assert.InDelta(t, 1/1.4142135623730951, d.X, 1e-12)
	assert.InDelta(t, 1/1.4142135623730951, d.Y, 1e-12)

	assert.Equal(t, r2.Vec{X: 1}, ringDirection(pos, 0))
	assert.Equal(t, r2.Vec{Y: 1}, ringDirection(pos, 2))
}

func TestRingDirectionCoincident(t *testing.T) {
	// Stacked stations have no plan direction; nothing may become NaN
	pos := []model.Point3{{Z: 0}, {Z: -100}, {Z: -200}}
	for i := range pos {
		assert.Equal(t, r2.Vec{}, ringDirection(pos, i))
	}
}
