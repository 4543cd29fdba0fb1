package geometry

import (
	"errors"
	"fmt"

	"github.com/dyuri/cave3d/internal/model"
	"github.com/hashicorp/go-multierror"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrUnresolvedStation is returned when a cross-section ring names a
// station that was never defined
var ErrUnresolvedStation = errors.New("unresolved station reference")

// StationLookup resolves station labels to positions
type StationLookup interface {
	Lookup(label string) (model.Station, bool)
}

// ring is a resolved cross-section: its four corner vertices
type ring struct {
	lu, ld, ru, rd r3.Vec
}

// BuildTube extrudes a passage mesh along one tube. Vertex positions
// are in survey units; colours are taken from each vertex's height.
// Every ring must name a known station; tubes with fewer than two rings
// then produce an empty mesh.
func BuildTube(tube model.Tube, stations StationLookup, colors ColorMapper) (model.Mesh, error) {
	pos := make([]model.Point3, len(tube))
	for i, xs := range tube {
		st, ok := stations.Lookup(xs.Label)
		if !ok {
			return model.Mesh{}, fmt.Errorf("ring %d %q: %w", i, xs.Label, ErrUnresolvedStation)
		}
		pos[i] = st.Pos
	}

	if len(tube) < 2 {
		return model.Mesh{}, nil
	}

	b := &meshBuilder{colors: colors}
	var prev ring
	for i, xs := range tube {
		cur := ringAt(pos[i], ringDirection(pos, i), xs)

		if i == 0 {
			// Start cap
			b.tri(cur.lu, cur.ld, cur.ru)
			b.tri(cur.ru, cur.ld, cur.rd)
		} else {
			b.sides(prev, cur)
		}

		if i == len(tube)-1 {
			// End cap
			b.tri(cur.ru, cur.rd, cur.lu)
			b.tri(cur.rd, cur.ld, cur.lu)
		}
		prev = cur
	}

	return b.mesh, nil
}

// BuildTubes builds a mesh per tube. Tubes referencing unknown stations
// are skipped; their errors are collected and returned together with
// the meshes that could be built. skipped holds the indices of failed tubes.
func BuildTubes(tubes []model.Tube, stations StationLookup, colors ColorMapper) (meshes []model.Mesh, skipped []int, err error) {
	var errs *multierror.Error
	for i, tube := range tubes {
		m, terr := BuildTube(tube, stations, colors)
		if terr != nil {
			errs = multierror.Append(errs, fmt.Errorf("tube %d: %w", i, terr))
			skipped = append(skipped, i)
			continue
		}
		if len(m.Vertices) == 0 {
			continue
		}
		meshes = append(meshes, m)
	}
	return meshes, skipped, errs.ErrorOrNil()
}

// ringDirection returns the unit plan direction of the passage at ring i
func ringDirection(pos []model.Point3, i int) r2.Vec {
	last := len(pos) - 1
	switch i {
	case 0:
		return unitOrZero(r2.Sub(plan(pos[1]), plan(pos[0])))
	case last:
		return unitOrZero(r2.Sub(plan(pos[last]), plan(pos[last-1])))
	}

	// Interior rings face along the bisector of both legs
	out := unitOrZero(r2.Sub(plan(pos[i+1]), plan(pos[i])))
	in := unitOrZero(r2.Sub(plan(pos[i]), plan(pos[i-1])))
	return unitOrZero(r2.Add(out, in))
}

// ringAt offsets the station perpendicular to dir by the left and right
// distances, and vertically by up and down
func ringAt(p model.Point3, dir r2.Vec, xs model.CrossSectionRing) ring {
	centre := plan(p)
	leftPerp := r2.Vec{X: -dir.Y, Y: dir.X}
	rightPerp := r2.Vec{X: dir.Y, Y: -dir.X}

	left := r2.Add(centre, r2.Scale(float64(xs.Left), leftPerp))
	right := r2.Add(centre, r2.Scale(float64(xs.Right), rightPerp))
	up := float64(p.Z) + float64(xs.Up)
	down := float64(p.Z) - float64(xs.Down)

	return ring{
		lu: r3.Vec{X: left.X, Y: left.Y, Z: up},
		ld: r3.Vec{X: left.X, Y: left.Y, Z: down},
		ru: r3.Vec{X: right.X, Y: right.Y, Z: up},
		rd: r3.Vec{X: right.X, Y: right.Y, Z: down},
	}
}

func plan(p model.Point3) r2.Vec {
	return r2.Vec{X: float64(p.X), Y: float64(p.Y)}
}

// unitOrZero normalizes v, leaving a zero vector unchanged
func unitOrZero(v r2.Vec) r2.Vec {
	n := r2.Norm(v)
	if n == 0 {
		return v
	}
	return r2.Scale(1/n, v)
}

type meshBuilder struct {
	colors ColorMapper
	mesh   model.Mesh
}

func (b *meshBuilder) tri(a, c, d r3.Vec) {
	for _, v := range [3]r3.Vec{a, c, d} {
		b.mesh.Vertices = append(b.mesh.Vertices, v)
		b.mesh.Colors = append(b.mesh.Colors, b.colors.At(v.Z))
	}
}

// sides joins two consecutive rings with top, right, bottom and left faces
func (b *meshBuilder) sides(p, c ring) {
	// Top
	b.tri(p.lu, p.ru, c.lu)
	b.tri(p.ru, c.ru, c.lu)
	// Right
	b.tri(p.ru, p.rd, c.ru)
	b.tri(p.rd, c.rd, c.ru)
	// Bottom
	b.tri(c.ld, c.rd, p.rd)
	b.tri(c.ld, p.rd, p.ld)
	// Left
	b.tri(c.lu, p.ld, p.lu)
	b.tri(c.lu, c.ld, p.ld)
}
