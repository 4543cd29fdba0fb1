package model

import "gonum.org/v1/gonum/spatial/r3"

// GeometryBundle is the renderable result built from a Survey.
// All positions are normalized: centred on the bounding box and
// uniformly scaled to the target extent.
type GeometryBundle struct {
	Header        Header
	StationLabels []string              // Parallel to Stations
	Stations      []r3.Vec              // Station point cloud
	Legs          map[LegKey][]Polyline // Coloured runs per visibility class
	LegOrder      []LegKey              // Keys of Legs in first-seen order
	Meshes        []Mesh                // One mesh per built tube
	Transform     Transform             // Scale and centre used for every vertex
	ZRange        [2]float64            // Raw height range used for colouring
	Diagnostics   []Diagnostic          // Decode events followed by recovered geometry problems
}

// Color is an RGB triple with components in [0,1]
type Color struct {
	R float64
	G float64
	B float64
}

// Polyline is a coloured line strip
type Polyline struct {
	Vertices []r3.Vec
	Colors   []Color // One per vertex
}

// Mesh is a coloured triangle list; every three vertices form a triangle
type Mesh struct {
	Vertices []r3.Vec
	Colors   []Color // One per vertex
}

// Triangles returns the number of triangles in the mesh
func (m Mesh) Triangles() int {
	return len(m.Vertices) / 3
}

// Transform maps raw survey points into normalized space:
// out = (p - Center) * Scale
type Transform struct {
	Scale  float64
	Center r3.Vec
}

// Apply transforms a raw point
func (t Transform) Apply(p Point3) r3.Vec {
	return t.ApplyVec(r3.Vec{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)})
}

// ApplyVec transforms a raw point given in float coordinates
func (t Transform) ApplyVec(v r3.Vec) r3.Vec {
	return r3.Scale(t.Scale, r3.Sub(v, t.Center))
}

// IdentityTransform leaves points unchanged
func IdentityTransform() Transform {
	return Transform{Scale: 1}
}
