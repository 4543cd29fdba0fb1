// Package export serializes geometry bundles for consumers outside Go.
package export

import (
	"github.com/dyuri/cave3d/internal/model"
	"gonum.org/v1/gonum/spatial/r3"
)

// Document is the serialized form of a geometry bundle. Leg classes are
// flattened to a list since encoders cannot key maps by struct.
type Document struct {
	Title       string       `cbor:"title" json:"title"`
	Version     string       `cbor:"version" json:"version"`
	Metadata    string       `cbor:"metadata" json:"metadata"`
	Timestamp   string       `cbor:"timestamp" json:"timestamp"`
	Scale       float64      `cbor:"scale" json:"scale"`
	Center      [3]float64   `cbor:"center" json:"center"`
	ZRange      [2]float64   `cbor:"z_range" json:"z_range"`
	Stations    []Station    `cbor:"stations" json:"stations"`
	Legs        []Leg        `cbor:"legs" json:"legs"`
	Meshes      []Mesh       `cbor:"meshes" json:"meshes"`
	Diagnostics []Diagnostic `cbor:"diagnostics,omitempty" json:"diagnostics,omitempty"`
}

type Station struct {
	Label string     `cbor:"label" json:"label"`
	Pos   [3]float64 `cbor:"pos" json:"pos"`
}

// Leg holds every run of one visibility class
type Leg struct {
	Key         string     `cbor:"key" json:"key"`
	Underground bool       `cbor:"underground" json:"underground"`
	Duplicate   bool       `cbor:"duplicate" json:"duplicate"`
	Splay       bool       `cbor:"splay" json:"splay"`
	Runs        []Polyline `cbor:"runs" json:"runs"`
}

type Polyline struct {
	Vertices [][3]float64 `cbor:"vertices" json:"vertices"`
	Colors   [][3]float64 `cbor:"colors" json:"colors"`
}

// Mesh is a triangle list, three vertices per triangle
type Mesh struct {
	Triangles int          `cbor:"triangles" json:"triangles"`
	Vertices  [][3]float64 `cbor:"vertices" json:"vertices"`
	Colors    [][3]float64 `cbor:"colors" json:"colors"`
}

type Diagnostic struct {
	Kind    string `cbor:"kind" json:"kind"`
	Offset  int    `cbor:"offset" json:"offset"`
	Opcode  byte   `cbor:"opcode" json:"opcode"`
	Message string `cbor:"message" json:"message"`
}

// NewDocument converts b. Legs keep the bundle's first-seen order.
func NewDocument(b *model.GeometryBundle) Document {
	doc := Document{
		Title:     b.Header.Title,
		Version:   b.Header.Version,
		Metadata:  b.Header.Metadata,
		Timestamp: b.Header.Timestamp,
		Scale:     b.Transform.Scale,
		Center:    vec(b.Transform.Center),
		ZRange:    b.ZRange,
		Stations:  make([]Station, len(b.Stations)),
		Legs:      make([]Leg, 0, len(b.LegOrder)),
		Meshes:    make([]Mesh, len(b.Meshes)),
	}

	for i, p := range b.Stations {
		doc.Stations[i] = Station{Label: b.StationLabels[i], Pos: vec(p)}
	}

	for _, key := range b.LegOrder {
		leg := Leg{
			Key:         key.String(),
			Underground: key.Underground,
			Duplicate:   key.Duplicate,
			Splay:       key.Splay,
		}
		for _, pl := range b.Legs[key] {
			leg.Runs = append(leg.Runs, Polyline{
				Vertices: vecs(pl.Vertices),
				Colors:   colors(pl.Colors),
			})
		}
		doc.Legs = append(doc.Legs, leg)
	}

	for i, m := range b.Meshes {
		doc.Meshes[i] = Mesh{
			Triangles: m.Triangles(),
			Vertices:  vecs(m.Vertices),
			Colors:    colors(m.Colors),
		}
	}

	for _, d := range b.Diagnostics {
		doc.Diagnostics = append(doc.Diagnostics, Diagnostic{
			Kind:    d.Kind.String(),
			Offset:  d.Offset,
			Opcode:  d.Opcode,
			Message: d.Message,
		})
	}

	return doc
}

func vec(v r3.Vec) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func vecs(vs []r3.Vec) [][3]float64 {
	out := make([][3]float64, len(vs))
	for i, v := range vs {
		out[i] = vec(v)
	}
	return out
}

func colors(cs []model.Color) [][3]float64 {
	out := make([][3]float64, len(cs))
	for i, c := range cs {
		out[i] = [3]float64{c.R, c.G, c.B}
	}
	return out
}
