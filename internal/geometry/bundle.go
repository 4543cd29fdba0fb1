// Package geometry turns a decoded survey into renderable geometry:
// normalized station points, coloured leg polylines and passage meshes.
package geometry

import (
	"errors"
	"fmt"

	"github.com/dyuri/cave3d/internal/model"
	"github.com/hashicorp/go-multierror"
	"gonum.org/v1/gonum/spatial/r3"
)

// Options controls bundle construction
type Options struct {
	TargetExtent      float64      // Largest side after scaling, 0 means DefaultTargetExtent
	HueDirection      HueDirection // Which end of the height range is blue
	SkipCrossSections bool         // Do not build passage meshes
}

// DefaultOptions returns the options used when none are given
func DefaultOptions() Options {
	return Options{TargetExtent: DefaultTargetExtent, HueDirection: DeepBlue}
}

// Build normalizes and colours a survey.
//
// Geometry problems do not abort the build: a degenerate bounding box
// leaves points unscaled, and tubes referencing unknown stations are
// skipped. Both are recorded in the bundle's diagnostics, after the
// diagnostics the survey already carries from decoding. The returned
// error is non-nil only when the survey itself is nil.
func Build(s *model.Survey, opts Options) (*model.GeometryBundle, error) {
	if s == nil {
		return nil, errors.New("nil survey")
	}
	if opts.TargetExtent <= 0 {
		opts.TargetExtent = DefaultTargetExtent
	}

	// Decode diagnostics come first, in stream order
	bundle := &model.GeometryBundle{
		Header:      s.Header,
		Legs:        make(map[model.LegKey][]model.Polyline, len(s.Legs)),
		LegOrder:    append([]model.LegKey(nil), s.LegOrder...),
		Diagnostics: append([]model.Diagnostic(nil), s.Diagnostics...),
	}

	// Bounds come from stations; surveys without stations fall back to leg vertices
	points := s.Stations.Points()
	if len(points) == 0 {
		points = legPoints(s)
	}
	bounds := ComputeBounds(points)

	transform, err := bounds.Transform(opts.TargetExtent)
	if err != nil {
		bundle.Diagnostics = append(bundle.Diagnostics, degenerate(fmt.Sprintf("bounding box: %v, using unit scale", err)))
	}
	bundle.Transform = transform
	bundle.ZRange = [2]float64{bounds.Min.Z, bounds.Max.Z}

	colors := bounds.ColorMapper(opts.HueDirection)
	if colors.Degenerate() && !bounds.Empty {
		bundle.Diagnostics = append(bundle.Diagnostics, degenerate("zero height range, using fixed hue"))
	}

	// Stations
	for _, st := range s.Stations.All() {
		bundle.StationLabels = append(bundle.StationLabels, st.Label)
		bundle.Stations = append(bundle.Stations, transform.Apply(st.Pos))
	}

	// Legs
	for key, leg := range s.Legs {
		lines := make([]model.Polyline, 0, len(leg))
		for _, run := range leg {
			pl := model.Polyline{
				Vertices: make([]r3.Vec, len(run)),
				Colors:   make([]model.Color, len(run)),
			}
			for i, p := range run {
				pl.Vertices[i] = transform.Apply(p)
				pl.Colors[i] = colors.At(float64(p.Z))
			}
			lines = append(lines, pl)
		}
		bundle.Legs[key] = lines
	}

	// Cross sections
	if !opts.SkipCrossSections {
		meshes, _, err := BuildTubes(s.Tubes, s.Stations, colors)
		if err != nil {
			var merr *multierror.Error
			if errors.As(err, &merr) {
				for _, e := range merr.Errors {
					bundle.Diagnostics = append(bundle.Diagnostics, model.Diagnostic{
						Offset:  -1,
						Kind:    model.DiagUnresolved,
						Message: fmt.Sprintf("%v, tube skipped", e),
					})
				}
			}
		}
		for _, m := range meshes {
			for i, v := range m.Vertices {
				m.Vertices[i] = transform.ApplyVec(v)
			}
			bundle.Meshes = append(bundle.Meshes, m)
		}
	}

	return bundle, nil
}

func legPoints(s *model.Survey) []model.Point3 {
	var pts []model.Point3
	for _, leg := range s.Legs {
		for _, run := range leg {
			pts = append(pts, run...)
		}
	}
	return pts
}

func degenerate(msg string) model.Diagnostic {
	return model.Diagnostic{Offset: -1, Kind: model.DiagDegenerate, Message: msg}
}
