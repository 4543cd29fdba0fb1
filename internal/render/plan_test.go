package render

import (
	"bytes"
	"errors"
	"image/png"
	"testing"

	"github.com/dyuri/cave3d/internal/model"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot/vg"
)

func planBundle() *model.GeometryBundle {
	cave := model.LegKey{Underground: true}
	splay := model.LegKey{Underground: true, Splay: true}
	red := model.Color{R: 1}
	blue := model.Color{B: 1}
	return &model.GeometryBundle{
		Header:        model.Header{Title: "Plan"},
		StationLabels: []string{"a", "b"},
		Stations:      []r3.Vec{{X: -75, Y: 0}, {X: 75, Y: 10}},
		Legs: map[model.LegKey][]model.Polyline{
			cave: {{
				Vertices: []r3.Vec{{X: -75}, {X: 0, Y: 5}, {X: 75, Y: 10}},
				Colors:   []model.Color{blue, red, red},
			}},
			splay: {{
				Vertices: []r3.Vec{{X: 0, Y: 5}, {X: 0, Y: 40}},
				Colors:   []model.Color{red, red},
			}},
		},
		LegOrder: []model.LegKey{cave, splay},
	}
}

func TestWritePlanPNG(t *testing.T) {
	opts := DefaultPlanOptions()
	opts.Width, opts.Height = 3*vg.Inch, 2*vg.Inch
	opts.Stations = true

	var buf bytes.Buffer
	if err := WritePlan(&buf, planBundle(), opts); err != nil {
		t.Fatalf("WritePlan failed: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("Output is not a PNG: %v", err)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		t.Errorf("Image size = %v, want non-empty", img.Bounds())
	}
}

func TestNewPlanSquareAxes(t *testing.T) {
	p, err := NewPlan(planBundle(), DefaultPlanOptions())
	if err != nil {
		t.Fatalf("NewPlan failed: %v", err)
	}

	w := p.X.Max - p.X.Min
	h := p.Y.Max - p.Y.Min
	if w != h {
		t.Errorf("Axis spans = %g x %g, want equal", w, h)
	}
	if w != 150 {
		t.Errorf("Axis span = %g, want 150", w)
	}
}

func TestNewPlanFilters(t *testing.T) {
	b := planBundle()
	b.Stations = nil
	b.StationLabels = nil
	b.Legs = map[model.LegKey][]model.Polyline{
		{Underground: true, Splay: true}: b.Legs[model.LegKey{Underground: true, Splay: true}],
	}
	b.LegOrder = []model.LegKey{{Underground: true, Splay: true}}

	if _, err := NewPlan(b, DefaultPlanOptions()); !errors.Is(err, ErrNothingToDraw) {
		t.Errorf("NewPlan error = %v, want ErrNothingToDraw", err)
	}

	opts := DefaultPlanOptions()
	opts.Splays = true
	if _, err := NewPlan(b, opts); err != nil {
		t.Errorf("NewPlan with splays failed: %v", err)
	}
}

func TestChannel(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{0, 0},
		{1, 255},
		{0.5, 128},
		{-0.1, 0},
		{1.2, 255},
	}

	for _, tt := range tests {
		if got := channel(tt.in); got != tt.want {
			t.Errorf("channel(%g) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
