// Package render draws plan views of geometry bundles
package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/dyuri/cave3d/internal/model"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ErrNothingToDraw is returned for a bundle without legs or stations
var ErrNothingToDraw = errors.New("bundle has no legs or stations")

// PlanOptions controls plan rendering
type PlanOptions struct {
	Width    vg.Length
	Height   vg.Length
	Format   string // Any format accepted by plot.WriterTo, e.g. "png" or "svg"
	Splays   bool   // Draw splay legs
	Surface  bool   // Draw surface legs
	Stations bool   // Mark stations
}

// DefaultPlanOptions returns a 6x6 inch PNG of underground legs
func DefaultPlanOptions() PlanOptions {
	return PlanOptions{
		Width:  6 * vg.Inch,
		Height: 6 * vg.Inch,
		Format: "png",
	}
}

// legPlotter strokes each leg segment in the colour of its first vertex
type legPlotter struct {
	lines []model.Polyline
	style draw.LineStyle
}

var _ plot.Plotter = &legPlotter{}
var _ plot.DataRanger = &legPlotter{}

func (l *legPlotter) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	for _, pl := range l.lines {
		for i := 1; i < len(pl.Vertices); i++ {
			a, b := pl.Vertices[i-1], pl.Vertices[i]
			sty := l.style
			sty.Color = rgba(pl.Colors[i-1])
			pts := c.ClipLinesXY([]vg.Point{
				{X: trX(a.X), Y: trY(a.Y)},
				{X: trX(b.X), Y: trY(b.Y)},
			})
			c.StrokeLines(sty, pts...)
		}
	}
}

func (l *legPlotter) DataRange() (xmin, xmax, ymin, ymax float64) {
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	for _, pl := range l.lines {
		for _, v := range pl.Vertices {
			xmin, xmax = math.Min(xmin, v.X), math.Max(xmax, v.X)
			ymin, ymax = math.Min(ymin, v.Y), math.Max(ymax, v.Y)
		}
	}
	return xmin, xmax, ymin, ymax
}

// NewPlan builds a plan-view plot of b: X east, Y north, legs coloured by height
func NewPlan(b *model.GeometryBundle, opts PlanOptions) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = b.Header.Title
	p.X.Label.Text = "East"
	p.Y.Label.Text = "North"

	legs := &legPlotter{style: plotter.DefaultLineStyle}
	legs.style.Width = vg.Points(1)
	for _, key := range b.LegOrder {
		if key.Splay && !opts.Splays {
			continue
		}
		if !key.Underground && !opts.Surface {
			continue
		}
		legs.lines = append(legs.lines, b.Legs[key]...)
	}

	drawn := false
	if len(legs.lines) > 0 {
		p.Add(legs)
		drawn = true
	}

	if opts.Stations && len(b.Stations) > 0 {
		pts := make(plotter.XYs, len(b.Stations))
		for i, v := range b.Stations {
			pts[i] = plotter.XY{X: v.X, Y: v.Y}
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("station markers: %w", err)
		}
		sc.GlyphStyle.Radius = vg.Points(1.5)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
		drawn = true
	}

	if !drawn {
		return nil, ErrNothingToDraw
	}

	squareAxes(p)
	return p, nil
}

// squareAxes widens the shorter axis so both share one scale
func squareAxes(p *plot.Plot) {
	w := p.X.Max - p.X.Min
	h := p.Y.Max - p.Y.Min
	half := math.Max(w, h) / 2
	if half == 0 {
		half = 1
	}
	cx := (p.X.Min + p.X.Max) / 2
	cy := (p.Y.Min + p.Y.Max) / 2
	p.X.Min, p.X.Max = cx-half, cx+half
	p.Y.Min, p.Y.Max = cy-half, cy+half
}

// WritePlan renders the plan of b to w
func WritePlan(w io.Writer, b *model.GeometryBundle, opts PlanOptions) error {
	p, err := NewPlan(b, opts)
	if err != nil {
		return err
	}
	if opts.Format == "" {
		opts.Format = "png"
	}
	wt, err := p.WriterTo(opts.Width, opts.Height, opts.Format)
	if err != nil {
		return fmt.Errorf("render %s: %w", opts.Format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	return nil
}

func rgba(c model.Color) color.RGBA {
	return color.RGBA{
		R: channel(c.R),
		G: channel(c.G),
		B: channel(c.B),
		A: 0xff,
	}
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
