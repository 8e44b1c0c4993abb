// Package chart draws the split violin chart of a result with gonum/plot.
package chart

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/drew/databoard/internal/model"
	"github.com/drew/databoard/internal/results"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Supported output formats
const (
	FormatSVG = "svg"
	FormatPNG = "png"
)

var (
	width     = 8 * vg.Inch
	rowHeight = 1 * vg.Inch
	margin    = 1.25 * vg.Inch
)

// ContentType returns the MIME type of a chart format
func ContentType(format string) string {
	if format == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// Violin renders the chart to an in-memory image
func Violin(data results.ChartData, format string) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteViolin(&buf, data, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteViolin renders the chart and writes it to w
func WriteViolin(w io.Writer, data results.ChartData, format string) error {
	if format != FormatSVG && format != FormatPNG {
		return fmt.Errorf("unsupported chart format %q", format)
	}
	if data.Empty() {
		return fmt.Errorf("%w: nothing to draw", model.ErrEmptyResult)
	}

	p, err := build(data)
	if err != nil {
		return err
	}

	height := rowHeight*vg.Length(len(data.Groups)) + margin
	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return fmt.Errorf("failed to encode chart: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return nil
}

func build(data results.ChartData) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = data.Label
	p.Add(plotter.NewGrid())

	n := len(data.Groups)
	names := make([]string, n)
	for i, g := range data.Groups {
		// First location on top
		y := float64(n - 1 - i)
		names[n-1-i] = g.Location

		if err := addGroup(p, g, y, data.Split, plotutil.SoftColors[i%len(plotutil.SoftColors)]); err != nil {
			return nil, fmt.Errorf("location %s: %w", g.Location, err)
		}
	}
	p.NominalY(names...)

	p.X.Min = data.Axis.Min
	p.X.Max = data.Axis.Max
	p.Y.Min = -0.5
	p.Y.Max = float64(n) - 0.5
	return p, nil
}

func addGroup(p *plot.Plot, g results.Group, y float64, split bool, fill color.Color) error {
	top := 0.2
	if len(g.Density) > 0 {
		top = 0
		outline := make(plotter.XYs, 0, 2*len(g.Density))
		for _, d := range g.Density {
			outline = append(outline, plotter.XY{X: d.X, Y: y + d.Width})
		}
		for i := len(g.Density) - 1; i >= 0; i-- {
			d := g.Density[i]
			lower := y
			if !split {
				lower = y - d.Width
			}
			outline = append(outline, plotter.XY{X: d.X, Y: lower})
		}

		poly, err := plotter.NewPolygon(outline)
		if err != nil {
			return err
		}
		poly.Color = fill
		poly.LineStyle.Color = color.Gray{Y: 64}
		poly.LineStyle.Width = vg.Points(0.75)
		p.Add(poly)

		for _, d := range g.Density {
			if d.Width > top {
				top = d.Width
			}
		}
	}

	// Quartile ticks reach the outline of the violin
	for _, q := range []struct {
		x      float64
		dashed bool
	}{{g.Q1, true}, {g.Median, false}, {g.Q3, true}} {
		h := widthAt(g.Density, q.x)
		if h == 0 {
			h = top
		}
		line, err := plotter.NewLine(plotter.XYs{{X: q.x, Y: y}, {X: q.x, Y: y + h}})
		if err != nil {
			return err
		}
		line.LineStyle.Color = color.Gray{Y: 32}
		line.LineStyle.Width = vg.Points(1)
		if q.dashed {
			line.LineStyle.Dashes = []vg.Length{vg.Points(3), vg.Points(2)}
		}
		p.Add(line)
	}

	if len(g.Density) == 0 {
		pts, err := plotter.NewScatter(plotter.XYs{{X: g.Median, Y: y}})
		if err != nil {
			return err
		}
		pts.GlyphStyle.Color = fill
		pts.GlyphStyle.Radius = vg.Points(4)
		p.Add(pts)
	}
	return nil
}

// widthAt linearly interpolates the outline width at x
func widthAt(density []results.DensityPoint, x float64) float64 {
	for i := 1; i < len(density); i++ {
		a, b := density[i-1], density[i]
		if x < a.X || x > b.X {
			continue
		}
		if b.X == a.X {
			return a.Width
		}
		t := (x - a.X) / (b.X - a.X)
		return a.Width + t*(b.Width-a.Width)
	}
	return 0
}
