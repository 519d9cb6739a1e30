// Package export writes simulation traces as image files.
package export

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/san-kum/dcmotor/internal/motor"
)

const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

var (
	ErrUnknownFormat = errors.New("export: unknown figure format")
	ErrNoFiniteData  = errors.New("export: series has no finite samples")
)

// FigureOptions sets the physical size of the figure. DPI only affects PNG.
type FigureOptions struct {
	Width  vg.Length
	Height vg.Length
	DPI    int
}

func DefaultFigureOptions() FigureOptions {
	return FigureOptions{Width: 8 * vg.Inch, Height: 9 * vg.Inch, DPI: 100}
}

type panel struct {
	label  string
	ylabel string
	data   []float64
	color  color.Color
}

func panels(tr *motor.Trace) []panel {
	return []panel{
		{"input voltage u(t)", "V", tr.Voltage, seriesBlue},
		{"current i(t)", "A", tr.Current, seriesBlue},
		{"angular velocity ω(t)", "rad/s", tr.Omega, color.RGBA{R: 220, A: 255}},
	}
}

var seriesBlue = color.RGBA{R: 31, G: 119, B: 180, A: 255}

// NewPlots builds one subplot per series, top to bottom: voltage, current,
// angular velocity. Non-finite samples are skipped.
func NewPlots(tr *motor.Trace) ([]*plot.Plot, error) {
	specs := panels(tr)
	plots := make([]*plot.Plot, 0, len(specs))

	for _, s := range specs {
		pts := make(plotter.XYs, 0, len(s.data))
		for i, v := range s.data {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			pts = append(pts, plotter.XY{X: tr.Times[i], Y: v})
		}
		if len(pts) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoFiniteData, s.label)
		}

		p := plot.New()
		p.X.Label.Text = "t [s]"
		p.Y.Label.Text = s.ylabel
		p.Add(plotter.NewGrid())

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = s.color
		p.Add(line)

		p.Legend.Add(s.label, line)
		p.Legend.Top = true

		plots = append(plots, p)
	}

	return plots, nil
}

// WriteFigure renders the three stacked subplots to w as PNG or SVG.
func WriteFigure(w io.Writer, tr *motor.Trace, format string, opts FigureOptions) error {
	plots, err := NewPlots(tr)
	if err != nil {
		return err
	}

	if opts.Width <= 0 || opts.Height <= 0 {
		def := DefaultFigureOptions()
		opts.Width, opts.Height = def.Width, def.Height
	}
	if opts.DPI <= 0 {
		opts.DPI = DefaultFigureOptions().DPI
	}

	switch strings.ToLower(format) {
	case FormatPNG:
		c := vgimg.NewWith(vgimg.UseWH(opts.Width, opts.Height), vgimg.UseDPI(opts.DPI))
		drawStacked(plots, draw.New(c))
		if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
			return fmt.Errorf("export: write png: %w", err)
		}
	case FormatSVG:
		c := vgsvg.New(opts.Width, opts.Height)
		drawStacked(plots, draw.New(c))
		if _, err := c.WriteTo(w); err != nil {
			return fmt.Errorf("export: write svg: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	return nil
}

func drawStacked(plots []*plot.Plot, dc draw.Canvas) {
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}

	grid := make([][]*plot.Plot, len(plots))
	for i, p := range plots {
		grid[i] = []*plot.Plot{p}
	}

	canvases := plot.Align(grid, tiles, dc)
	for i, p := range plots {
		p.Draw(canvases[i][0])
	}
}

// FormatFromPath returns the figure format implied by the file extension.
func FormatFromPath(path string) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case FormatPNG, FormatSVG:
		return ext, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}

// SaveFigure writes the figure to path, choosing the format by extension.
func SaveFigure(path string, tr *motor.Trace, opts FigureOptions) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export: create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteFigure(f, tr, format, opts); err != nil {
		return err
	}
	return f.Close()
}
