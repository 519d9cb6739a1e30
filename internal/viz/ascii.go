package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/dcmotor/internal/motor"
)

const (
	CaptionVoltage = "input voltage u(t) [V]"
	CaptionCurrent = "current i(t) [A]"
	CaptionOmega   = "angular velocity ω(t) [rad/s]"
)

// PlotOptions controls the size of each chart.
type PlotOptions struct {
	Width  int
	Height int
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Width: 80, Height: 10}
}

// PlotTrace renders voltage, current and angular velocity in that order.
func PlotTrace(tr *motor.Trace, opts PlotOptions) string {
	if opts.Width <= 0 {
		opts.Width = DefaultPlotOptions().Width
	}
	if opts.Height <= 0 {
		opts.Height = DefaultPlotOptions().Height
	}

	series := []struct {
		data    []float64
		caption string
	}{
		{tr.Voltage, CaptionVoltage},
		{tr.Current, CaptionCurrent},
		{tr.Omega, CaptionOmega},
	}

	var b strings.Builder
	for i, s := range series {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(PlotSeries(s.data, s.caption, opts))
	}
	return b.String()
}

// PlotSeries renders a single series. Non-finite samples are left as gaps.
func PlotSeries(data []float64, caption string, opts PlotOptions) string {
	points := Downsample(data, opts.Width)
	finite := 0
	for i, v := range points {
		if math.IsInf(v, 0) {
			points[i] = math.NaN()
			continue
		}
		if !math.IsNaN(v) {
			finite++
		}
	}

	if finite == 0 {
		return fmt.Sprintf("%s\n%s", caption, Subtle.Render("(no finite samples)"))
	}

	return asciigraph.Plot(points,
		asciigraph.Height(opts.Height),
		asciigraph.Width(len(points)),
		asciigraph.Precision(3),
		asciigraph.Caption(caption),
	)
}

// Downsample picks at most width evenly spaced samples, always keeping the
// first and last. The returned slice is a copy.
func Downsample(data []float64, width int) []float64 {
	if width < 2 || len(data) <= width {
		out := make([]float64, len(data))
		copy(out, data)
		return out
	}

	out := make([]float64, width)
	last := len(data) - 1
	for i := range out {
		out[i] = data[i*last/(width-1)]
	}
	return out
}
