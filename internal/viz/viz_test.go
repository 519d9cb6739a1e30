package viz

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dcmotor/internal/motor"
)

func rampTrace(n int) *motor.Trace {
	tr := &motor.Trace{
		Times:   make([]float64, n),
		Voltage: make([]float64, n),
		Current: make([]float64, n),
		Omega:   make([]float64, n),
	}
	for i := 0; i < n; i++ {
		tr.Times[i] = float64(i) * 0.01
		tr.Voltage[i] = 10
		tr.Current[i] = float64(i) / float64(n)
		tr.Omega[i] = float64(i*i) / float64(n)
	}
	return tr
}

func TestPlotTraceOrder(t *testing.T) {
	out := PlotTrace(rampTrace(500), PlotOptions{Width: 40, Height: 5})

	v := strings.Index(out, CaptionVoltage)
	i := strings.Index(out, CaptionCurrent)
	w := strings.Index(out, CaptionOmega)

	require.True(t, v >= 0 && i >= 0 && w >= 0, "missing caption in:\n%s", out)
	assert.Less(t, v, i)
	assert.Less(t, i, w)
}

func TestPlotTraceDefaults(t *testing.T) {
	out := PlotTrace(rampTrace(10), PlotOptions{})
	assert.Contains(t, out, CaptionCurrent)
}

func TestPlotSeriesNonFinite(t *testing.T) {
	out := PlotSeries([]float64{math.NaN(), math.Inf(1)}, "diverged", DefaultPlotOptions())
	assert.Contains(t, out, "diverged")
	assert.Contains(t, out, "no finite samples")

	out = PlotSeries([]float64{0, 1, math.Inf(1), 2}, "partial", DefaultPlotOptions())
	assert.Contains(t, out, "partial")
}

func TestDownsample(t *testing.T) {
	data := make([]float64, 101)
	for i := range data {
		data[i] = float64(i)
	}

	out := Downsample(data, 11)
	require.Len(t, out, 11)
	assert.Equal(t, 0.0, out[0])
	assert.Equal(t, 50.0, out[5])
	assert.Equal(t, 100.0, out[10])

	in := []float64{1, 2}
	short := Downsample(in, 10)
	assert.Equal(t, []float64{1, 2}, short)

	short[0] = 9
	assert.Equal(t, 1.0, in[0], "result must be a copy")
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "───", Sparkline(nil, 3))

	out := Sparkline([]float64{0, 1, 2, math.NaN()}, 4)
	assert.Contains(t, out, "▁")
	assert.Contains(t, out, "█")
}

func TestMetricsTable(t *testing.T) {
	out := MetricsTable(map[string]float64{"peak_speed": 35.2, "final_current": 6.667})

	fc := strings.Index(out, "final_current")
	ps := strings.Index(out, "peak_speed")
	require.True(t, fc >= 0 && ps >= 0)
	assert.Less(t, fc, ps)
	assert.Contains(t, out, "6.667")
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, 10, len([]rune(stripANSI(ProgressBar(0.5, 10)))))
	assert.Equal(t, 10, len([]rune(stripANSI(ProgressBar(2, 10)))))
}

func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'):
			inEscape = false
		case !inEscape:
			b.WriteRune(r)
		}
	}
	return b.String()
}
