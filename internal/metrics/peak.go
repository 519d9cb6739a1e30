package metrics

import (
	"math"

	"github.com/san-kum/dcmotor/internal/dynamo"
)

// Peak tracks the largest magnitude of one state component.
type Peak struct {
	name  string
	index int
	peak  float64
}

func NewPeak(name string, index int) *Peak {
	return &Peak{name: name, index: index}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if p.index >= len(x) {
		return
	}
	// NaN fails every comparison, so test for it explicitly to let a
	// diverged run surface in the summary.
	if v := math.Abs(x[p.index]); v > p.peak || math.IsNaN(v) {
		p.peak = v
	}
}

func (p *Peak) Value() float64 { return p.peak }
func (p *Peak) Reset()         { p.peak = 0 }

// Final records the last observed value of one state component.
type Final struct {
	name  string
	index int
	last  float64
}

func NewFinal(name string, index int) *Final {
	return &Final{name: name, index: index}
}

func (f *Final) Name() string { return f.name }

func (f *Final) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if f.index < len(x) {
		f.last = x[f.index]
	}
}

func (f *Final) Value() float64 { return f.last }
func (f *Final) Reset()         { f.last = 0 }
