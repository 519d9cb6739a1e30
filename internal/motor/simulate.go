package motor

import (
	"context"

	"github.com/san-kum/dcmotor/internal/dynamo"
	"github.com/san-kum/dcmotor/internal/integrators"
	"github.com/san-kum/dcmotor/internal/waveform"
)

// Parameters is the complete input of one simulation run.
type Parameters struct {
	Motor Constants
	Input waveform.Waveform
	TMax  float64 // simulated time span (s)
	Dt    float64 // fixed integration step (s)
}

func (p Parameters) config() dynamo.Config {
	return dynamo.Config{Dt: p.Dt, Duration: p.TMax}
}

// Validate rejects bundles the state equations cannot be evaluated for. It
// does not judge numerical stability: a step too coarse for the motor's time
// constants is accepted and simply produces a diverging trace.
func (p Parameters) Validate() error {
	if err := p.Motor.Validate(); err != nil {
		return err
	}
	if err := p.Input.Validate(); err != nil {
		return err
	}
	return p.config().Validate()
}

// Samples returns the trace length a run with these parameters produces.
func (p Parameters) Samples() int {
	return p.config().Samples()
}

// Trace holds the aligned output series of one run. Index n corresponds to
// time n*Dt.
type Trace struct {
	Times   []float64
	Voltage []float64
	Current []float64
	Omega   []float64
}

func (tr *Trace) Len() int { return len(tr.Times) }

// Final returns the current and angular velocity of the last sample.
func (tr *Trace) Final() (current, omega float64) {
	n := tr.Len()
	if n == 0 {
		return 0, 0
	}
	return tr.Current[n-1], tr.Omega[n-1]
}

// Simulate integrates the motor from rest with explicit Euler steps. Sample 0
// is the zero state with zero input; the waveform is first evaluated at t=Dt.
func Simulate(ctx context.Context, p Parameters, metrics ...dynamo.Metric) (*Trace, map[string]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}

	s := dynamo.New(New(p.Motor), integrators.NewEuler(), dynamo.OpenLoop(p.Input.Voltage))
	for _, m := range metrics {
		s.AddMetric(m)
	}

	result, err := s.Run(ctx, dynamo.State{0, 0}, p.config())
	if err != nil {
		return nil, nil, err
	}

	return traceFromResult(result), result.Metrics, nil
}

func traceFromResult(r *dynamo.Result) *Trace {
	n := len(r.Times)
	tr := &Trace{
		Times:   make([]float64, n),
		Voltage: make([]float64, n),
		Current: make([]float64, n),
		Omega:   make([]float64, n),
	}
	copy(tr.Times, r.Times)
	for k := 0; k < n; k++ {
		tr.Voltage[k] = r.Controls[k][0]
		tr.Current[k] = r.States[k][0]
		tr.Omega[k] = r.States[k][1]
	}
	return tr
}
