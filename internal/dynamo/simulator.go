package dynamo

import (
	"context"
	"fmt"
)

type Simulator struct {
	dyn        System
	integrator Integrator
	controller Controller
	metrics    []Metric
}

func New(dyn System, integrator Integrator, controller Controller) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		controller: controller,
		metrics:    make([]Metric, 0),
	}
}

func (s *Simulator) AddMetric(m Metric) { s.metrics = append(s.metrics, m) }

// Run integrates from x0 over the sample grid described by cfg. The state is
// carried from step to step without any clamping; a diverging system yields a
// diverging result rather than an error. Cancelling ctx is the only way a
// valid run ends early; it is checked before every step.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(x0) != s.dyn.StateDim() {
		return nil, fmt.Errorf("%w: initial state has %d components, system expects %d",
			ErrDimensionMismatch, len(x0), s.dyn.StateDim())
	}

	n := cfg.Samples()
	result := &Result{
		Times:    make([]float64, n),
		States:   make([]State, n),
		Controls: make([]Control, n),
		Metrics:  make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	u := make(Control, s.dyn.ControlDim())
	s.record(result, 0, x, u, 0)

	for k := 1; k < n; k++ {
		select {
		case <-ctx.Done():
			t := float64(k) * cfg.Dt
			return nil, &SimulationError{Step: k, Time: t, Wrapped: fmt.Errorf("%w: %v", ErrContextCanceled, ctx.Err())}
		default:
		}

		t := float64(k) * cfg.Dt
		u = s.controller.Compute(x, t)
		x = s.integrator.Step(s.dyn, x, u, t, cfg.Dt)
		result.StepsTaken++

		s.record(result, k, x, u, t)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) record(r *Result, k int, x State, u Control, t float64) {
	r.Times[k] = t
	r.States[k] = x.Clone()
	r.Controls[k] = u
	for _, m := range s.metrics {
		m.Observe(x, u, t)
	}
}
