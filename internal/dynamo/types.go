package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// IsValid reports whether every component is finite.
func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

type Controller interface {
	Compute(x State, t float64) Control
}

// OpenLoop adapts a scalar signal of time into a Controller that ignores
// the state.
type OpenLoop func(t float64) float64

func (f OpenLoop) Compute(_ State, t float64) Control {
	return Control{f(t)}
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

// MaxSamples is the largest grid a single run may allocate.
const MaxSamples = 10_000_000

type Config struct {
	Dt       float64
	Duration float64
}

func DefaultConfig() Config {
	return Config{
		Dt:       0.001,
		Duration: 5.0,
	}
}

// Samples returns the number of grid points in [0, Duration) spaced by Dt.
func (c Config) Samples() int {
	return int(math.Ceil(c.Duration / c.Dt))
}

func (c Config) Validate() error {
	if math.IsNaN(c.Dt) || math.IsInf(c.Dt, 0) || c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrParameterBounds, c.Dt)
	}
	if math.IsNaN(c.Duration) || math.IsInf(c.Duration, 0) || c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrParameterBounds, c.Duration)
	}
	if c.Duration/c.Dt > MaxSamples {
		return fmt.Errorf("%w: duration/dt = %g exceeds %d samples", ErrParameterBounds, c.Duration/c.Dt, MaxSamples)
	}
	return nil
}

type Result struct {
	Times      []float64
	States     []State
	Controls   []Control
	Metrics    map[string]float64
	StepsTaken int
}
