// Package motor models a brushed DC motor as a two-state ODE system and
// integrates its transient response to an input voltage waveform.
//
// The state vector is [i, ω] (armature current in A, shaft angular velocity
// in rad/s) and the single control input is the terminal voltage V:
//
//	di/dt = (V - R*i - Ke*ω) / L
//	dω/dt = (KT*i - B*ω) / J
package motor

import (
	"fmt"
	"math"

	"github.com/san-kum/dcmotor/internal/dynamo"
)

// Constants holds the electrical and mechanical motor constants.
type Constants struct {
	R  float64 // armature resistance (Ω)
	L  float64 // armature inductance (H)
	KT float64 // torque constant (N·m/A)
	Ke float64 // back-EMF constant (V·s/rad)
	J  float64 // rotor inertia (kg·m²)
	B  float64 // viscous damping (N·m·s/rad)
}

func DefaultConstants() Constants {
	return Constants{
		R:  1.0,
		L:  0.5,
		KT: 0.1,
		Ke: 0.1,
		J:  0.01,
		B:  0.02,
	}
}

// Validate checks the constants are finite and that L and J, which appear
// as divisors in the state equations, are positive.
func (c Constants) Validate() error {
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"R", c.R}, {"L", c.L}, {"K_T", c.KT}, {"K_e", c.Ke}, {"J", c.J}, {"B", c.B},
	} {
		if math.IsNaN(p.value) || math.IsInf(p.value, 0) {
			return fmt.Errorf("%w: %s is not finite: %g", dynamo.ErrParameterBounds, p.name, p.value)
		}
	}
	if c.L <= 0 {
		return fmt.Errorf("%w: L must be positive, got %g", dynamo.ErrParameterBounds, c.L)
	}
	if c.J <= 0 {
		return fmt.Errorf("%w: J must be positive, got %g", dynamo.ErrParameterBounds, c.J)
	}
	return nil
}

// ElectricalTimeConstant returns L/R.
func (c Constants) ElectricalTimeConstant() float64 { return c.L / c.R }

// MechanicalTimeConstant returns J/B.
func (c Constants) MechanicalTimeConstant() float64 { return c.J / c.B }

type Motor struct {
	Constants
}

func New(c Constants) *Motor {
	return &Motor{Constants: c}
}

func (m *Motor) StateDim() int   { return 2 }
func (m *Motor) ControlDim() int { return 1 }

func (m *Motor) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	i := x[0]
	omega := x[1]

	v := 0.0
	if len(u) > 0 {
		v = u[0]
	}

	di := (v - m.R*i - m.Ke*omega) / m.L
	domega := (m.KT*i - m.B*omega) / m.J

	return dynamo.State{di, domega}
}

// Torque returns the electromagnetic torque KT*i for state x.
func (m *Motor) Torque(x dynamo.State) float64 {
	return m.KT * x[0]
}

// BackEMF returns the generated voltage Ke*ω for state x.
func (m *Motor) BackEMF(x dynamo.State) float64 {
	return m.Ke * x[1]
}
