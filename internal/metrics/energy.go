package metrics

import (
	"github.com/san-kum/dcmotor/internal/dynamo"
)

// InputEnergy integrates the electrical power V*i delivered at the terminals
// using the sample spacing observed between calls.
type InputEnergy struct {
	name    string
	energy  float64
	prevT   float64
	samples int
}

func NewInputEnergy() *InputEnergy {
	return &InputEnergy{name: "input_energy"}
}

func (e *InputEnergy) Name() string { return e.name }

func (e *InputEnergy) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) == 0 || len(u) == 0 {
		return
	}
	if e.samples > 0 {
		e.energy += u[0] * x[0] * (t - e.prevT)
	}
	e.prevT = t
	e.samples++
}

func (e *InputEnergy) Value() float64 {
	return e.energy
}

func (e *InputEnergy) Reset() {
	e.energy = 0
	e.prevT = 0
	e.samples = 0
}
