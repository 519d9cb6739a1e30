package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dcmotor/internal/motor"
)

// OperatingPoint is the equilibrium of the motor under a constant voltage.
type OperatingPoint struct {
	Voltage float64
	Current float64
	Omega   float64
	Torque  float64
}

// SteadyState solves the state equations with both derivatives set to zero:
//
//	R*i + Ke*ω = V
//	-KT*i + B*ω = 0
func SteadyState(c motor.Constants, voltage float64) (OperatingPoint, error) {
	a := mat.NewDense(2, 2, []float64{
		c.R, c.Ke,
		-c.KT, c.B,
	})
	b := mat.NewVecDense(2, []float64{voltage, 0})

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return OperatingPoint{}, fmt.Errorf("analysis: no steady state for %+v: %w", c, err)
	}

	return OperatingPoint{
		Voltage: voltage,
		Current: x.AtVec(0),
		Omega:   x.AtVec(1),
		Torque:  c.KT * x.AtVec(0),
	}, nil
}

// TimeConstants returns the electrical (L/R) and mechanical (J/B) time
// constants in seconds.
func TimeConstants(c motor.Constants) (electrical, mechanical float64) {
	return c.ElectricalTimeConstant(), c.MechanicalTimeConstant()
}
