// Package dynamo provides the simulation primitives used to integrate the
// motor model.
//
// The package defines the interfaces and types for fixed-step numerical
// simulation of ordinary differential equations:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: single-step numerical integrator
//   - [Controller]: supplies the input u at each step
//   - [Simulator]: orchestrates a run and records a [Result]
//
// # Sample grid
//
// A run of duration T with step dt records N = ceil(T/dt) samples on the
// grid t_n = n*dt. Sample 0 is the initial state with a zero input; the
// controller is first consulted at t_1 = dt.
//
// # Example
//
//	dyn := motor.New(constants)
//	s := dynamo.New(dyn, integrators.NewEuler(), dynamo.OpenLoop(w.Voltage))
//	result, err := s.Run(ctx, dynamo.State{0, 0}, dynamo.Config{Dt: 1e-3, Duration: 5})
//
// # Thread Safety
//
// A Simulator holds no per-run state besides its metrics, so distinct
// Simulator values may run concurrently. Metrics attached to one Simulator
// must not be shared with another.
package dynamo
