// Package metrics summarizes a motor run while it is being integrated.
package metrics

import "github.com/san-kum/dcmotor/internal/dynamo"

// Default returns a fresh set of the run summary metrics. The state layout
// is the motor's [current, angular velocity].
func Default() []dynamo.Metric {
	return []dynamo.Metric{
		NewPeak("peak_current", 0),
		NewPeak("peak_speed", 1),
		NewFinal("final_current", 0),
		NewFinal("final_speed", 1),
		NewInputEnergy(),
		NewControlEffort(),
	}
}
