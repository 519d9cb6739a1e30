// Package viz renders simulation traces in the terminal.
//
// [PlotTrace] draws the three series of a [motor.Trace] as stacked
// asciigraph charts in a fixed order: input voltage, armature current and
// angular velocity. The lipgloss styles in this package are shared by the
// command line tool and the interactive form.
package viz
