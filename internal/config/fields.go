package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidField indicates a user-supplied field that is not a real number.
var ErrInvalidField = errors.New("config: invalid field")

// FieldError reports which text field failed to parse.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid field %s: %q", e.Field, e.Value)
}

func (e *FieldError) Unwrap() error { return e.Err }

func (e *FieldError) Is(target error) bool { return target == ErrInvalidField }

// Field names in the order the interactive form presents them: the four
// signal sliders followed by the motor entries.
const (
	FieldAmplitude = "Amplitude"
	FieldFrequency = "Frequency"
	FieldDuration  = "Duration"
	FieldTMax      = "t_max"
	FieldR         = "R"
	FieldL         = "L"
	FieldKT        = "K_T"
	FieldKe        = "K_e"
	FieldJ         = "J"
	FieldB         = "B"
	FieldDt        = "dt"
)

var SliderFields = []string{FieldAmplitude, FieldFrequency, FieldDuration, FieldTMax}

var EntryFields = []string{FieldR, FieldL, FieldKT, FieldKe, FieldJ, FieldB, FieldDt}

// Range describes a slider: its bounds, resolution and initial value.
type Range struct {
	Min     float64
	Max     float64
	Step    float64
	Default float64
}

var SliderRanges = map[string]Range{
	FieldAmplitude: {Min: 0.1, Max: 20, Step: 0.1, Default: DefaultAmplitude},
	FieldFrequency: {Min: 0.1, Max: 10, Step: 0.1, Default: DefaultFrequency},
	FieldDuration:  {Min: 0, Max: 20, Step: 0.1, Default: DefaultDuration},
	FieldTMax:      {Min: 1, Max: 30, Step: 0.1, Default: DefaultTMax},
}

// Clamp bounds v into the range and snaps it to the slider resolution.
func (r Range) Clamp(v float64) float64 {
	if r.Step > 0 {
		v = r.Min + math.Round((v-r.Min)/r.Step)*r.Step
		v = math.Round(v*1e9) / 1e9
	}
	return math.Max(r.Min, math.Min(r.Max, v))
}

// Nudge moves v by n slider steps and clamps the result.
func (r Range) Nudge(v float64, n int) float64 {
	return r.Clamp(v + float64(n)*r.Step)
}

func (c *Config) fieldTargets() map[string]*float64 {
	return map[string]*float64{
		FieldAmplitude: &c.Signal.Amplitude,
		FieldFrequency: &c.Signal.Frequency,
		FieldDuration:  &c.Signal.Duration,
		FieldTMax:      &c.Sim.TMax,
		FieldR:         &c.Motor.R,
		FieldL:         &c.Motor.L,
		FieldKT:        &c.Motor.KT,
		FieldKe:        &c.Motor.Ke,
		FieldJ:         &c.Motor.J,
		FieldB:         &c.Motor.B,
		FieldDt:        &c.Sim.Dt,
	}
}

// Fields renders every numeric field as text.
func (c *Config) Fields() map[string]string {
	out := make(map[string]string)
	for name, ptr := range c.fieldTargets() {
		out[name] = strconv.FormatFloat(*ptr, 'g', -1, 64)
	}
	return out
}

// ParseFields builds a configuration from text fields. Every field is
// required; the first one that is missing or not a real number aborts the
// parse, nothing falls back to a default.
func ParseFields(signal string, fields map[string]string) (*Config, error) {
	cfg := &Config{Signal: SignalConfig{Type: signal}}
	targets := cfg.fieldTargets()

	for _, name := range append(append([]string{}, SliderFields...), EntryFields...) {
		raw, ok := fields[name]
		if !ok {
			return nil, &FieldError{Field: name, Err: errors.New("missing")}
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, &FieldError{Field: name, Value: raw, Err: err}
		}
		*targets[name] = v
	}

	return cfg, nil
}
