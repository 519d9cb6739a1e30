// Package waveform generates the input voltage applied to the motor terminals.
package waveform

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrZeroFrequency indicates a periodic waveform configured without a
	// usable frequency.
	ErrZeroFrequency = errors.New("waveform: frequency must be positive")

	// ErrUnknownKind indicates a waveform name that does not match any kind.
	ErrUnknownKind = errors.New("waveform: unknown kind")
)

// Kind selects the waveform shape. None, and any value outside the declared
// set, evaluates to zero volts.
type Kind int

const (
	None Kind = iota
	Step
	Triangle
	Sinusoid
)

var kindNames = map[Kind]string{
	None:     "none",
	Step:     "step",
	Triangle: "triangle",
	Sinusoid: "sin",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a waveform name to its Kind. Matching is case-insensitive;
// "sine" and "sinusoid" are accepted as aliases of "sin".
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none":
		return None, nil
	case "step":
		return Step, nil
	case "triangle":
		return Triangle, nil
	case "sin", "sine", "sinusoid":
		return Sinusoid, nil
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Kinds lists the selectable waveform names in display order.
func Kinds() []string {
	return []string{Step.String(), Triangle.String(), Sinusoid.String()}
}

// Waveform describes an input voltage signal. Frequency is used by Triangle
// and Sinusoid, Duration by Step.
type Waveform struct {
	Kind      Kind
	Amplitude float64
	Frequency float64
	Duration  float64
}

// Voltage returns the instantaneous voltage at time t (seconds, t >= 0).
// A Triangle without a positive frequency yields NaN; call Validate to
// reject such a configuration up front.
func (w Waveform) Voltage(t float64) float64 {
	switch w.Kind {
	case Step:
		if t < w.Duration {
			return w.Amplitude
		}
		return 0
	case Triangle:
		if !(w.Frequency > 0) {
			return math.NaN()
		}
		frac := math.Mod(t, 1/w.Frequency)
		return w.Amplitude * (1 - 2*math.Abs(frac*w.Frequency-0.5))
	case Sinusoid:
		return w.Amplitude * math.Sin(2*math.Pi*w.Frequency*t)
	default:
		return 0
	}
}

// Period returns the repetition period, or 0 for aperiodic kinds.
func (w Waveform) Period() float64 {
	switch w.Kind {
	case Triangle, Sinusoid:
		if w.Frequency > 0 {
			return 1 / w.Frequency
		}
	}
	return 0
}

// Validate reports non-finite settings and a triangle without a positive
// frequency, which has no period.
func (w Waveform) Validate() error {
	for name, v := range map[string]float64{
		"amplitude": w.Amplitude,
		"frequency": w.Frequency,
		"duration":  w.Duration,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("waveform: %s is not finite: %g", name, v)
		}
	}
	if w.Kind == Triangle && w.Frequency <= 0 {
		return fmt.Errorf("%w: triangle got %g", ErrZeroFrequency, w.Frequency)
	}
	return nil
}

func (w Waveform) String() string {
	switch w.Kind {
	case Step:
		return fmt.Sprintf("step %.3gV for %.3gs", w.Amplitude, w.Duration)
	case Triangle, Sinusoid:
		return fmt.Sprintf("%s %.3gV @ %.3gHz", w.Kind, w.Amplitude, w.Frequency)
	default:
		return w.Kind.String()
	}
}
