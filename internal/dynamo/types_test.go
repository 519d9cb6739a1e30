package dynamo

import (
	"errors"
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"zeros", State{0.0, 0.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Clone(t *testing.T) {
	src := State{1, 2}
	c := src.Clone()
	c[0] = 99
	if src[0] != 1 {
		t.Error("Clone did not create independent copy")
	}
}

func TestConfig_Samples(t *testing.T) {
	tests := []struct {
		dt, duration float64
		expected     int
	}{
		{0.001, 5, 5000},
		{0.1, 1, 10},
		{0.1, 0.3, 3},
		{0.3, 1, 4},
		{2, 1, 1},
	}

	for _, tt := range tests {
		cfg := Config{Dt: tt.dt, Duration: tt.duration}
		if got := cfg.Samples(); got != tt.expected {
			t.Errorf("Samples(dt=%v, T=%v) = %d, want %d", tt.dt, tt.duration, got, tt.expected)
		}
	}
}

func TestConfig_ValidateSampleLimit(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"at limit", Config{Dt: 1, Duration: MaxSamples}, false},
		{"above limit", Config{Dt: 1, Duration: MaxSamples + 1}, true},
		{"tiny dt", Config{Dt: 1e-300, Duration: 1}, true},
		{"ratio overflows", Config{Dt: 1e-300, Duration: 1e300}, true},
	}

	for _, tt := range tests {
		err := tt.cfg.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrParameterBounds) {
			t.Errorf("%s: expected ErrParameterBounds, got %v", tt.name, err)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig invalid: %v", err)
	}
}

func TestSimulationError(t *testing.T) {
	err := &SimulationError{Time: 1.5, Step: 150, Wrapped: ErrContextCanceled}
	expected := "step 150 (t=1.5000): dynamo: simulation canceled by context"
	if err.Error() != expected {
		t.Errorf("SimulationError.Error() = %q, want %q", err.Error(), expected)
	}
}
