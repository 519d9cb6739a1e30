package config

import "sort"

var Presets = map[string]*Config{
	"default": DefaultConfig(),
	"reference": {
		Motor:  MotorConfig{R: 1, L: 0.5, KT: 0.1, Ke: 0.1, J: 0.01, B: 0.02},
		Signal: SignalConfig{Type: "step", Amplitude: 10, Frequency: 1, Duration: 5},
		Sim:    SimConfig{TMax: 5, Dt: 0.001},
	},
	"triangle": {
		Motor:  MotorConfig{R: 1, L: 0.5, KT: 0.1, Ke: 0.1, J: 0.01, B: 0.02},
		Signal: SignalConfig{Type: "triangle", Amplitude: 10, Frequency: 1, Duration: 5},
		Sim:    SimConfig{TMax: 5, Dt: 0.001},
	},
	"sine": {
		Motor:  MotorConfig{R: 1, L: 0.5, KT: 0.1, Ke: 0.1, J: 0.01, B: 0.02},
		Signal: SignalConfig{Type: "sin", Amplitude: 10, Frequency: 2, Duration: 5},
		Sim:    SimConfig{TMax: 5, Dt: 0.001},
	},
	"pulse": {
		Motor:  MotorConfig{R: 1, L: 0.5, KT: 0.1, Ke: 0.1, J: 0.01, B: 0.02},
		Signal: SignalConfig{Type: "step", Amplitude: 12, Frequency: 1, Duration: 1},
		Sim:    SimConfig{TMax: 6, Dt: 0.001},
	},
	"coarse": {
		Motor:  MotorConfig{R: 1, L: 0.5, KT: 0.1, Ke: 0.1, J: 0.01, B: 0.02},
		Signal: SignalConfig{Type: "step", Amplitude: 10, Frequency: 1, Duration: 300},
		Sim:    SimConfig{TMax: 300, Dt: 1.5},
	},
}

// GetPreset returns a copy of the named preset, or nil if unknown.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
