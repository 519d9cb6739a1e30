package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/dcmotor/internal/motor"
	"github.com/san-kum/dcmotor/internal/waveform"
)

const (
	DefaultR         = 1.0
	DefaultL         = 0.5
	DefaultKT        = 0.1
	DefaultKe        = 0.1
	DefaultJ         = 0.01
	DefaultB         = 0.02
	DefaultDt        = 0.001
	DefaultSignal    = "step"
	DefaultAmplitude = 2.0
	DefaultFrequency = 1.0
	DefaultDuration  = 5.0
	DefaultTMax      = 7.0
)

type Config struct {
	Motor  MotorConfig  `yaml:"motor" json:"motor"`
	Signal SignalConfig `yaml:"signal" json:"signal"`
	Sim    SimConfig    `yaml:"sim" json:"sim"`
}

type MotorConfig struct {
	R  float64 `yaml:"r" json:"r"`
	L  float64 `yaml:"l" json:"l"`
	KT float64 `yaml:"k_t" json:"k_t"`
	Ke float64 `yaml:"k_e" json:"k_e"`
	J  float64 `yaml:"j" json:"j"`
	B  float64 `yaml:"b" json:"b"`
}

type SignalConfig struct {
	Type      string  `yaml:"type" json:"type"`
	Amplitude float64 `yaml:"amplitude" json:"amplitude"`
	Frequency float64 `yaml:"frequency" json:"frequency"`
	Duration  float64 `yaml:"duration" json:"duration"`
}

type SimConfig struct {
	TMax float64 `yaml:"t_max" json:"t_max"`
	Dt   float64 `yaml:"dt" json:"dt"`
}

func DefaultConfig() *Config {
	return &Config{
		Motor: MotorConfig{
			R:  DefaultR,
			L:  DefaultL,
			KT: DefaultKT,
			Ke: DefaultKe,
			J:  DefaultJ,
			B:  DefaultB,
		},
		Signal: SignalConfig{
			Type:      DefaultSignal,
			Amplitude: DefaultAmplitude,
			Frequency: DefaultFrequency,
			Duration:  DefaultDuration,
		},
		Sim: SimConfig{
			TMax: DefaultTMax,
			Dt:   DefaultDt,
		},
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads path on top of a copy of base, so keys missing from the
// file keep the base values.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// Parameters converts the configuration into the simulation input bundle.
func (c *Config) Parameters() (motor.Parameters, error) {
	kind, err := waveform.ParseKind(c.Signal.Type)
	if err != nil {
		return motor.Parameters{}, err
	}
	return motor.Parameters{
		Motor: motor.Constants{
			R:  c.Motor.R,
			L:  c.Motor.L,
			KT: c.Motor.KT,
			Ke: c.Motor.Ke,
			J:  c.Motor.J,
			B:  c.Motor.B,
		},
		Input: waveform.Waveform{
			Kind:      kind,
			Amplitude: c.Signal.Amplitude,
			Frequency: c.Signal.Frequency,
			Duration:  c.Signal.Duration,
		},
		TMax: c.Sim.TMax,
		Dt:   c.Sim.Dt,
	}, nil
}

// Apply merges a nested override map, keyed like the YAML document, into c.
// Keys that do not name a field are rejected.
func (c *Config) Apply(overrides map[string]any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "yaml",
		ErrorUnused: true,
		Result:      c,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(overrides); err != nil {
		return fmt.Errorf("config: apply overrides: %w", err)
	}
	return nil
}

// Set assigns a single value addressed by a dotted path such as "motor.r".
func (c *Config) Set(path string, value any) error {
	parts := strings.Split(path, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("config: parameter path must be section.field, got %q", path)
	}
	return c.Apply(map[string]any{
		parts[0]: map[string]any{parts[1]: value},
	})
}
