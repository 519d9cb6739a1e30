// Package automation runs scripted and batched motor simulations.
package automation

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dcmotor/internal/config"
	"github.com/san-kum/dcmotor/internal/metrics"
	"github.com/san-kum/dcmotor/internal/motor"
)

// Scenario defines a scripted simulation sequence.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset (or the defaults) and applies Params,
// a nested map keyed like the config file.
type ScenarioStep struct {
	Name   string         `yaml:"name"`
	Preset string         `yaml:"preset"`
	Params map[string]any `yaml:"params"`
	SaveAs string         `yaml:"save_as"`
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Name    string
	Config  *config.Config
	Trace   *motor.Trace
	Metrics map[string]float64
	Elapsed time.Duration
	RunID   string
}

// Saver persists a finished run. *storage.Store satisfies it.
type Saver interface {
	Save(label string, cfg *config.Config, tr *motor.Trace, metrics map[string]float64, elapsed time.Duration) (string, error)
}

// ProgressFunc is called after each unit of work completes.
type ProgressFunc func(done, total int)

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("automation: scenario %q has no steps", scenario.Name)
	}

	return &scenario, nil
}

// Config resolves the step into a full configuration.
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("automation: unknown preset %q", s.Preset)
		}
	}

	if len(s.Params) > 0 {
		if err := cfg.Apply(s.Params); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// RunScenario executes all steps in order. Steps with SaveAs set are
// persisted through saver when it is non-nil. Results of the steps that
// completed are returned along with any error.
func RunScenario(ctx context.Context, scenario *Scenario, saver Saver, progress ProgressFunc) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step%d", i+1)
		}

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		res, err := runConfig(ctx, cfg)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}
		res.Name = name

		if saver != nil && step.SaveAs != "" {
			runID, err := saver.Save(step.SaveAs, cfg, res.Trace, res.Metrics, res.Elapsed)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
			res.RunID = runID
		}

		results = append(results, *res)

		if progress != nil {
			progress(i+1, len(scenario.Steps))
		}
	}

	return results, nil
}

func runConfig(ctx context.Context, cfg *config.Config) (*StepResult, error) {
	params, err := cfg.Parameters()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	tr, m, err := motor.Simulate(ctx, params, metrics.Default()...)
	if err != nil {
		return nil, err
	}

	return &StepResult{
		Config:  cfg,
		Trace:   tr,
		Metrics: m,
		Elapsed: time.Since(start),
	}, nil
}
