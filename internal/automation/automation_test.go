package automation

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dcmotor/internal/config"
	"github.com/san-kum/dcmotor/internal/motor"
)

const scenarioYAML = `
name: quick
description: two short runs
steps:
  - name: base
    preset: reference
    params:
      sim:
        t_max: 0.5
        dt: 0.01
    save_as: base
  - preset: sine
    params:
      signal:
        frequency: 3
      sim:
        t_max: 0.2
        dt: 0.01
`

type recordingSaver struct {
	mu     sync.Mutex
	labels []string
}

func (s *recordingSaver) Save(label string, cfg *config.Config, tr *motor.Trace, metrics map[string]float64, elapsed time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels = append(s.labels, label)
	return label + "_id", nil
}

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	require.NoError(t, err)
	assert.Equal(t, "quick", sc.Name)
	require.Len(t, sc.Steps, 2)

	saver := &recordingSaver{}
	var calls []int
	results, err := RunScenario(context.Background(), sc, saver, func(done, total int) {
		assert.Equal(t, 2, total)
		calls = append(calls, done)
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "base", results[0].Name)
	assert.Equal(t, "step2", results[1].Name)
	assert.Equal(t, 50, results[0].Trace.Len())
	assert.Equal(t, 20, results[1].Trace.Len())
	assert.Equal(t, 3.0, results[1].Config.Signal.Frequency)
	assert.Equal(t, "base_id", results[0].RunID)
	assert.Empty(t, results[1].RunID)
	assert.Equal(t, []string{"base"}, saver.labels)
	assert.Equal(t, []int{1, 2}, calls)
	assert.Contains(t, results[0].Metrics, "final_current")
}

func TestRunScenarioBadStep(t *testing.T) {
	tests := []struct {
		name string
		step ScenarioStep
	}{
		{"unknown preset", ScenarioStep{Preset: "nope"}},
		{"unknown param", ScenarioStep{Params: map[string]any{"motor": map[string]any{"x": 1}}}},
		{"invalid dt", ScenarioStep{Params: map[string]any{"sim": map[string]any{"dt": 0}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := &Scenario{Steps: []ScenarioStep{tt.step}}
			results, err := RunScenario(context.Background(), sc, nil, nil)
			assert.Error(t, err)
			assert.Empty(t, results)
		})
	}
}

func TestLoadScenarioEmpty(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, "name: empty\n"))
	assert.Error(t, err)
}

func TestSweepValues(t *testing.T) {
	s := &ParameterSweep{Min: 1, Max: 2, Points: 5}
	assert.InDeltaSlice(t, []float64{1, 1.25, 1.5, 1.75, 2}, s.Values(), 1e-12)

	single := &ParameterSweep{Min: 3, Max: 9, Points: 1}
	assert.Equal(t, []float64{3}, single.Values())
}

func TestRunSweepOrdered(t *testing.T) {
	base := config.GetPreset("reference")
	base.Sim.TMax = 0.5
	base.Sim.Dt = 0.01

	sweep := &ParameterSweep{
		Base:    base,
		Param:   "signal.amplitude",
		Min:     2,
		Max:     10,
		Points:  5,
		Workers: 3,
	}

	var mu sync.Mutex
	last := 0
	results, err := RunSweep(context.Background(), sweep, func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 5, total)
		last = done
	})
	require.NoError(t, err)
	require.Len(t, results, 5)
	assert.Equal(t, 5, last)

	for i := 1; i < len(results); i++ {
		assert.Greater(t, results[i].Value, results[i-1].Value)
		// current scales linearly with the applied voltage
		assert.Greater(t, results[i].Metrics["final_current"], results[i-1].Metrics["final_current"])
	}

	assert.Equal(t, 10.0, base.Signal.Amplitude, "base config must not be modified")
}

func TestRunSweepErrors(t *testing.T) {
	_, err := RunSweep(context.Background(), &ParameterSweep{Param: "motor.nope", Points: 2, Max: 1}, nil)
	assert.Error(t, err)

	_, err = RunSweep(context.Background(), &ParameterSweep{Param: "motor.l", Min: -1, Max: 0, Points: 2}, nil)
	assert.Error(t, err)
}

func TestRunMonteCarlo(t *testing.T) {
	base := config.GetPreset("reference")
	base.Sim.TMax = 0.2
	base.Sim.Dt = 0.01

	cfg := &MonteCarloConfig{Base: base, Tolerance: 0.05, NumTrials: 8, Seed: 7, Workers: 2}

	results, err := RunMonteCarlo(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Len(t, results, 8)

	for i, r := range results {
		assert.Equal(t, i, r.TrialID)
		assert.InEpsilon(t, base.Motor.R, r.Motor.R, 0.051)
		assert.InEpsilon(t, base.Motor.J, r.Motor.J, 0.051)
	}

	again, err := RunMonteCarlo(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, results, again, "same seed must reproduce the trials")

	summary := Summarize(results, "final_current")
	require.Len(t, summary, 1)
	assert.Greater(t, summary[0].Mean, 0.0)
	assert.Greater(t, summary[0].StdDev, 0.0)
}

func TestRunMonteCarloInvalid(t *testing.T) {
	_, err := RunMonteCarlo(context.Background(), &MonteCarloConfig{NumTrials: 0}, nil)
	assert.Error(t, err)

	_, err = RunMonteCarlo(context.Background(), &MonteCarloConfig{NumTrials: 1, Tolerance: 1}, nil)
	assert.Error(t, err)
}
