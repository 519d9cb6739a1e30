package automation

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/dcmotor/internal/config"
)

// MonteCarloConfig perturbs every motor constant by a uniform relative
// tolerance, e.g. 0.05 for ±5%, to study manufacturing spread.
type MonteCarloConfig struct {
	Base      *config.Config
	Tolerance float64
	NumTrials int
	Seed      int64
	Workers   int
}

type MonteCarloResult struct {
	TrialID int
	Motor   config.MotorConfig
	Metrics map[string]float64
}

// MonteCarloSummary is the mean and standard deviation of one metric over
// all trials.
type MonteCarloSummary struct {
	Metric string
	Mean   float64
	StdDev float64
}

func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, progress ProgressFunc) ([]MonteCarloResult, error) {
	if cfg.NumTrials <= 0 {
		return nil, fmt.Errorf("automation: monte carlo needs at least one trial")
	}
	if cfg.Tolerance < 0 || cfg.Tolerance >= 1 {
		return nil, fmt.Errorf("automation: tolerance %g outside [0, 1)", cfg.Tolerance)
	}

	base := cfg.Base
	if base == nil {
		base = config.DefaultConfig()
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	perturb := func(v float64) float64 {
		return v * (1 + (rng.Float64()-0.5)*2*cfg.Tolerance)
	}

	configs := make([]*config.Config, cfg.NumTrials)
	for i := range configs {
		c := base.Clone()
		c.Motor = config.MotorConfig{
			R:  perturb(base.Motor.R),
			L:  perturb(base.Motor.L),
			KT: perturb(base.Motor.KT),
			Ke: perturb(base.Motor.Ke),
			J:  perturb(base.Motor.J),
			B:  perturb(base.Motor.B),
		}
		configs[i] = c
	}

	results := make([]MonteCarloResult, len(configs))
	err := runPool(ctx, configs, cfg.Workers, progress, func(i int, res *StepResult) {
		results[i] = MonteCarloResult{
			TrialID: i,
			Motor:   configs[i].Motor,
			Metrics: res.Metrics,
		}
	})
	if err != nil {
		return nil, fmt.Errorf("monte carlo: %w", err)
	}

	return results, nil
}

// Summarize computes the spread of the named metrics across trials.
func Summarize(results []MonteCarloResult, names ...string) []MonteCarloSummary {
	summaries := make([]MonteCarloSummary, 0, len(names))
	values := make([]float64, len(results))

	for _, name := range names {
		for i, r := range results {
			values[i] = r.Metrics[name]
		}
		mean, std := stat.MeanStdDev(values, nil)
		summaries = append(summaries, MonteCarloSummary{Metric: name, Mean: mean, StdDev: std})
	}

	return summaries
}
