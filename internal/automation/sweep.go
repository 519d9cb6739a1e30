package automation

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/dcmotor/internal/config"
)

// ParameterSweep varies one config field, addressed as "section.field",
// over Points evenly spaced values in [Min, Max].
type ParameterSweep struct {
	Base    *config.Config
	Param   string
	Min     float64
	Max     float64
	Points  int
	Workers int
}

// SweepResult holds the summary of one sweep point.
type SweepResult struct {
	Value   float64
	Metrics map[string]float64
}

// Values returns the parameter values in sweep order.
func (s *ParameterSweep) Values() []float64 {
	if s.Points <= 1 {
		return []float64{s.Min}
	}

	values := make([]float64, s.Points)
	step := (s.Max - s.Min) / float64(s.Points-1)
	for i := range values {
		values[i] = s.Min + float64(i)*step
	}
	values[len(values)-1] = s.Max
	return values
}

// RunSweep runs every point on a bounded worker pool. Results are returned
// in the order of Values; the first failure cancels the remaining points.
func RunSweep(ctx context.Context, sweep *ParameterSweep, progress ProgressFunc) ([]SweepResult, error) {
	base := sweep.Base
	if base == nil {
		base = config.DefaultConfig()
	}

	values := sweep.Values()
	configs := make([]*config.Config, len(values))
	for i, v := range values {
		cfg := base.Clone()
		if err := cfg.Set(sweep.Param, v); err != nil {
			return nil, err
		}
		configs[i] = cfg
	}

	results := make([]SweepResult, len(values))
	err := runPool(ctx, configs, sweep.Workers, progress, func(i int, res *StepResult) {
		results[i] = SweepResult{Value: values[i], Metrics: res.Metrics}
	})
	if err != nil {
		return nil, fmt.Errorf("sweep %s: %w", sweep.Param, err)
	}

	return results, nil
}

// runPool simulates each config concurrently. collect is called from worker
// goroutines with distinct indices.
func runPool(ctx context.Context, configs []*config.Config, workers int, progress ProgressFunc, collect func(int, *StepResult)) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	done := 0

	for i, cfg := range configs {
		i, cfg := i, cfg
		g.Go(func() error {
			res, err := runConfig(ctx, cfg)
			if err != nil {
				return fmt.Errorf("point %d: %w", i, err)
			}
			collect(i, res)

			if progress != nil {
				mu.Lock()
				done++
				progress(done, len(configs))
				mu.Unlock()
			}
			return nil
		})
	}

	return g.Wait()
}
