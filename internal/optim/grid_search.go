// Package optim searches motor and signal parameters for a target response.
package optim

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/dcmotor/internal/config"
	"github.com/san-kum/dcmotor/internal/metrics"
	"github.com/san-kum/dcmotor/internal/motor"
)

var ErrNoCandidate = errors.New("optim: no candidate produced a finite score")

// Objective scores the metrics of one run; lower is better.
type Objective func(metrics map[string]float64) float64

// Target scores how far a metric lands from the wanted value.
func Target(metric string, want float64) Objective {
	return func(m map[string]float64) float64 {
		return math.Abs(m[metric] - want)
	}
}

// GridSearch tries every combination of the listed values. Params are
// config paths such as "motor.r".
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

type Best struct {
	Params  map[string]float64
	Score   float64
	Metrics map[string]float64
	Tried   int
}

// Search runs the grid on top of base. Candidates that fail validation or
// score NaN are skipped.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, objective Objective) (*Best, error) {
	best := &Best{Score: math.Inf(1)}

	if err := g.searchRecursive(ctx, 0, make(map[string]float64), base, objective, best); err != nil {
		return nil, err
	}

	if best.Params == nil {
		return nil, ErrNoCandidate
	}
	return best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Config,
	objective Objective,
	best *Best,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		best.Tried++

		cfg := base.Clone()
		for k, v := range current {
			if err := cfg.Set(k, v); err != nil {
				return err
			}
		}

		params, err := cfg.Parameters()
		if err != nil {
			return nil
		}

		_, values, err := motor.Simulate(ctx, params, metrics.Default()...)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		}

		score := objective(values)
		if score < best.Score {
			best.Score = score
			best.Metrics = values
			best.Params = make(map[string]float64, len(current))
			for k, v := range current {
				best.Params[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, base, objective, best); err != nil {
			return err
		}
	}
	return nil
}

// ParseRange parses "min:max:step" into the inclusive list of grid values.
func ParseRange(s string) ([]float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return nil, errors.New("optim: range must be min:max:step")
	}

	var bounds [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		bounds[i] = v
	}

	lo, hi, step := bounds[0], bounds[1], bounds[2]
	if step <= 0 || hi < lo {
		return nil, errors.New("optim: range needs min <= max and step > 0")
	}

	n := int(math.Floor((hi-lo)/step+1e-9)) + 1
	values := make([]float64, n)
	for i := range values {
		values[i] = math.Round((lo+float64(i)*step)*1e9) / 1e9
	}
	return values, nil
}
