// Package optim searches controller gains against simulated runs.
package optim

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/san-kum/autodrive/internal/experiment"
)

// Objective scores a run; lower is better.
type Objective func(*experiment.Result) float64

// MetricObjective scores a run by one of its recorded metrics.
func MetricObjective(name string) Objective {
	return func(r *experiment.Result) float64 {
		v, ok := r.Metrics[name]
		if !ok {
			return math.Inf(1)
		}
		return v
	}
}

// DurationObjective scores a run by how long it took in simulated seconds.
func DurationObjective(r *experiment.Result) float64 {
	return r.Duration.Seconds()
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Trial is one evaluated point of the grid.
type Trial struct {
	Params map[string]float64
	Score  float64
	Err    error
}

// Search runs buildExperiment for every combination of parameters and
// returns the lowest scoring one. Runs that fail are scored +Inf; the search
// only fails when ctx is cancelled or nothing succeeded.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	objective Objective,
) (map[string]float64, float64, []Trial, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, nil, errors.Errorf("optim: %d params but %d ranges", len(g.paramNames), len(g.ranges))
	}

	best := math.Inf(1)
	var bestParams map[string]float64
	var trials []Trial

	g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, objective, &best, &bestParams, &trials)

	if err := ctx.Err(); err != nil {
		return nil, 0, trials, err
	}
	if bestParams == nil {
		return nil, 0, trials, errors.New("optim: no successful run")
	}
	return bestParams, best, trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	objective Objective,
	best *float64,
	bestParams *map[string]float64,
	trials *[]Trial,
) {
	if ctx.Err() != nil {
		return
	}
	if depth == len(g.paramNames) {
		trial := Trial{Params: current, Score: math.Inf(1)}
		defer func() { *trials = append(*trials, trial) }()

		exp, err := buildExperiment(current)
		if err != nil {
			trial.Err = err
			return
		}

		result, err := exp.Run(ctx)
		if err != nil {
			trial.Err = err
			return
		}

		trial.Score = objective(result)
		if trial.Score < *best {
			*best = trial.Score
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.searchRecursive(ctx, depth+1, newParams, buildExperiment, objective, best, bestParams, trials)
	}
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
