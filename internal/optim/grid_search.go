package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/dbwsim/internal/experiment"
)

// BuildFunc prepares an experiment for one point of the grid.
type BuildFunc func(params map[string]float64) (*experiment.Experiment, error)

// Trial is one evaluated grid point.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	// OnTrial, if set, sees every evaluated point.
	OnTrial func(Trial)
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	return out
}

// Search evaluates every grid point and returns the one minimizing
// metricName. Points whose run fails or diverges are skipped.
func (g *GridSearch) Search(ctx context.Context, build BuildFunc, metricName string) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, fmt.Errorf("optim: %d params but %d ranges", len(g.paramNames), len(g.ranges))
	}

	best := math.Inf(1)
	var bestParams map[string]float64

	if err := g.searchRecursive(ctx, 0, make(map[string]float64), build, metricName, &best, &bestParams); err != nil {
		return bestParams, best, err
	}
	if bestParams == nil {
		return nil, best, errors.New("optim: no grid point produced a valid run")
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	build BuildFunc,
	metricName string,
	best *float64,
	bestParams *map[string]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		trial := g.evaluate(ctx, current, build, metricName)
		if g.OnTrial != nil {
			g.OnTrial(trial)
		}
		if errors.Is(trial.Err, context.Canceled) || errors.Is(trial.Err, context.DeadlineExceeded) {
			return trial.Err
		}
		if trial.Err == nil && trial.Value < *best {
			*best = trial.Value
			*bestParams = trial.Params
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

		if err := g.searchRecursive(ctx, depth+1, newParams, build, metricName, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}

func (g *GridSearch) evaluate(ctx context.Context, params map[string]float64, build BuildFunc, metricName string) Trial {
	trial := Trial{Params: params, Value: math.Inf(1)}

	exp, err := build(params)
	if err != nil {
		trial.Err = err
		return trial
	}

	result, err := exp.Run(ctx)
	if err != nil {
		trial.Err = err
		return trial
	}
	if len(result.Errors) > 0 {
		trial.Err = result.Errors[0]
		return trial
	}

	val, ok := result.Metrics[metricName]
	if !ok {
		trial.Err = fmt.Errorf("optim: metric %s not recorded", metricName)
		return trial
	}
	trial.Value = val
	return trial
}
