package automation

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/san-kum/dbwsim/internal/config"
	"github.com/san-kum/dbwsim/internal/dynamo"
	"github.com/san-kum/dbwsim/internal/experiment"
	"github.com/san-kum/dbwsim/internal/logging"
)

// Ensemble repeats one configuration over consecutive noise seeds in
// parallel. Each trial owns its controller, driver and plant.
type Ensemble struct {
	cfg       *config.Config
	numRuns   int
	seedStart int64
	workers   int
	log       *logging.Logger
}

func NewEnsemble(cfg *config.Config, numRuns int, seedStart int64, log *logging.Logger) *Ensemble {
	if log == nil {
		log = logging.Discard()
	}
	return &Ensemble{cfg: cfg, numRuns: numRuns, seedStart: seedStart, workers: 4, log: log}
}

// SetWorkers bounds the number of trials running at once.
func (e *Ensemble) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	e.workers = n
}

// Run returns results in seed order.
func (e *Ensemble) Run(ctx context.Context) ([]*dynamo.Result, error) {
	if e.numRuns < 1 {
		return nil, fmt.Errorf("ensemble needs at least one run")
	}

	results := make([]*dynamo.Result, e.numRuns)
	errs := make([]error, e.numRuns)
	sem := make(chan struct{}, e.workers)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			cfg := e.cfg.Clone()
			cfg.Seed = e.seedStart + int64(idx)

			exp := experiment.New(cfg, e.log)
			if err := exp.Setup(experiment.NewRegistry()); err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = exp.Run(ctx)
		}(i)
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("seed %d: %w", e.seedStart+int64(i), err)
		}
	}
	return results, nil
}

type Summary struct {
	Metric string
	Mean   float64
	Std    float64
	Min    float64
	Max    float64
	N      int
}

// Summarize aggregates every metric present in results, sorted by name.
func Summarize(results []*dynamo.Result) []Summary {
	values := make(map[string][]float64)
	for _, r := range results {
		if r == nil {
			continue
		}
		for name, v := range r.Metrics {
			values[name] = append(values[name], v)
		}
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Summary, 0, len(names))
	for _, name := range names {
		out = append(out, summarize(name, values[name]))
	}
	return out
}

func summarize(name string, vs []float64) Summary {
	s := Summary{Metric: name, N: len(vs), Min: vs[0], Max: vs[0]}
	sum := 0.0
	for _, v := range vs {
		sum += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Mean = sum / float64(len(vs))

	ss := 0.0
	for _, v := range vs {
		d := v - s.Mean
		ss += d * d
	}
	s.Std = math.Sqrt(ss / float64(len(vs)))
	return s
}
