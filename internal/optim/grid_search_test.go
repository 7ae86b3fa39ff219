package optim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dbwsim/internal/config"
	"github.com/san-kum/dbwsim/internal/experiment"
)

func slalomBuilder() BuildFunc {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := config.DefaultConfig()
		cfg.Scenario = "slalom"
		cfg.Duration = 6
		cfg.Noise = 0
		for k, v := range params {
			if err := cfg.SetControllerParam(k, v); err != nil {
				return nil, err
			}
		}
		exp := experiment.New(cfg, nil)
		if err := exp.Setup(experiment.NewRegistry()); err != nil {
			return nil, err
		}
		return exp, nil
	}
}

func TestLinspace(t *testing.T) {
	assert.InDeltaSlice(t, []float64{0, 0.5, 1}, Linspace(0, 1, 3), 1e-12)
	assert.Equal(t, []float64{2}, Linspace(2, 5, 1))
}

func TestGridSearchVisitsEveryPoint(t *testing.T) {
	g := NewGridSearch([]string{"kp", "kd"}, [][]float64{{0.5, 1.2}, {0, 0.7, 1.4}})
	var trials []Trial
	g.OnTrial = func(tr Trial) { trials = append(trials, tr) }

	best, val, err := g.Search(context.Background(), slalomBuilder(), "tracking_rms")
	require.NoError(t, err)
	assert.Len(t, trials, 6)
	assert.Contains(t, best, "kp")
	assert.Contains(t, best, "kd")

	for _, tr := range trials {
		require.NoError(t, tr.Err)
		assert.GreaterOrEqual(t, tr.Value, val)
	}
}

func TestGridSearchUnknownParam(t *testing.T) {
	g := NewGridSearch([]string{"warp"}, [][]float64{{1}})
	_, _, err := g.Search(context.Background(), slalomBuilder(), "tracking_rms")
	assert.Error(t, err)
}

func TestGridSearchUnknownMetric(t *testing.T) {
	g := NewGridSearch([]string{"kp"}, [][]float64{{1}})
	_, _, err := g.Search(context.Background(), slalomBuilder(), "bogus")
	assert.Error(t, err)
}

func TestGridSearchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGridSearch([]string{"kp"}, [][]float64{{1, 2}})
	_, _, err := g.Search(ctx, slalomBuilder(), "tracking_rms")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestGridSearchMismatchedRanges(t *testing.T) {
	g := NewGridSearch([]string{"kp", "kd"}, [][]float64{{1}})
	_, _, err := g.Search(context.Background(), slalomBuilder(), "tracking_rms")
	assert.Error(t, err)
}
