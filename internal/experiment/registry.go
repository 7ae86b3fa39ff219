package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/dbwsim/internal/dynamo"
	"github.com/san-kum/dbwsim/internal/integrators"
	"github.com/san-kum/dbwsim/internal/metrics"
	"github.com/san-kum/dbwsim/internal/physics"
)

type Registry struct {
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }

	return r
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetScenario(name string) (Scenario, error) {
	s, ok := GetScenario(name)
	if !ok {
		return Scenario{}, fmt.Errorf("unknown scenario: %s", name)
	}
	return s, nil
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics scores a run of the given scenario. maxBrake normalizes
// brake effort, usually the torque at the deceleration limit.
func (r *Registry) DefaultMetrics(s Scenario, maxBrake, maxLatAccel, holdBrake, holdSpeed float64) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewTrackingError(s.Reference),
		metrics.NewControlEffort(maxBrake),
		metrics.NewStability(maxLatAccel),
		metrics.NewMaxRate("steering_rate_max", physics.IdxSteering, false),
		metrics.NewMaxRate("brake_rise_max", physics.IdxBrake, true),
		metrics.NewMaxRate("throttle_rise_max", physics.IdxThrottle, true),
		metrics.NewHoldCompliance(s.Reference, holdBrake, holdSpeed),
	}
}
