package experiment

import (
	"math"
	"sort"
)

// Target is the command stream a planner would publish at time t.
type Target struct {
	Linear  float64
	Angular float64
	Enabled bool
}

type Scenario struct {
	Name        string
	Description string
	Duration    float64
	InitSpeed   float64
	Profile     func(t float64) Target
}

// Reference adapts the scenario to the metric reference signature.
func (s Scenario) Reference(t float64) (float64, bool) {
	tgt := s.Profile(t)
	return tgt.Linear, tgt.Enabled
}

const cruiseSpeed = 11.1 // 25 mph

var scenarios = map[string]Scenario{
	"cruise": {
		Name:        "cruise",
		Description: "accelerate from rest and hold 25 mph",
		Duration:    40,
		Profile: func(t float64) Target {
			return Target{Linear: cruiseSpeed, Enabled: true}
		},
	},
	"stop": {
		Name:        "stop",
		Description: "cruise, stop at a light and hold",
		Duration:    45,
		Profile: func(t float64) Target {
			if t < 25 {
				return Target{Linear: cruiseSpeed, Enabled: true}
			}
			return Target{Linear: 0, Enabled: true}
		},
	},
	"decel": {
		Name:        "decel",
		Description: "slow from 18 m/s to 8 m/s",
		Duration:    20,
		InitSpeed:   18,
		Profile: func(t float64) Target {
			return Target{Linear: 8, Enabled: true}
		},
	},
	"slalom": {
		Name:        "slalom",
		Description: "sinusoidal yaw-rate command at constant speed",
		Duration:    30,
		InitSpeed:   10,
		Profile: func(t float64) Target {
			return Target{Linear: 10, Angular: 0.2 * math.Sin(2*math.Pi*t/6), Enabled: true}
		},
	},
	"disengage": {
		Name:        "disengage",
		Description: "manual override between 10 s and 15 s while cruising",
		Duration:    30,
		InitSpeed:   cruiseSpeed,
		Profile: func(t float64) Target {
			return Target{Linear: cruiseSpeed, Angular: 0.05, Enabled: t < 10 || t >= 15}
		},
	},
	"step": {
		Name:        "step",
		Description: "speed steps 5, 15, 10, 0 m/s",
		Duration:    60,
		Profile: func(t float64) Target {
			switch {
			case t < 15:
				return Target{Linear: 5, Enabled: true}
			case t < 30:
				return Target{Linear: 15, Enabled: true}
			case t < 45:
				return Target{Linear: 10, Enabled: true}
			default:
				return Target{Linear: 0, Enabled: true}
			}
		},
	},
}

func GetScenario(name string) (Scenario, bool) {
	s, ok := scenarios[name]
	return s, ok
}

func ListScenarios() []Scenario {
	out := make([]Scenario, 0, len(scenarios))
	for _, s := range scenarios {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
