package config

import "sort"

func preset(scenario string, mutate func(*Config)) *Config {
	cfg := DefaultConfig()
	cfg.Scenario = scenario
	if mutate != nil {
		mutate(cfg)
	}
	return cfg
}

var Presets = map[string]map[string]*Config{
	"cruise": {
		"city": preset("cruise", func(c *Config) {
			c.Vehicle.MaxThrottle = 0.4
		}),
		"noisy": preset("cruise", func(c *Config) {
			c.Noise = 0.5
		}),
		"rolling": preset("cruise", func(c *Config) {
			c.InitState.Speed = 8
		}),
	},
	"stop": {
		"light": preset("stop", nil),
		"heavy": preset("stop", func(c *Config) {
			c.Vehicle.VehicleMass = 2500
		}),
	},
	"decel": {
		"gentle": preset("decel", func(c *Config) {
			c.Vehicle.DecelLimit = -2
		}),
		"hard": preset("decel", func(c *Config) {
			c.Vehicle.DecelLimit = -8
		}),
	},
	"slalom": {
		"smooth": preset("slalom", nil),
		"underdamped": preset("slalom", func(c *Config) {
			c.Tuning.SteerKd = 0.2
		}),
		"integral": preset("slalom", func(c *Config) {
			c.Tuning.SteerKi = 0.5
		}),
	},
	"disengage": {
		"override": preset("disengage", nil),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(scenario, name string) *Config {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	cfg, ok := scenarioPresets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(scenario string) []string {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenarioPresets))
	for name := range scenarioPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
