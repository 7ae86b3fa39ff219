package automation

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dbwsim/internal/config"
	"github.com/san-kum/dbwsim/internal/dynamo"
	"github.com/san-kum/dbwsim/internal/experiment"
	"github.com/san-kum/dbwsim/internal/logging"
)

// Batch is a YAML list of runs executed one after another.
type Batch struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Runs        []Step `yaml:"runs"`
}

// Step describes one run. Zero fields keep the value of the base config
// or of the named preset.
type Step struct {
	Name       string             `yaml:"name"`
	Scenario   string             `yaml:"scenario"`
	Preset     string             `yaml:"preset"`
	Integrator string             `yaml:"integrator"`
	Dt         float64            `yaml:"dt"`
	Duration   float64            `yaml:"duration"`
	Seed       int64              `yaml:"seed"`
	Noise      *float64           `yaml:"noise"`
	Speed      float64            `yaml:"speed"`
	Set        map[string]float64 `yaml:"set"`
	Plant      map[string]float64 `yaml:"plant"`
}

type StepResult struct {
	Name     string
	Preset   string
	Config   *config.Config
	Duration float64
	Result   *dynamo.Result
}

func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	b, err := ParseBatch(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

func ParseBatch(data []byte) (*Batch, error) {
	var b Batch
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	if len(b.Runs) == 0 {
		return nil, fmt.Errorf("batch has no runs")
	}
	for i := range b.Runs {
		if b.Runs[i].Name == "" {
			b.Runs[i].Name = fmt.Sprintf("run%d", i+1)
		}
	}
	return &b, nil
}

// Config resolves the step over base. A preset replaces base entirely.
func (s Step) Config(base *config.Config) (*config.Config, error) {
	scenario := s.Scenario
	if scenario == "" {
		scenario = base.Scenario
	}

	var cfg *config.Config
	if s.Preset != "" {
		cfg = config.GetPreset(scenario, s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %s for scenario %s", s.Preset, scenario)
		}
	} else {
		cfg = base.Clone()
	}
	cfg.Scenario = scenario

	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	if s.Dt > 0 {
		cfg.Dt = s.Dt
	}
	if s.Duration > 0 {
		cfg.Duration = s.Duration
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	if s.Noise != nil {
		cfg.Noise = *s.Noise
	}
	if s.Speed > 0 {
		cfg.InitState.Speed = s.Speed
	}
	for k, v := range s.Set {
		if err := cfg.SetControllerParam(k, v); err != nil {
			return nil, err
		}
	}
	for k, v := range s.Plant {
		if err := cfg.SetPlantParam(k, v); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

// RunBatch executes every step in order. onResult, when set, sees each
// result as soon as it is ready. The first failing step aborts the batch.
func RunBatch(ctx context.Context, b *Batch, base *config.Config, log *logging.Logger, onResult func(StepResult) error) ([]StepResult, error) {
	if log == nil {
		log = logging.Discard()
	}
	registry := experiment.NewRegistry()
	results := make([]StepResult, 0, len(b.Runs))

	for i, step := range b.Runs {
		log.Info("batch %s: step %d/%d %s", b.Name, i+1, len(b.Runs), step.Name)

		cfg, err := step.Config(base)
		if err != nil {
			return results, fmt.Errorf("step %s: %w", step.Name, err)
		}

		exp := experiment.New(cfg, log)
		if err := exp.Setup(registry); err != nil {
			return results, fmt.Errorf("step %s setup: %w", step.Name, err)
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %s run: %w", step.Name, err)
		}

		sr := StepResult{Name: step.Name, Preset: step.Preset, Config: cfg, Duration: exp.Duration(), Result: result}
		results = append(results, sr)
		if onResult != nil {
			if err := onResult(sr); err != nil {
				return results, fmt.Errorf("step %s: %w", step.Name, err)
			}
		}
	}
	return results, nil
}
