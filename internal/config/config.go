package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dbwsim/internal/dbw"
)

const (
	DefaultDt         = 0.02
	DefaultScenario   = "cruise"
	DefaultIntegrator = "rk4"
	DefaultNoise      = 0.05
	DefaultLogLevel   = "info"
)

type Config struct {
	Scenario   string            `yaml:"scenario"`
	Integrator string            `yaml:"integrator"`
	Dt         float64           `yaml:"dt"`
	Duration   float64           `yaml:"duration"`
	Seed       int64             `yaml:"seed"`
	Noise      float64           `yaml:"noise"`
	InitState  InitStateConfig   `yaml:"init_state"`
	Vehicle    dbw.VehicleParams `yaml:"vehicle"`
	Tuning     dbw.Tuning        `yaml:"tuning"`
	Plant      PlantConfig       `yaml:"plant"`
	Log        LogConfig         `yaml:"log"`
	CAN        CANConfig         `yaml:"can"`
}

type InitStateConfig struct {
	Speed   float64 `yaml:"speed"`
	Heading float64 `yaml:"heading"`
}

// PlantConfig describes the simulated vehicle. A zero Mass uses the
// controller's vehicle mass.
type PlantConfig struct {
	Mass          float64 `yaml:"mass"`
	ThrottleAccel float64 `yaml:"throttle_accel"`
	Drag          float64 `yaml:"drag"`
	Rolling       float64 `yaml:"rolling"`
	YawLag        float64 `yaml:"yaw_lag"`
}

// Params maps the plant settings to the vehicle's parameter names.
func (p PlantConfig) Params() map[string]float64 {
	params := map[string]float64{
		"throttle_accel": p.ThrottleAccel,
		"drag":           p.Drag,
		"rolling":        p.Rolling,
		"yaw_lag":        p.YawLag,
	}
	if p.Mass > 0 {
		params["mass"] = p.Mass
	}
	return params
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Stdout     bool   `yaml:"stdout"`
}

type CANConfig struct {
	Interface string `yaml:"interface"`
}

func DefaultConfig() *Config {
	return &Config{
		Scenario:   DefaultScenario,
		Integrator: DefaultIntegrator,
		Dt:         DefaultDt,
		Noise:      DefaultNoise,
		Vehicle:    dbw.DefaultVehicleParams(),
		Tuning:     dbw.DefaultTuning(),
		Plant: PlantConfig{
			ThrottleAccel: 5.0,
			Drag:          0.4,
			Rolling:       0.01,
			YawLag:        0.1,
		},
		Log: LogConfig{
			Level:      DefaultLogLevel,
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// Load reads a YAML file over the defaults, so a file only needs the keys it
// changes.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads a YAML file over a copy of base, typically a preset.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %f", c.Duration)
	}
	if c.Noise < 0 {
		return fmt.Errorf("noise must not be negative, got %f", c.Noise)
	}
	if c.Tuning.FilterTs <= 0 || c.Tuning.FilterTau < 0 {
		return fmt.Errorf("filter_ts must be positive and filter_tau non-negative")
	}
	if c.Tuning.MaxVelFloor <= 0 {
		return fmt.Errorf("max_vel_floor must be positive, got %f", c.Tuning.MaxVelFloor)
	}
	if c.Tuning.MinDt <= 0 {
		return fmt.Errorf("min_dt must be positive, got %f", c.Tuning.MinDt)
	}
	if c.Plant.YawLag <= 0 || c.Plant.Mass < 0 {
		return fmt.Errorf("plant yaw_lag must be positive and mass non-negative")
	}
	return c.Vehicle.Validate()
}

// Clone returns a deep copy; all fields are values.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

func (c *Config) GetControllerParams() map[string]float64 {
	return map[string]float64{
		"kp": c.Tuning.SteerKp,
		"ki": c.Tuning.SteerKi,
		"kd": c.Tuning.SteerKd,
	}
}

// SetControllerParam applies a tuning parameter by the names used on the
// command line and by the gain search.
func (c *Config) SetControllerParam(name string, value float64) error {
	switch name {
	case "kp":
		c.Tuning.SteerKp = value
	case "ki":
		c.Tuning.SteerKi = value
	case "kd":
		c.Tuning.SteerKd = value
	case "tau":
		c.Tuning.FilterTau = value
	case "decel_gain":
		c.Tuning.DecelGain = value
	case "speed_bias":
		c.Tuning.ThrottleSpeedBias = value
	default:
		return fmt.Errorf("unknown controller param: %s", name)
	}
	return nil
}

// SetPlantParam applies a plant parameter by the vehicle's parameter name.
func (c *Config) SetPlantParam(name string, value float64) error {
	switch name {
	case "mass":
		c.Plant.Mass = value
	case "throttle_accel":
		c.Plant.ThrottleAccel = value
	case "drag":
		c.Plant.Drag = value
	case "rolling":
		c.Plant.Rolling = value
	case "yaw_lag":
		c.Plant.YawLag = value
	default:
		return fmt.Errorf("unknown plant param: %s", name)
	}
	return nil
}
