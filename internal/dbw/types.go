package dbw

import (
	"errors"
	"fmt"
)

var ErrInvalidParams = errors.New("dbw: invalid vehicle parameters")

// VehicleParams describes the vehicle. Units are SI; steering angles are
// steering wheel angles in radians.
type VehicleParams struct {
	VehicleMass   float64 `yaml:"vehicle_mass" json:"vehicle_mass"`
	FuelCapacity  float64 `yaml:"fuel_capacity" json:"fuel_capacity"`
	BrakeDeadband float64 `yaml:"brake_deadband" json:"brake_deadband"`
	DecelLimit    float64 `yaml:"decel_limit" json:"decel_limit"`
	AccelLimit    float64 `yaml:"accel_limit" json:"accel_limit"`
	WheelRadius   float64 `yaml:"wheel_radius" json:"wheel_radius"`
	WheelBase     float64 `yaml:"wheel_base" json:"wheel_base"`
	SteerRatio    float64 `yaml:"steer_ratio" json:"steer_ratio"`
	MaxLatAccel   float64 `yaml:"max_lat_accel" json:"max_lat_accel"`
	MaxSteerAngle float64 `yaml:"max_steer_angle" json:"max_steer_angle"`
	MaxThrottle   float64 `yaml:"max_throttle" json:"max_throttle"`
}

func DefaultVehicleParams() VehicleParams {
	return VehicleParams{
		VehicleMass:   1736.35,
		FuelCapacity:  13.5,
		BrakeDeadband: 0.1,
		DecelLimit:    -5,
		AccelLimit:    1,
		WheelRadius:   0.2413,
		WheelBase:     2.8498,
		SteerRatio:    14.8,
		MaxLatAccel:   3,
		MaxSteerAngle: 8,
		MaxThrottle:   0.8,
	}
}

// Validate checks the construction invariants. The control path assumes a
// validated set and never calls it.
func (p VehicleParams) Validate() error {
	switch {
	case p.MaxSteerAngle <= 0:
		return fmt.Errorf("%w: max_steer_angle must be positive, got %g", ErrInvalidParams, p.MaxSteerAngle)
	case p.DecelLimit >= 0:
		return fmt.Errorf("%w: decel_limit must be negative, got %g", ErrInvalidParams, p.DecelLimit)
	case p.AccelLimit <= 0:
		return fmt.Errorf("%w: accel_limit must be positive, got %g", ErrInvalidParams, p.AccelLimit)
	case p.VehicleMass <= 0:
		return fmt.Errorf("%w: vehicle_mass must be positive, got %g", ErrInvalidParams, p.VehicleMass)
	case p.WheelRadius <= 0:
		return fmt.Errorf("%w: wheel_radius must be positive, got %g", ErrInvalidParams, p.WheelRadius)
	case p.WheelBase <= 0 || p.SteerRatio <= 0:
		return fmt.Errorf("%w: wheel_base and steer_ratio must be positive", ErrInvalidParams)
	case p.MaxThrottle <= 0:
		return fmt.Errorf("%w: max_throttle must be positive, got %g", ErrInvalidParams, p.MaxThrottle)
	}
	return nil
}

// Tuning holds the empirical constants of the shaping pipeline.
type Tuning struct {
	SteerKp float64 `yaml:"steer_kp" json:"steer_kp"`
	SteerKi float64 `yaml:"steer_ki" json:"steer_ki"`
	SteerKd float64 `yaml:"steer_kd" json:"steer_kd"`

	FilterTau float64 `yaml:"filter_tau" json:"filter_tau"`
	FilterTs  float64 `yaml:"filter_ts" json:"filter_ts"`

	// MinSpeed is the speed floor used when converting yaw rate to a radius.
	MinSpeed float64 `yaml:"min_speed" json:"min_speed"`

	SteerRateLimit float64 `yaml:"steer_rate_limit" json:"steer_rate_limit"`

	ThrottleSpeedBias float64 `yaml:"throttle_speed_bias" json:"throttle_speed_bias"`
	ThrottleDeadzone  float64 `yaml:"throttle_deadzone" json:"throttle_deadzone"`
	ThrottleRampUp    float64 `yaml:"throttle_ramp_up" json:"throttle_ramp_up"`
	ThrottleRampDown  float64 `yaml:"throttle_ramp_down" json:"throttle_ramp_down"`

	DecelGain       float64 `yaml:"decel_gain" json:"decel_gain"`
	HoldBrake       float64 `yaml:"hold_brake" json:"hold_brake"`
	HoldSpeed       float64 `yaml:"hold_speed" json:"hold_speed"`
	BrakeRateLimit  float64 `yaml:"brake_rate_limit" json:"brake_rate_limit"`
	DecelBrakeFloor float64 `yaml:"decel_brake_floor" json:"decel_brake_floor"`

	MaxVelFloor  float64 `yaml:"max_vel_floor" json:"max_vel_floor"`
	InitialBrake float64 `yaml:"initial_brake" json:"initial_brake"`
	MinDt        float64 `yaml:"min_dt" json:"min_dt"`
}

func DefaultTuning() Tuning {
	return Tuning{
		SteerKp:           1.2,
		SteerKi:           0.0,
		SteerKd:           1.4,
		FilterTau:         0.05,
		FilterTs:          0.02,
		MinSpeed:          0.1,
		SteerRateLimit:    0.2,
		ThrottleSpeedBias: 0.018,
		ThrottleDeadzone:  0.005,
		ThrottleRampUp:    0.0025,
		ThrottleRampDown:  0.05,
		DecelGain:         5,
		HoldBrake:         700,
		HoldSpeed:         0.1,
		BrakeRateLimit:    20,
		DecelBrakeFloor:   100,
		MaxVelFloor:       0.001,
		InitialBrake:      100,
		MinDt:             1e-3,
	}
}

// Inputs are the decoded per-cycle commands and measurements.
type Inputs struct {
	LinearVel         float64
	AngularVel        float64
	CurrentVel        float64
	CurrentAngularVel float64
	Enabled           bool
	// MaxThrottle overrides VehicleParams.MaxThrottle when positive.
	MaxThrottle float64
	// CTE is the cross-track error. It is carried for interface
	// compatibility and does not influence the output.
	CTE float64
}

type Outputs struct {
	Throttle float64
	Brake    float64 // N*m
	Steering float64
}

// State persists across cycles.
type State struct {
	LastTime     float64
	MaxVel       float64
	LastThrottle float64
	LastBrake    float64
	LastSteering float64
}

// Diagnostics exposes intermediate values of the most recent enabled cycle.
type Diagnostics struct {
	Dt            float64
	FilteredVel   float64
	VelError      float64
	SmoothAccel   float64
	PIDCorrection float64
	RawSteering   float64
	Holding       bool
	Braking       bool
}
