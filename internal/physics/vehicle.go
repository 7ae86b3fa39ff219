package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/dbwsim/internal/dbw"
	"github.com/san-kum/dbwsim/internal/dynamo"
)

const DefaultGravity = 9.81

// State layout.
const (
	IdxX = iota
	IdxY
	IdxHeading
	IdxSpeed
	IdxYawRate
)

// Control layout.
const (
	IdxThrottle = iota
	IdxBrake
	IdxSteering
)

var (
	StateLabels   = []string{"x", "y", "heading", "speed", "yaw_rate"}
	ControlLabels = []string{"throttle", "brake", "steering"}
)

type Vehicle struct {
	Mass        float64
	WheelRadius float64
	WheelBase   float64
	SteerRatio  float64
	// ThrottleAccel is the acceleration produced at full throttle.
	ThrottleAccel float64
	DragCoeff     float64
	RollingCoeff  float64
	// YawLag is the time constant of the yaw rate response.
	YawLag  float64
	Gravity float64
}

func NewVehicle(p dbw.VehicleParams) *Vehicle {
	return &Vehicle{
		Mass:          p.VehicleMass,
		WheelRadius:   p.WheelRadius,
		WheelBase:     p.WheelBase,
		SteerRatio:    p.SteerRatio,
		ThrottleAccel: 5.0,
		DragCoeff:     0.4,
		RollingCoeff:  0.01,
		YawLag:        0.1,
		Gravity:       DefaultGravity,
	}
}

func (v *Vehicle) StateDim() int   { return 5 }
func (v *Vehicle) ControlDim() int { return 3 }

// Accel returns the longitudinal acceleration for the given speed and
// actuator commands.
func (v *Vehicle) Accel(speed, throttle, brake float64) float64 {
	throttle = math.Max(0, math.Min(1, throttle))
	brake = math.Max(0, brake)

	a := throttle * v.ThrottleAccel
	a -= v.DragCoeff * speed * math.Abs(speed) / v.Mass
	if speed > 0 {
		a -= v.RollingCoeff * v.Gravity
		a -= brake / (v.Mass * v.WheelRadius)
	}
	if speed <= 0 && a < 0 {
		a = 0
	}
	return a
}

// WheelAngle converts a steering wheel angle to a road wheel angle.
func (v *Vehicle) WheelAngle(steering float64) float64 {
	return steering / v.SteerRatio
}

func (v *Vehicle) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	heading, speed, yawRate := x[IdxHeading], x[IdxSpeed], x[IdxYawRate]

	throttle, brake, steering := 0.0, 0.0, 0.0
	if len(u) >= 3 {
		throttle, brake, steering = u[IdxThrottle], u[IdxBrake], u[IdxSteering]
	}

	targetYaw := speed * math.Tan(v.WheelAngle(steering)) / v.WheelBase

	return dynamo.State{
		speed * math.Cos(heading),
		speed * math.Sin(heading),
		yawRate,
		v.Accel(speed, throttle, brake),
		(targetYaw - yawRate) / v.YawLag,
	}
}

func (v *Vehicle) Constrain(x dynamo.State) dynamo.State {
	if x[IdxSpeed] < 0 {
		x[IdxSpeed] = 0
	}
	return x
}

// InitialState places the vehicle at the origin heading along +x.
func (v *Vehicle) InitialState(speed float64) dynamo.State {
	return dynamo.State{0, 0, 0, speed, 0}
}

func (v *Vehicle) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":           v.Mass,
		"throttle_accel": v.ThrottleAccel,
		"drag":           v.DragCoeff,
		"rolling":        v.RollingCoeff,
		"yaw_lag":        v.YawLag,
	}
}

func (v *Vehicle) SetParam(name string, value float64) error {
	switch name {
	case "mass":
		v.Mass = value
	case "throttle_accel":
		v.ThrottleAccel = value
	case "drag":
		v.DragCoeff = value
	case "rolling":
		v.RollingCoeff = value
	case "yaw_lag":
		v.YawLag = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
