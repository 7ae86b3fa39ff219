package control

import "math"

// YawController converts a (speed, yaw rate) command into a steering wheel
// angle with a kinematic bicycle model. Lateral acceleration bounds the yaw
// rate and the result is clamped to the steering range.
type YawController struct {
	WheelBase     float64
	SteerRatio    float64
	MinSpeed      float64
	MaxLatAccel   float64
	MaxSteerAngle float64
}

func NewYawController(wheelBase, steerRatio, minSpeed, maxLatAccel, maxSteerAngle float64) *YawController {
	return &YawController{
		WheelBase:     wheelBase,
		SteerRatio:    steerRatio,
		MinSpeed:      minSpeed,
		MaxLatAccel:   maxLatAccel,
		MaxSteerAngle: maxSteerAngle,
	}
}

func (y *YawController) angle(radius float64) float64 {
	a := math.Atan(y.WheelBase/radius) * y.SteerRatio
	return math.Max(-y.MaxSteerAngle, math.Min(y.MaxSteerAngle, a))
}

// Steering returns the steering angle that yields the commanded curvature at
// the current speed.
func (y *YawController) Steering(linearVel, angularVel, currentVel float64) float64 {
	if math.Abs(linearVel) > 0 {
		angularVel = currentVel * angularVel / linearVel
	} else {
		angularVel = 0
	}

	if math.Abs(currentVel) > 0.1 {
		maxYawRate := math.Abs(y.MaxLatAccel / currentVel)
		angularVel = math.Max(-maxYawRate, math.Min(maxYawRate, angularVel))
	}

	if math.Abs(angularVel) > 0 {
		return y.angle(math.Max(currentVel, y.MinSpeed) / angularVel)
	}
	return 0
}
