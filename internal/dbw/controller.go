package dbw

import (
	"math"

	"github.com/san-kum/dbwsim/internal/control"
	"github.com/san-kum/dbwsim/internal/logging"
)

type Controller struct {
	params VehicleParams
	tuning Tuning

	steering *control.PID
	velocity *control.LowPass
	yaw      *control.YawController

	state   State
	diag    Diagnostics
	engaged bool
	log     *logging.Logger
}

// New builds a controller whose clock starts at now (seconds).
func New(params VehicleParams, tuning Tuning, now float64) *Controller {
	return &Controller{
		params:   params,
		tuning:   tuning,
		steering: control.NewPID(tuning.SteerKp, tuning.SteerKi, tuning.SteerKd, -params.MaxSteerAngle, params.MaxSteerAngle),
		velocity: control.NewLowPass(tuning.FilterTau, tuning.FilterTs),
		yaw:      control.NewYawController(params.WheelBase, params.SteerRatio, tuning.MinSpeed, params.MaxLatAccel, params.MaxSteerAngle),
		state: State{
			LastTime:  now,
			MaxVel:    tuning.MaxVelFloor,
			LastBrake: tuning.InitialBrake,
		},
		log: logging.Discard(),
	}
}

func (c *Controller) SetLogger(l *logging.Logger) {
	if l == nil {
		l = logging.Discard()
	}
	c.log = l
}

func (c *Controller) Params() VehicleParams    { return c.params }
func (c *Controller) State() State             { return c.state }
func (c *Controller) Diagnostics() Diagnostics { return c.diag }
func (c *Controller) Engaged() bool            { return c.engaged }

// Tuning returns the constants in effect, including steering gains changed
// through SteeringPID.
func (c *Controller) Tuning() Tuning {
	t := c.tuning
	t.SteerKp, t.SteerKi, t.SteerKd = c.steering.Kp, c.steering.Ki, c.steering.Kd
	return t
}

// SteeringPID exposes the steering loop for live gain adjustment.
func (c *Controller) SteeringPID() *control.PID { return c.steering }

// Control runs one control cycle at time now (seconds).
func (c *Controller) Control(in Inputs, now float64) Outputs {
	if !in.Enabled {
		if c.engaged {
			c.log.Info("dbw disengaged at t=%.3f", now)
			c.engaged = false
		}
		c.steering.Reset()
		return Outputs{}
	}
	if !c.engaged {
		c.log.Info("dbw engaged at t=%.3f", now)
		c.engaged = true
	}

	tn := c.tuning
	st := &c.state

	if in.LinearVel > st.MaxVel {
		st.MaxVel = in.LinearVel
	}

	filtered := c.velocity.Filter(in.CurrentVel)

	dt := now - st.LastTime
	if dt < tn.MinDt {
		if dt < 0 {
			c.log.Warn("clock went backwards by %.4fs", -dt)
		}
		dt = tn.MinDt
	}
	st.LastTime = now

	// Steering: the PID corrects the yaw-rate target, not the angle.
	correction := c.steering.Step(in.AngularVel-in.CurrentAngularVel, dt)
	raw := c.yaw.Steering(in.LinearVel, in.AngularVel+correction, filtered)
	steering := raw
	if steering-st.LastSteering > tn.SteerRateLimit {
		steering = st.LastSteering + tn.SteerRateLimit
	} else if steering-st.LastSteering < -tn.SteerRateLimit {
		steering = st.LastSteering - tn.SteerRateLimit
	}
	st.LastSteering = steering

	maxThrottle := c.params.MaxThrottle
	if in.MaxThrottle > 0 {
		maxThrottle = in.MaxThrottle
	}

	velErr := in.LinearVel - filtered
	smooth := in.LinearVel*in.LinearVel - filtered*filtered

	throttle := 0.0
	if smooth >= 0 {
		bias := in.LinearVel * tn.ThrottleSpeedBias
		throttle = smooth*(maxThrottle-bias)/(st.MaxVel*st.MaxVel) + bias
	}
	if throttle > maxThrottle {
		throttle = maxThrottle
	}

	if throttle > tn.ThrottleDeadzone && throttle-st.LastThrottle > tn.ThrottleDeadzone {
		throttle = math.Max(st.LastThrottle+tn.ThrottleRampUp, tn.ThrottleDeadzone)
	}
	if throttle > tn.ThrottleDeadzone && throttle-st.LastThrottle < -tn.ThrottleRampDown {
		throttle = st.LastThrottle - tn.ThrottleRampDown
	}

	brake := 0.0
	holding, braking := false, false
	if in.LinearVel == 0 && filtered < tn.HoldSpeed {
		throttle = 0
		brake = tn.HoldBrake
		holding = true
	} else if throttle < tn.ThrottleDeadzone && velErr < 0 {
		throttle = 0
		decel := math.Max(smooth*tn.DecelGain, c.params.DecelLimit)
		brake = math.Abs(decel) * c.params.VehicleMass * c.params.WheelRadius
		if brake > tn.DecelBrakeFloor && brake-st.LastBrake > tn.BrakeRateLimit {
			brake = math.Max(st.LastBrake+tn.BrakeRateLimit, tn.DecelBrakeFloor)
		}
		braking = true
	}

	if brake > tn.BrakeRateLimit && brake-st.LastBrake > tn.BrakeRateLimit {
		brake = math.Max(st.LastBrake+tn.BrakeRateLimit, tn.BrakeRateLimit)
	}

	st.LastThrottle = throttle
	st.LastBrake = brake

	c.diag = Diagnostics{
		Dt:            dt,
		FilteredVel:   filtered,
		VelError:      velErr,
		SmoothAccel:   smooth,
		PIDCorrection: correction,
		RawSteering:   raw,
		Holding:       holding,
		Braking:       braking,
	}

	if c.log.Enabled(logging.TRACE) {
		c.log.Trace("t=%.3f v=%.3f vf=%.3f throttle=%.4f brake=%.1f steer=%.3f",
			now, in.CurrentVel, filtered, throttle, brake, steering)
	}

	return Outputs{Throttle: throttle, Brake: brake, Steering: steering}
}
