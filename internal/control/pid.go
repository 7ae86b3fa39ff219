package control

import "fmt"

// minDt is the smallest step for which a derivative term is computed.
const minDt = 1e-9

type PID struct {
	Kp       float64
	Ki       float64
	Kd       float64
	Min      float64
	Max      float64
	integral float64
	prevErr  float64
}

func NewPID(kp, ki, kd, min, max float64) *PID {
	return &PID{
		Kp:  kp,
		Ki:  ki,
		Kd:  kd,
		Min: min,
		Max: max,
	}
}

// Step advances the controller by dt seconds and returns the clamped output.
// The integral is only committed while the output is unsaturated.
func (p *PID) Step(err, dt float64) float64 {
	integral := p.integral
	derivative := 0.0
	if dt > minDt {
		integral += err * dt
		derivative = (err - p.prevErr) / dt
	}

	u := p.Kp*err + p.Ki*integral + p.Kd*derivative

	switch {
	case u > p.Max:
		u = p.Max
	case u < p.Min:
		u = p.Min
	default:
		p.integral = integral
	}

	p.prevErr = err
	return u
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
}

func (p *PID) Integral() float64  { return p.integral }
func (p *PID) PrevError() float64 { return p.prevErr }

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp": p.Kp,
		"Ki": p.Ki,
		"Kd": p.Kd,
	}
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) error {
	switch name {
	case "Kp":
		p.Kp = value
	case "Ki":
		p.Ki = value
	case "Kd":
		p.Kd = value
	default:
		return fmt.Errorf("pid: unknown parameter %q", name)
	}
	return nil
}
