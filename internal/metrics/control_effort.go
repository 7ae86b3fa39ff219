package metrics

import (
	"github.com/san-kum/dbwsim/internal/dynamo"
	"github.com/san-kum/dbwsim/internal/physics"
)

// ControlEffort is the mean throttle plus brake torque normalized by
// maxBrake, so both pedals weigh in on the same scale.
type ControlEffort struct {
	name     string
	maxBrake float64
	sum      float64
	samples  int
}

func NewControlEffort(maxBrake float64) *ControlEffort {
	return &ControlEffort{
		name:     "control_effort",
		maxBrake: maxBrake,
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(u) < 2 {
		return
	}
	c.sum += u[physics.IdxThrottle]
	if c.maxBrake > 0 {
		c.sum += u[physics.IdxBrake] / c.maxBrake
	}
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
