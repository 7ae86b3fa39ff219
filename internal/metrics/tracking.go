package metrics

import (
	"math"

	"github.com/san-kum/dbwsim/internal/dynamo"
	"github.com/san-kum/dbwsim/internal/physics"
)

// Reference returns the commanded speed at time t and whether the loop was
// engaged. Disengaged samples are not scored.
type Reference func(t float64) (speed float64, engaged bool)

// TrackingError is the RMS difference between commanded and actual speed.
type TrackingError struct {
	name    string
	ref     Reference
	sumSq   float64
	samples int
}

func NewTrackingError(ref Reference) *TrackingError {
	return &TrackingError{name: "tracking_rms", ref: ref}
}

func (m *TrackingError) Name() string { return m.name }

func (m *TrackingError) Observe(x dynamo.State, u dynamo.Control, t float64) {
	target, engaged := m.ref(t)
	if !engaged {
		return
	}
	e := target - x[physics.IdxSpeed]
	m.sumSq += e * e
	m.samples++
}

func (m *TrackingError) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return math.Sqrt(m.sumSq / float64(m.samples))
}

func (m *TrackingError) Reset() {
	m.sumSq = 0
	m.samples = 0
}

// HoldCompliance is the fraction of stop-hold samples (zero target, nearly
// stationary) in which the holding brake torque was applied.
type HoldCompliance struct {
	name      string
	ref       Reference
	holdBrake float64
	holdSpeed float64
	held      int
	samples   int
}

func NewHoldCompliance(ref Reference, holdBrake, holdSpeed float64) *HoldCompliance {
	return &HoldCompliance{name: "hold_compliance", ref: ref, holdBrake: holdBrake, holdSpeed: holdSpeed}
}

func (m *HoldCompliance) Name() string { return m.name }

func (m *HoldCompliance) Observe(x dynamo.State, u dynamo.Control, t float64) {
	target, engaged := m.ref(t)
	if !engaged || target != 0 || x[physics.IdxSpeed] >= m.holdSpeed || len(u) < 2 {
		return
	}
	m.samples++
	if u[physics.IdxBrake] >= m.holdBrake {
		m.held++
	}
}

func (m *HoldCompliance) Value() float64 {
	if m.samples == 0 {
		return 1.0
	}
	return float64(m.held) / float64(m.samples)
}

func (m *HoldCompliance) Reset() {
	m.held = 0
	m.samples = 0
}
