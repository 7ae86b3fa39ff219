package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/dbwsim/internal/dynamo"
	"github.com/san-kum/dbwsim/internal/physics"
)

func constRef(v float64) Reference {
	return func(float64) (float64, bool) { return v, true }
}

func state(speed, yawRate float64) dynamo.State {
	return dynamo.State{0, 0, 0, speed, yawRate}
}

func TestTrackingError(t *testing.T) {
	m := NewTrackingError(constRef(10))
	m.Observe(state(8, 0), nil, 0)
	m.Observe(state(12, 0), nil, 0.02)

	if math.Abs(m.Value()-2) > 1e-12 {
		t.Errorf("expected rms 2, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestTrackingErrorSkipsDisengaged(t *testing.T) {
	m := NewTrackingError(func(t float64) (float64, bool) { return 10, t < 1 })
	m.Observe(state(10, 0), nil, 0)
	m.Observe(state(0, 0), nil, 2)

	if m.Value() != 0 {
		t.Errorf("disengaged sample should be ignored, got %f", m.Value())
	}
}

func TestControlEffort(t *testing.T) {
	m := NewControlEffort(1000)
	m.Observe(nil, dynamo.Control{0.2, 0, 0}, 0)
	m.Observe(nil, dynamo.Control{0, 500, 0}, 0)

	if math.Abs(m.Value()-0.35) > 1e-12 {
		t.Errorf("expected 0.35, got %f", m.Value())
	}
}

func TestStability(t *testing.T) {
	m := NewStability(3)
	m.Observe(state(10, 0.1), nil, 0)
	m.Observe(state(10, 0.5), nil, 0)

	if m.Value() != 0.5 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}
}

func TestMaxRate(t *testing.T) {
	tests := []struct {
		name   string
		rising bool
		seq    []float64
		want   float64
	}{
		{"abs", false, []float64{0, 0.2, -0.1, 0}, 0.3},
		{"rising only", true, []float64{100, 120, 0, 10}, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMaxRate("rate", physics.IdxSteering, tt.rising)
			for _, v := range tt.seq {
				u := dynamo.Control{0, 0, 0}
				u[physics.IdxSteering] = v
				m.Observe(nil, u, 0)
			}
			if math.Abs(m.Value()-tt.want) > 1e-12 {
				t.Errorf("expected %f, got %f", tt.want, m.Value())
			}
		})
	}
}

func TestHoldCompliance(t *testing.T) {
	m := NewHoldCompliance(constRef(0), 700, 0.1)
	m.Observe(state(0, 0), dynamo.Control{0, 700, 0}, 0)
	m.Observe(state(0, 0), dynamo.Control{0, 680, 0}, 0)
	m.Observe(state(5, 0), dynamo.Control{0, 0, 0}, 0)

	if m.Value() != 0.5 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}
}
