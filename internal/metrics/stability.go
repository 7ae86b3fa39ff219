package metrics

import (
	"math"

	"github.com/san-kum/dbwsim/internal/dynamo"
	"github.com/san-kum/dbwsim/internal/physics"
)

// Stability is the fraction of samples whose lateral acceleration stays
// within the threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(maxLatAccel float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: maxLatAccel,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(x dynamo.State, u dynamo.Control, t float64) {
	s.samples++
	latAccel := x[physics.IdxSpeed] * x[physics.IdxYawRate]
	if math.Abs(latAccel) > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
