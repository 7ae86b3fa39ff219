package metrics

import (
	"math"

	"github.com/san-kum/dbwsim/internal/dynamo"
)

// MaxRate records the largest per-cycle change of one control channel.
// With rising set, only increases count.
type MaxRate struct {
	name    string
	channel int
	rising  bool
	prev    float64
	primed  bool
	max     float64
}

func NewMaxRate(name string, channel int, rising bool) *MaxRate {
	return &MaxRate{name: name, channel: channel, rising: rising}
}

func (m *MaxRate) Name() string { return m.name }

func (m *MaxRate) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if m.channel >= len(u) {
		return
	}
	v := u[m.channel]
	if m.primed {
		d := v - m.prev
		if !m.rising {
			d = math.Abs(d)
		}
		m.max = math.Max(m.max, d)
	}
	m.prev = v
	m.primed = true
}

func (m *MaxRate) Value() float64 { return m.max }

func (m *MaxRate) Reset() {
	m.prev = 0
	m.primed = false
	m.max = 0
}
