package control

// LowPass is a first-order exponential filter. The weight given to each new
// sample is ts/(ts+tau), so the cutoff frequency is 1/(2*pi*tau).
type LowPass struct {
	a, b  float64
	last  float64
	ready bool
}

func NewLowPass(tau, ts float64) *LowPass {
	ratio := tau / ts
	return &LowPass{
		a: 1 / (ratio + 1),
		b: ratio / (ratio + 1),
	}
}

// Filter returns the smoothed value. The first sample seeds the filter.
func (f *LowPass) Filter(v float64) float64 {
	if f.ready {
		v = f.a*v + f.b*f.last
	} else {
		f.ready = true
	}
	f.last = v
	return v
}

func (f *LowPass) Value() float64 { return f.last }
func (f *LowPass) Ready() bool    { return f.ready }
func (f *LowPass) Gain() float64  { return f.a }

func (f *LowPass) Reset() {
	f.last = 0
	f.ready = false
}
