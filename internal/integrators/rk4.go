package integrators

import "github.com/san-kum/dbwsim/internal/dynamo"

// RK4 holds the stage buffers between steps. The control input is held
// constant over the step (zero-order hold), matching a sampled controller.
type RK4 struct {
	k       [4]dynamo.State
	scratch dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.scratch) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.scratch = make(dynamo.State, n)
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	r.ensureScratch(n)

	offsets := [4]float64{0, dt / 2, dt / 2, dt}
	for s := 0; s < 4; s++ {
		in := x
		if s > 0 {
			axpy(r.scratch, x, r.k[s-1], offsets[s])
			in = r.scratch
		}
		copy(r.k[s], dyn.Derive(in, u, t+offsets[s]))
	}

	result := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k[0][i]+2*r.k[1][i]+2*r.k[2][i]+r.k[3][i])
	}
	return result
}
