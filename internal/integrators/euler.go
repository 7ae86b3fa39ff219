package integrators

import "github.com/san-kum/dbwsim/internal/dynamo"

// Euler is first order and only kept as a cheap baseline for comparing
// against RK4 at the control rate.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	result := make(dynamo.State, len(x))
	axpy(result, x, dyn.Derive(x, u, t), dt)
	return result
}

// axpy writes x + h*k into dst.
func axpy(dst, x, k dynamo.State, h float64) {
	for i := range x {
		dst[i] = x[i] + h*k[i]
	}
}
