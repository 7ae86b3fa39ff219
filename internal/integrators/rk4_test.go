package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/dbwsim/internal/dbw"
	"github.com/san-kum/dbwsim/internal/dynamo"
	"github.com/san-kum/dbwsim/internal/physics"
)

type simpleDynamics struct{}

func (s *simpleDynamics) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (s *simpleDynamics) StateDim() int   { return 2 }
func (s *simpleDynamics) ControlDim() int { return 0 }

func integrate(integ dynamo.Integrator, dyn dynamo.System, x dynamo.State, u dynamo.Control, dt float64, steps int) dynamo.State {
	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, u, float64(i)*dt, dt)
	}
	return x
}

func TestRK4Accuracy(t *testing.T) {
	x := integrate(NewRK4(), &simpleDynamics{}, dynamo.State{1.0, 0.0}, nil, 0.01, 100)

	if math.Abs(x[0]-math.Cos(1)) > 1e-8 {
		t.Errorf("position error too large: got %.9f, expected %.9f", x[0], math.Cos(1))
	}
	if math.Abs(x[1]+math.Sin(1)) > 1e-8 {
		t.Errorf("velocity error too large: got %.9f, expected %.9f", x[1], -math.Sin(1))
	}
}

func TestEulerFirstOrder(t *testing.T) {
	coarse := integrate(NewEuler(), &simpleDynamics{}, dynamo.State{1.0, 0.0}, nil, 0.01, 100)
	fine := integrate(NewEuler(), &simpleDynamics{}, dynamo.State{1.0, 0.0}, nil, 0.005, 200)

	errCoarse := math.Abs(coarse[0] - math.Cos(1))
	errFine := math.Abs(fine[0] - math.Cos(1))
	if ratio := errCoarse / errFine; ratio < 1.8 || ratio > 2.2 {
		t.Errorf("expected error to halve with dt, ratio %.3f", ratio)
	}
}

func TestRK4VehicleCruise(t *testing.T) {
	v := physics.NewVehicle(dbw.DefaultVehicleParams())
	v.DragCoeff = 0
	v.RollingCoeff = 0

	x := integrate(NewRK4(), v, v.InitialState(10), dynamo.Control{0, 0, 0}, 0.02, 50)
	if math.Abs(x[physics.IdxX]-10) > 1e-9 {
		t.Errorf("expected 10 m travelled, got %f", x[physics.IdxX])
	}
	if math.Abs(x[physics.IdxSpeed]-10) > 1e-12 {
		t.Errorf("speed should be constant, got %f", x[physics.IdxSpeed])
	}
}
