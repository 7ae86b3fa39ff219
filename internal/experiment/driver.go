package experiment

import (
	"math/rand"

	"github.com/san-kum/dbwsim/internal/dbw"
	"github.com/san-kum/dbwsim/internal/dynamo"
	"github.com/san-kum/dbwsim/internal/physics"
)

// Driver closes the loop: it samples the plant like the vehicle's sensors
// would, feeds the drive-by-wire controller and returns its commands as the
// plant control vector.
type Driver struct {
	ctrl     *dbw.Controller
	scenario Scenario
	noise    float64
	rng      *rand.Rand
	override bool

	lastIn  dbw.Inputs
	lastOut dbw.Outputs
}

func NewDriver(ctrl *dbw.Controller, scenario Scenario, noise float64, seed int64) *Driver {
	return &Driver{
		ctrl:     ctrl,
		scenario: scenario,
		noise:    noise,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Inputs samples the plant at time t.
func (d *Driver) Inputs(x dynamo.State, t float64) dbw.Inputs {
	tgt := d.scenario.Profile(t)
	speed := x[physics.IdxSpeed]
	if d.noise > 0 {
		speed += d.rng.NormFloat64() * d.noise
	}
	return dbw.Inputs{
		LinearVel:         tgt.Linear,
		AngularVel:        tgt.Angular,
		CurrentVel:        speed,
		CurrentAngularVel: x[physics.IdxYawRate],
		Enabled:           tgt.Enabled && !d.override,
		CTE:               x[physics.IdxY],
	}
}

func (d *Driver) Compute(x dynamo.State, t float64) dynamo.Control {
	in := d.Inputs(x, t)
	out := d.ctrl.Control(in, t)
	d.lastIn, d.lastOut = in, out

	u := make(dynamo.Control, 3)
	u[physics.IdxThrottle] = out.Throttle
	u[physics.IdxBrake] = out.Brake
	u[physics.IdxSteering] = out.Steering
	return u
}

// SetOverride simulates the safety driver taking over.
func (d *Driver) SetOverride(on bool) { d.override = on }
func (d *Driver) Override() bool      { return d.override }

func (d *Driver) Controller() *dbw.Controller { return d.ctrl }
func (d *Driver) Scenario() Scenario          { return d.scenario }
func (d *Driver) LastInputs() dbw.Inputs      { return d.lastIn }
func (d *Driver) LastOutputs() dbw.Outputs    { return d.lastOut }
