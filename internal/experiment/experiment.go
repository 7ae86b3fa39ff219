package experiment

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/dbwsim/internal/config"
	"github.com/san-kum/dbwsim/internal/dbw"
	"github.com/san-kum/dbwsim/internal/dynamo"
	"github.com/san-kum/dbwsim/internal/logging"
	"github.com/san-kum/dbwsim/internal/physics"
)

type Experiment struct {
	cfg       *config.Config
	scenario  Scenario
	plant     *physics.Vehicle
	driver    *Driver
	simulator *dynamo.Simulator
	log       *logging.Logger
}

func New(cfg *config.Config, log *logging.Logger) *Experiment {
	if log == nil {
		log = logging.Discard()
	}
	return &Experiment{cfg: cfg, log: log}
}

// NewPlant builds the vehicle model described by cfg.
func NewPlant(cfg *config.Config) (*physics.Vehicle, error) {
	plant := physics.NewVehicle(cfg.Vehicle)
	if err := dynamo.ApplyParams(plant, cfg.Plant.Params()); err != nil {
		return nil, fmt.Errorf("plant: %w", err)
	}
	return plant, nil
}

// NewController starts the controller clock one period before t=0 so the
// first cycle sees the nominal timestep.
func NewController(cfg *config.Config, log *logging.Logger) *dbw.Controller {
	ctrl := dbw.New(cfg.Vehicle, cfg.Tuning, -cfg.Dt)
	ctrl.SetLogger(log)
	return ctrl
}

func (e *Experiment) Setup(r *Registry) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	scenario, err := r.GetScenario(e.cfg.Scenario)
	if err != nil {
		return err
	}
	integ, err := r.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return err
	}

	plant, err := NewPlant(e.cfg)
	if err != nil {
		return err
	}

	e.scenario = scenario
	e.plant = plant
	e.driver = NewDriver(NewController(e.cfg, e.log), scenario, e.cfg.Noise, e.cfg.Seed)
	e.simulator = dynamo.New(e.plant, integ, e.driver)

	v := e.cfg.Vehicle
	maxBrake := math.Abs(v.DecelLimit) * v.VehicleMass * v.WheelRadius
	for _, m := range r.DefaultMetrics(scenario, maxBrake, v.MaxLatAccel, e.cfg.Tuning.HoldBrake, e.cfg.Tuning.HoldSpeed) {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Duration() float64 {
	if e.cfg.Duration > 0 {
		return e.cfg.Duration
	}
	return e.scenario.Duration
}

func (e *Experiment) InitialState() dynamo.State {
	speed := e.scenario.InitSpeed
	if e.cfg.InitState.Speed > 0 {
		speed = e.cfg.InitState.Speed
	}
	x := e.plant.InitialState(speed)
	x[physics.IdxHeading] = e.cfg.InitState.Heading
	return x
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	simCfg := dynamo.Config{
		Dt:            e.cfg.Dt,
		Duration:      e.Duration(),
		Seed:          e.cfg.Seed,
		ValidateState: true,
	}

	e.log.Info("running scenario %s for %.1fs (dt=%.3f, integrator=%s)", e.scenario.Name, simCfg.Duration, simCfg.Dt, e.cfg.Integrator)
	result, err := e.simulator.Run(ctx, e.InitialState(), simCfg)
	if err != nil {
		return result, err
	}
	for _, runErr := range result.Errors {
		e.log.Error("scenario %s: %v", e.scenario.Name, runErr)
	}
	return result, nil
}

func (e *Experiment) Config() *config.Config  { return e.cfg }
func (e *Experiment) Scenario() Scenario      { return e.scenario }
func (e *Experiment) Plant() *physics.Vehicle { return e.plant }
func (e *Experiment) Driver() *Driver         { return e.driver }
