package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/san-kum/dbwsim/internal/canbus"
	"github.com/san-kum/dbwsim/internal/dbw"
	"github.com/san-kum/dbwsim/internal/dynamo"
	"github.com/san-kum/dbwsim/internal/experiment"
	"github.com/san-kum/dbwsim/internal/logging"
)

// OverrunFactor is how late a tick may arrive, in periods, before it is
// reported as an overrun.
const OverrunFactor = 1.5

type Snapshot struct {
	Time    float64
	State   dynamo.State
	Inputs  dbw.Inputs
	Outputs dbw.Outputs
}

type Stats struct {
	Cycles   int
	Overruns int
	MaxGap   time.Duration
	SimTime  float64
}

// Loop drives the controller and plant from wall-clock ticks and publishes
// every cycle's commands on the bus.
type Loop struct {
	plant  dynamo.System
	integ  dynamo.Integrator
	driver *experiment.Driver
	pub    *canbus.Publisher
	log    *logging.Logger
	period time.Duration
	clock  func() time.Time

	mu       sync.Mutex
	x        dynamo.State
	start    time.Time
	lastTick time.Time
	stats    Stats
	snap     Snapshot
	err      error
}

func New(plant dynamo.System, integ dynamo.Integrator, driver *experiment.Driver, pub *canbus.Publisher, period time.Duration, log *logging.Logger) *Loop {
	if log == nil {
		log = logging.Discard()
	}
	return &Loop{
		plant:  plant,
		integ:  integ,
		driver: driver,
		pub:    pub,
		log:    log,
		period: period,
		clock:  time.Now,
	}
}

// Run ticks until ctx is done or duration has elapsed. A zero duration runs
// until ctx is canceled. Cancellation is not an error.
func (l *Loop) Run(ctx context.Context, x0 dynamo.State, duration time.Duration) (Stats, error) {
	if l.period <= 0 {
		return Stats{}, fmt.Errorf("%w: period must be positive", dynamo.ErrInvalidConfig)
	}
	if len(x0) != l.plant.StateDim() {
		return Stats{}, fmt.Errorf("%w: state has %d entries, system expects %d", dynamo.ErrDimensionMismatch, len(x0), l.plant.StateDim())
	}

	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	l.mu.Lock()
	l.x = x0.Clone()
	l.start = time.Time{}
	l.stats = Stats{}
	l.err = nil
	l.mu.Unlock()

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if _, err := s.Every(l.period).Do(func() {
		if err := l.tick(ctx); err != nil {
			stop()
		}
	}); err != nil {
		return Stats{}, fmt.Errorf("schedule control loop: %w", err)
	}

	l.log.Info("control loop started (period %s)", l.period)
	s.StartAsync()
	<-ctx.Done()
	s.Stop()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.log.Info("control loop stopped after %d cycles, %d overruns", l.stats.Cycles, l.stats.Overruns)
	return l.stats, l.err
}

func (l *Loop) tick(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	dt := l.period.Seconds()
	if l.start.IsZero() {
		l.start = now
	} else {
		gap := now.Sub(l.lastTick)
		if gap > l.stats.MaxGap {
			l.stats.MaxGap = gap
		}
		if float64(gap) > OverrunFactor*float64(l.period) {
			l.stats.Overruns++
			l.log.Warn("cycle overrun: %s since last tick, period %s", gap, l.period)
		}
		dt = gap.Seconds()
	}
	l.lastTick = now
	t := now.Sub(l.start).Seconds()

	u := l.driver.Compute(l.x, t)
	in, out := l.driver.LastInputs(), l.driver.LastOutputs()

	if err := l.pub.Publish(ctx, out, in.Enabled); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		l.err = err
		l.log.Error("publish: %v", err)
		return err
	}

	next := l.integ.Step(l.plant, l.x, u, t, dt)
	if c, ok := l.plant.(dynamo.Constrained); ok {
		next = c.Constrain(next)
	}
	if !next.IsValid() {
		l.err = &dynamo.SimulationError{Step: l.stats.Cycles, Time: t, State: next, Wrapped: dynamo.ErrInvalidState}
		l.log.Critical("plant diverged at t=%.3f", t)
		return l.err
	}

	l.x = next
	l.stats.Cycles++
	l.stats.SimTime = t
	l.snap = Snapshot{Time: t, State: next.Clone(), Inputs: in, Outputs: out}
	return nil
}

// Snapshot returns the most recent completed cycle.
func (l *Loop) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snap
}
