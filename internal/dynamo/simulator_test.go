package dynamo

import (
	"context"
	"errors"
	"math"
	"testing"
)

type testDynamics struct{}

func (t *testDynamics) Derive(x State, u Control, time float64) State {
	return State{-x[0] + u[0]}
}

func (t *testDynamics) StateDim() int   { return 1 }
func (t *testDynamics) ControlDim() int { return 1 }

type testIntegrator struct{}

func (t *testIntegrator) Step(dyn System, x State, u Control, time float64, dt float64) State {
	dx := dyn.Derive(x, u, time)
	return State{x[0] + dt*dx[0]}
}

type testController struct {
	u     float64
	calls int
}

func (t *testController) Compute(x State, time float64) Control {
	t.calls++
	return Control{t.u}
}

func TestSimulatorRun(t *testing.T) {
	ctrl := &testController{}
	sim := New(&testDynamics{}, &testIntegrator{}, ctrl)

	result, err := sim.Run(context.Background(), State{1.0}, Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.States) != 11 {
		t.Errorf("expected 11 states, got %d", len(result.States))
	}
	if len(result.Controls) != 10 || ctrl.calls != 10 {
		t.Errorf("expected 10 control cycles, got %d/%d", len(result.Controls), ctrl.calls)
	}
	if math.Abs(result.Times[10]-1.0) > 1e-12 {
		t.Errorf("expected final time 1.0, got %f", result.Times[10])
	}

	finalState := result.States[len(result.States)-1][0]
	if math.Abs(finalState-math.Exp(-1.0)) > 0.2 {
		t.Errorf("expected final state ~%.4f, got %.4f", math.Exp(-1.0), finalState)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := New(&testDynamics{}, &testIntegrator{}, &testController{})

	tests := []struct {
		name string
		x0   State
		cfg  Config
		want error
	}{
		{"zero dt", State{1}, Config{Dt: 0, Duration: 1.0}, ErrInvalidConfig},
		{"negative dt", State{1}, Config{Dt: -0.1, Duration: 1.0}, ErrInvalidConfig},
		{"zero duration", State{1}, Config{Dt: 0.1, Duration: 0}, ErrInvalidConfig},
		{"wrong state size", State{1, 2}, Config{Dt: 0.1, Duration: 1}, ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), tt.x0, tt.cfg)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSimulatorInvalidState(t *testing.T) {
	sim := New(&testDynamics{}, &testIntegrator{}, &testController{u: math.Inf(1)})

	result, err := sim.Run(context.Background(), State{1.0}, Config{Dt: 0.1, Duration: 1.0, ValidateState: true})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected one error, got %d", len(result.Errors))
	}

	var simErr *SimulationError
	if !errors.As(result.Errors[0], &simErr) || !errors.Is(simErr, ErrInvalidState) {
		t.Errorf("expected SimulationError wrapping ErrInvalidState, got %v", result.Errors[0])
	}
	if result.StepsTaken != 0 {
		t.Errorf("expected no accepted steps, got %d", result.StepsTaken)
	}
}

func TestSimulatorCanceled(t *testing.T) {
	sim := New(&testDynamics{}, &testIntegrator{}, &testController{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Run(ctx, State{1.0}, Config{Dt: 0.1, Duration: 1.0})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(x State, u Control, time float64) {
	t.count++
	t.sum += x[0]
}
func (t *testMetric) Value() float64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}
func (t *testMetric) Reset() {
	t.count = 0
	t.sum = 0
}

func TestSimulatorMetrics(t *testing.T) {
	sim := New(&testDynamics{}, &testIntegrator{}, &testController{})

	metric := &testMetric{}
	sim.AddMetric(metric)

	result, err := sim.Run(context.Background(), State{1.0}, Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}
	if metric.count != 10 {
		t.Errorf("expected 10 observations, got %d", metric.count)
	}
}

type clampDynamics struct{ testDynamics }

func (c *clampDynamics) Constrain(x State) State {
	if x[0] < 0 {
		x[0] = 0
	}
	return x
}

func TestSimulatorConstrained(t *testing.T) {
	sim := New(&clampDynamics{}, &testIntegrator{}, &testController{u: -50})

	result, err := sim.Run(context.Background(), State{1.0}, Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for i, s := range result.States {
		if s[0] < 0 {
			t.Fatalf("state %d violated constraint: %f", i, s[0])
		}
	}
}

func TestRunWithCallbackStops(t *testing.T) {
	sim := New(&testDynamics{}, &testIntegrator{}, &testController{})

	calls := 0
	err := sim.RunWithCallback(context.Background(), State{1.0}, Config{Dt: 0.1}, func(x State, u Control, time float64) bool {
		calls++
		return calls < 5
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 5 {
		t.Errorf("expected 5 callbacks, got %d", calls)
	}
}
