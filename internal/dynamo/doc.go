// Package dynamo provides the closed-loop simulation core.
//
// The package defines the interfaces and types used to run a controller
// against a vehicle plant:
//
//   - [State]: vector representing plant state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical integrator interface
//   - [Controller]: feedback controller interface, called once per step
//   - [Simulator]: orchestrates simulation runs
//
// # Example
//
//	dyn := physics.NewVehicle(params)
//	integ := integrators.NewRK4()
//	sim := dynamo.New(dyn, integ, driver)
//	result, _ := sim.Run(ctx, x0, cfg)
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. Controllers are stateful, so each
// concurrent run needs its own Simulator and Controller.
package dynamo
