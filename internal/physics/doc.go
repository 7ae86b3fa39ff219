// Package physics provides the vehicle plant used to close the loop around
// the drive-by-wire controller.
//
// [Vehicle] implements [dynamo.System] with a kinematic bicycle model for
// the lateral motion and a point-mass longitudinal model driven by throttle
// and brake torque. It also implements [dynamo.Configurable] for runtime
// parameter adjustment and [dynamo.Constrained] so that braking never rolls
// the vehicle backwards.
package physics
