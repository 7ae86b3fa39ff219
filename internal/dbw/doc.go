// Package dbw implements the per-cycle drive-by-wire twist controller.
//
// A [Controller] turns a target linear/angular velocity and the measured
// vehicle state into throttle, brake and steering commands. Each call to
// [Controller.Control] runs one cycle:
//
//   - the measured speed is smoothed by a low-pass filter
//   - the yaw-rate error is corrected by a PID and converted to a steering
//     angle, then rate limited
//   - throttle and brake are shaped from the kinetic-energy error, rate
//     limited, with a full-stop hold and deceleration braking
//
// When drive-by-wire is disengaged the controller emits neutral output and
// clears the steering PID so that no stale history carries into the next
// engagement.
//
// # Thread Safety
//
// A Controller is owned by a single control loop and is NOT thread-safe.
package dbw
