// Package control provides the feedback primitives used by the drive-by-wire
// controller:
//
//   - [PID]: Proportional-Integral-Derivative controller with a clamped output
//   - [LowPass]: first-order low-pass filter for noisy measurements
//   - [YawController]: bicycle-model conversion from yaw rate to steering angle
//
// # Usage
//
//	pid := control.NewPID(1.2, 0.0, 1.4, -8, 8) // Kp, Ki, Kd, min, max
//	lpf := control.NewLowPass(0.05, 0.02)       // tau, ts
//	yaw := control.NewYawController(2.85, 14.8, 0.1, 3, 8)
//
// None of the types are safe for concurrent use; each is owned by a single
// control loop.
package control
