// Package viz is the live terminal dashboard for the closed loop.
//
// The dashboard steps the controller and plant at the control rate and shows
// pedal and steering gauges, speed and command histories, and a top-down
// trace of the path driven.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	D     - Toggle manual override (disengage the controller)
//	R     - Reset to the initial state
//	+/-   - Change simulation speed
//	T     - Cycle color themes
//	Q     - Quit
package viz
