// Package control provides the correctors driven by the tick loop.
//
//   - [PID]: proportional-integral-derivative calculator with a clamped
//     integral and a clamped output
//   - [Constant]: open-loop fixed correction
//
// # Usage
//
//	pid := control.NewPID(control.PIDConfig{Kp: -0.02, Delay: 30 * time.Millisecond}, 90)
//	correction := pid.Update(heading)
//
// A PID is built per run from a [PIDConfig]; configs implement GetParams and
// SetParam for tuning.
package control
