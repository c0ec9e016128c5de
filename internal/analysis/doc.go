// Package analysis inspects recorded runs.
//
//   - [Responses]: per-session step response (overshoot, settling time)
//   - [DominantFrequency]: strongest oscillation in a session's error
//   - [ErrorPhase]: error against error rate, for spotting limit cycles
//
// Sessions are split by [drive.Tick.Run], so each rotation, drive or
// parallelize is analysed on its own.
package analysis
