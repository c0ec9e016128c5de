package control

import "time"

// Corrector turns a reading into a correction. The drive loop resets it and
// sets the target at the start of every run.
type Corrector interface {
	Reset()
	SetTarget(target float64)
	Update(reading float64) float64
	SampleDelay() time.Duration

	Proportional() float64
	Integral() float64
	Derivative() float64
}

var (
	_ Corrector = (*PID)(nil)
	_ Corrector = (*Constant)(nil)
)
