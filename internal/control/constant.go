package control

import "time"

// Constant is an open-loop corrector: it ignores the reading and always
// returns the same correction. Encoder drives use it to run the tick loop
// without feedback.
type Constant struct {
	correction float64
	delay      time.Duration
	target     float64
	last       float64
}

func NewConstant(correction float64, delay time.Duration) *Constant {
	return &Constant{
		correction: correction,
		delay:      delay,
	}
}

func (c *Constant) Reset()                     { c.last = 0 }
func (c *Constant) SetTarget(target float64)   { c.target = target }
func (c *Constant) SampleDelay() time.Duration { return c.delay }

func (c *Constant) Update(reading float64) float64 {
	c.last = c.correction
	return c.correction
}

func (c *Constant) Proportional() float64 { return c.last }
func (c *Constant) Integral() float64     { return 0 }
func (c *Constant) Derivative() float64   { return 0 }
