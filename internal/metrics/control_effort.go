package metrics

import (
	"math"

	"github.com/san-kum/autodrive/internal/drive"
)

// ControlEffort is the mean absolute correction.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(t drive.Tick) {
	c.sum += math.Abs(t.Correction)
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}

// Ticks counts observed ticks.
type Ticks struct {
	n int
}

func NewTicks() *Ticks { return &Ticks{} }

func (t *Ticks) Name() string       { return "ticks" }
func (t *Ticks) Observe(drive.Tick) { t.n++ }
func (t *Ticks) Value() float64     { return float64(t.n) }
func (t *Ticks) Reset()             { t.n = 0 }
