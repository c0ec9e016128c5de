package metrics

import (
	"github.com/san-kum/autodrive/internal/drive"
)

// Energy is the mean squared motor power over both sides, a stand-in for
// battery draw.
type Energy struct {
	name    string
	total   float64
	samples int
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(t drive.Tick) {
	l, r := clamp(t.Left), clamp(t.Right)
	e.total += (l*l + r*r) / 2
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *Energy) Reset() {
	e.total = 0
	e.samples = 0
}

// clamp mirrors the motor, which saturates at full power.
func clamp(p float64) float64 {
	switch {
	case p > 1:
		return 1
	case p < -1:
		return -1
	}
	return p
}
