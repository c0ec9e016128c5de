package hardware

import (
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/atomic"
)

type sample struct {
	value float64
	at    time.Time
}

// Cell holds the last value published by an asynchronous sensor. Writers
// and readers never block each other; a reader sees either the previous or
// the new sample, never a mix.
type Cell struct {
	clk    clock.Clock
	latest atomic.Pointer[sample]
}

func NewCell(clk clock.Clock) *Cell {
	c := &Cell{clk: clk}
	c.latest.Store(&sample{})
	return c
}

// Store publishes v stamped with the current time.
func (c *Cell) Store(v float64) {
	c.latest.Store(&sample{value: v, at: c.clk.Now()})
}

// Load returns the last published value and when it was published. The
// zero time means nothing has been published.
func (c *Cell) Load() (float64, time.Time) {
	s := c.latest.Load()
	return s.value, s.at
}

// Value returns the last published value.
func (c *Cell) Value() float64 {
	return c.latest.Load().value
}

// Age returns how stale the last value is at now.
func (c *Cell) Age(now time.Time) time.Duration {
	return now.Sub(c.latest.Load().at)
}
