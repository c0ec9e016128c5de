// Package terminator provides the stop conditions evaluated once per tick by
// the drive loop. A tree is built fresh for every run.
package terminator

import (
	"math"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// ErrUnknownMode is returned by ParseMode.
var ErrUnknownMode = errors.New("terminator: unknown mode")

// Terminator reports whether the current run should stop. It is called
// exactly once per tick.
type Terminator interface {
	ShouldTerminate() bool
}

// Func adapts a closure to a Terminator.
type Func func() bool

func (f Func) ShouldTerminate() bool { return f() }

// Never never terminates. Only useful as a sibling of a bounded terminator.
var Never Terminator = Func(func() bool { return false })

// Timer becomes true once its duration has elapsed since the first time it
// was evaluated.
type Timer struct {
	clk     clock.Clock
	timeout time.Duration
	start   time.Time
	armed   bool
}

func NewTimer(clk clock.Clock, timeout time.Duration) *Timer {
	return &Timer{clk: clk, timeout: timeout}
}

func (t *Timer) ShouldTerminate() bool {
	if !t.armed {
		t.start = t.clk.Now()
		t.armed = true
	}
	return t.clk.Since(t.start) >= t.timeout
}

// Sensitivity becomes true once source has stayed within tolerance of target
// for stable, continuously. An excursion outside the tolerance discards the
// accumulated time.
type Sensitivity struct {
	clk       clock.Clock
	source    func() float64
	target    float64
	tolerance float64
	stable    time.Duration

	inside  time.Duration
	last    time.Time
	wasIn   bool
	started bool
}

func NewSensitivity(clk clock.Clock, source func() float64, target, tolerance float64, stable time.Duration) *Sensitivity {
	return &Sensitivity{
		clk:       clk,
		source:    source,
		target:    target,
		tolerance: tolerance,
		stable:    stable,
	}
}

func (s *Sensitivity) ShouldTerminate() bool {
	now := s.clk.Now()
	in := math.Abs(s.source()-s.target) <= s.tolerance

	switch {
	case !in:
		s.inside = 0
	case s.started && s.wasIn:
		s.inside += now.Sub(s.last)
	}
	s.last = now
	s.wasIn = in
	s.started = true

	return in && s.inside >= s.stable
}

// Stable returns how long the source has continuously been within tolerance.
func (s *Sensitivity) Stable() time.Duration { return s.inside }

// Mode selects how a Conditional combines its children.
type Mode int

const (
	ModeAnd Mode = iota
	ModeOr
)

func (m Mode) String() string {
	switch m {
	case ModeAnd:
		return "and"
	case ModeOr:
		return "or"
	default:
		return "unknown"
	}
}

// ParseMode parses "and" or "or", ignoring case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "and":
		return ModeAnd, nil
	case "or":
		return ModeOr, nil
	}
	return 0, errors.Wrapf(ErrUnknownMode, "%q", s)
}

// Conditional combines two terminators. Both children are evaluated on every
// call, whatever the first one returned, so timing state inside them keeps
// advancing.
type Conditional struct {
	mode        Mode
	left, right Terminator
}

func NewConditional(mode Mode, left, right Terminator) *Conditional {
	return &Conditional{mode: mode, left: left, right: right}
}

func And(left, right Terminator) *Conditional { return NewConditional(ModeAnd, left, right) }
func Or(left, right Terminator) *Conditional  { return NewConditional(ModeOr, left, right) }

func (c *Conditional) ShouldTerminate() bool {
	l := c.left.ShouldTerminate()
	r := c.right.ShouldTerminate()
	if c.mode == ModeAnd {
		return l && r
	}
	return l || r
}
