package control

import (
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// ErrInvalidGains is returned by PIDConfig.Validate.
var ErrInvalidGains = errors.New("control: invalid pid configuration")

// PIDConfig holds the tunings of a PID. A config is a value; every run builds
// its own PID from it so no integral or derivative history leaks between runs.
type PIDConfig struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`

	// Delay is the minimum time between two Update calls.
	Delay time.Duration `yaml:"delay"`

	// IntegralRange clamps the accumulator to [-IntegralRange, IntegralRange].
	// Zero disables the clamp.
	IntegralRange float64 `yaml:"integral_range"`

	// IntegralReset zeroes the accumulator when the error is within
	// IntegralDeadband of zero. With a zero deadband the accumulator is
	// zeroed when the error reaches or crosses zero.
	IntegralReset    bool    `yaml:"integral_reset"`
	IntegralDeadband float64 `yaml:"integral_deadband"`

	// OutputRange clamps the correction to [-OutputRange, OutputRange].
	// Zero disables the clamp.
	OutputRange float64 `yaml:"output_range"`
}

// Validate reports every problem with the config at once.
func (c PIDConfig) Validate() error {
	var err error
	for name, v := range map[string]float64{
		"kp": c.Kp, "ki": c.Ki, "kd": c.Kd,
		"integral_range": c.IntegralRange, "integral_deadband": c.IntegralDeadband, "output_range": c.OutputRange,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			err = multierr.Append(err, errors.Wrapf(ErrInvalidGains, "%s is not finite", name))
		}
	}
	if c.Delay < 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidGains, "delay must not be negative, got %v", c.Delay))
	}
	if c.IntegralRange < 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidGains, "integral_range must not be negative, got %v", c.IntegralRange))
	}
	if c.IntegralDeadband < 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidGains, "integral_deadband must not be negative, got %v", c.IntegralDeadband))
	}
	if c.OutputRange < 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidGains, "output_range must not be negative, got %v", c.OutputRange))
	}
	return err
}

// GetParams returns tunable parameters for live adjustment
func (c *PIDConfig) GetParams() map[string]float64 {
	return map[string]float64{
		"kp":             c.Kp,
		"ki":             c.Ki,
		"kd":             c.Kd,
		"integral_range": c.IntegralRange,
		"output_range":   c.OutputRange,
	}
}

// SetParam adjusts a PID parameter
func (c *PIDConfig) SetParam(name string, value float64) error {
	switch name {
	case "kp":
		c.Kp = value
	case "ki":
		c.Ki = value
	case "kd":
		c.Kd = value
	case "integral_range":
		c.IntegralRange = value
	case "output_range":
		c.OutputRange = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}

// PID is a stateful proportional-integral-derivative calculator. It performs
// no I/O and never blocks.
type PID struct {
	cfg    PIDConfig
	target float64

	proportional float64
	integral     float64
	derivative   float64
	prevErr      float64
	first        bool
}

// NewPID returns a reset controller aimed at target.
func NewPID(cfg PIDConfig, target float64) *PID {
	p := &PID{cfg: cfg}
	p.Reset()
	p.SetTarget(target)
	return p
}

// Reset zeroes the running state; the next Update has no derivative history.
func (p *PID) Reset() {
	p.proportional = 0
	p.integral = 0
	p.derivative = 0
	p.prevErr = 0
	p.first = true
}

// SetTarget sets the setpoint for subsequent updates.
func (p *PID) SetTarget(target float64) {
	p.target = target
}

// Target returns the current setpoint.
func (p *PID) Target() float64 { return p.target }

// Config returns the tunings the controller was built with.
func (p *PID) Config() PIDConfig { return p.cfg }

// SampleDelay is the pacing the tick loop must respect between updates.
func (p *PID) SampleDelay() time.Duration { return p.cfg.Delay }

// Update returns the clamped correction for reading.
func (p *PID) Update(reading float64) float64 {
	err := p.target - reading

	p.proportional = err

	if p.cfg.IntegralReset && p.nearZero(err) {
		p.integral = 0
	} else {
		p.integral += err
		if r := p.cfg.IntegralRange; r > 0 {
			p.integral = clamp(p.integral, r)
		}
	}

	if p.first {
		p.derivative = 0
		p.first = false
	} else {
		p.derivative = err - p.prevErr
	}
	p.prevErr = err

	out := p.cfg.Kp*p.proportional + p.cfg.Ki*p.integral + p.cfg.Kd*p.derivative
	if r := p.cfg.OutputRange; r > 0 {
		out = clamp(out, r)
	}
	return out
}

func (p *PID) nearZero(err float64) bool {
	if p.cfg.IntegralDeadband > 0 {
		return math.Abs(err) <= p.cfg.IntegralDeadband
	}
	if err == 0 {
		return true
	}
	return !p.first && err*p.prevErr < 0
}

// Proportional returns the last proportional term (unweighted).
func (p *PID) Proportional() float64 { return p.proportional }

// Integral returns the current integral accumulator (unweighted).
func (p *PID) Integral() float64 { return p.integral }

// Derivative returns the last derivative term (unweighted).
func (p *PID) Derivative() float64 { return p.derivative }

func clamp(v, r float64) float64 {
	if v > r {
		return r
	}
	if v < -r {
		return -r
	}
	return v
}
