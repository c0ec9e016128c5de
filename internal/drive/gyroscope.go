package drive

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/san-kum/autodrive/internal/control"
	"github.com/san-kum/autodrive/internal/hardware"
	"github.com/san-kum/autodrive/internal/terminator"
)

// Side picks the light sensor used by DriveUntilLine.
type Side int

const (
	Leading Side = iota
	Trailing
)

func (s Side) String() string {
	switch s {
	case Leading:
		return "leading"
	case Trailing:
		return "trailing"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

func ParseSide(s string) (Side, error) {
	switch strings.ToLower(s) {
	case "leading":
		return Leading, nil
	case "trailing":
		return Trailing, nil
	}
	return 0, errors.Errorf("drive: unknown side %q", s)
}

// GyroscopeDrive holds a heading with the gyro while driving straight,
// rotates in place, and drives until a light sensor crosses a line.
type GyroscopeDrive struct {
	loop     *Loop
	gyro     hardware.HeadingSensor
	leading  hardware.LightSensor
	trailing hardware.LightSensor
	cfg      GyroscopeConfig
}

func NewGyroscopeDrive(loop *Loop, gyro hardware.HeadingSensor, leading, trailing hardware.LightSensor, cfg GyroscopeConfig) *GyroscopeDrive {
	if cfg.CountsPerInch <= 0 {
		cfg.CountsPerInch = CountsPerInch
	}
	return &GyroscopeDrive{
		loop:     loop,
		gyro:     gyro,
		leading:  leading,
		trailing: trailing,
		cfg:      cfg,
	}
}

// Reading is the current heading in degrees.
func (g *GyroscopeDrive) Reading() float64 {
	return g.gyro.Heading()
}

func (g *GyroscopeDrive) Config() GyroscopeConfig { return g.cfg }

// Drive goes straight for inches at power while holding heading zero.
func (g *GyroscopeDrive) Drive(ctx context.Context, power, inches float64) error {
	return g.DriveHeading(ctx, power, inches, 0)
}

// DriveHeading goes straight for inches at power while holding heading.
func (g *GyroscopeDrive) DriveHeading(ctx context.Context, power, inches, heading float64) error {
	logger := g.loop.Logger()
	if inches <= 0 {
		logger.Errorw("invalid distance", "inches", inches)
	}
	if err := g.loop.ResetEncoders(ctx); err != nil {
		return err
	}

	ticks := inches * g.cfg.CountsPerInch
	start := g.loop.EncoderAverage()
	reached := terminator.Func(func() bool {
		return math.Abs(float64(g.loop.EncoderAverage()-start)) >= ticks
	})
	term := terminator.Or(reached, terminator.NewTimer(g.loop.Clock(), g.cfg.DriveTimeout))

	logger.Infow("drive", "power", power, "inches", inches, "heading", heading)
	return g.loop.Control(ctx, control.NewPID(g.cfg.PID, heading), heading, power, g.Reading, term)
}

// Rotate turns in place by degrees relative to the current heading, then
// re-zeroes the heading so consecutive rotations compose.
func (g *GyroscopeDrive) Rotate(ctx context.Context, degrees float64) error {
	target := g.gyro.Heading() + degrees
	settle := g.cfg.Rotate
	term := terminator.Or(
		terminator.NewSensitivity(g.loop.Clock(), g.Reading, target, settle.Tolerance, settle.Stable),
		terminator.NewTimer(g.loop.Clock(), settle.Timeout),
	)

	g.loop.Logger().Infow("rotate", "degrees", degrees, "target", target)
	if err := g.loop.Control(ctx, control.NewPID(g.cfg.PID, target), target, 0, g.Reading, term); err != nil {
		return err
	}
	return g.ResetOrientation(ctx)
}

// ResetOrientation zeroes the heading and waits, for at most the configured
// reset timeout, until the sensor reports it.
func (g *GyroscopeDrive) ResetOrientation(ctx context.Context) error {
	g.gyro.ZeroHeading()
	timer := terminator.NewTimer(g.loop.Clock(), g.cfg.ResetTimeout)
	for math.Abs(math.Round(g.gyro.Heading())) > 1 {
		if timer.ShouldTerminate() {
			g.loop.Logger().Warnw("heading did not zero", "heading", g.gyro.Heading())
			return nil
		}
		if err := g.loop.Pacer().Wait(ctx, encoderResetPoll); err != nil {
			return err
		}
	}
	return nil
}

// DriveUntilLine drives straight at power until the light sensor on side
// crosses a line and offset more inches have been covered past it. The line
// is only looked for once minInches have been covered; the run aborts after
// maxInches when maxInches is positive.
func (g *GyroscopeDrive) DriveUntilLine(ctx context.Context, power float64, side Side, offset, minInches, maxInches float64) error {
	logger := g.loop.Logger()
	if offset < 0 || minInches < 0 || maxInches < 0 || (maxInches > 0 && maxInches < minInches) {
		logger.Errorw("invalid distances", "offset", offset, "min", minInches, "max", maxInches)
	}
	if err := g.loop.ResetEncoders(ctx); err != nil {
		return err
	}

	light := g.leading
	if side == Trailing {
		light = g.trailing
	}

	cpi := g.cfg.CountsPerInch
	start := g.loop.EncoderAverage()
	traveled := func() float64 {
		return math.Abs(float64(g.loop.EncoderAverage() - start))
	}

	maxReached := terminator.Func(func() bool {
		return maxInches > 0 && traveled() >= maxInches*cpi
	})
	minReached := terminator.Func(func() bool {
		return minInches <= 0 || traveled() >= minInches*cpi
	})
	line := &lineWatch{
		light:     light,
		threshold: g.cfg.LineThreshold,
		position:  traveled,
		armAt:     minInches * cpi,
		offset:    offset * cpi,
		logger:    logger,
	}
	defer light.SetIlluminator(false)

	term := terminator.Or(
		terminator.Or(maxReached, terminator.And(line, minReached)),
		terminator.NewTimer(g.loop.Clock(), g.cfg.LineTimeout),
	)

	logger.Infow("drive until line", "power", power, "side", side, "offset", offset, "min", minInches, "max", maxInches)
	err := g.loop.Control(ctx, control.NewPID(g.cfg.PID, 0), 0, power, g.Reading, term)
	if line.crossed {
		logger.Infow("line crossed", "inches", line.crossedAt/cpi)
	} else {
		logger.Infow("no line crossed", "inches", traveled()/cpi)
	}
	return err
}

// lineWatch switches the illuminator on once the minimum distance is covered
// and reads from the next tick on. It records the first crossing, then switches the illuminator off and reports
// true once offset more counts have been covered.
type lineWatch struct {
	light     hardware.LightSensor
	threshold float64
	position  func() float64
	armAt     float64
	offset    float64
	logger    *zap.SugaredLogger

	lit       bool
	crossed   bool
	crossedAt float64
}

func (w *lineWatch) ShouldTerminate() bool {
	pos := w.position()
	if !w.crossed {
		if pos < w.armAt {
			return false
		}
		if !w.lit {
			w.light.SetIlluminator(true)
			w.lit = true
			return false
		}
		intensity := w.light.Intensity()
		w.logger.Debugw("light", "intensity", intensity, "position", pos)
		if intensity <= w.threshold {
			return false
		}
		w.crossed = true
		w.crossedAt = pos
		w.light.SetIlluminator(false)
		w.lit = false
	}
	return pos-w.crossedAt >= w.offset
}
