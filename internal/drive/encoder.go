package drive

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/san-kum/autodrive/internal/control"
	"github.com/san-kum/autodrive/internal/terminator"
)

// Direction of an in-place encoder rotation, seen from above.
type Direction int

const (
	Left Direction = iota
	Right
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return 0, errors.Errorf("drive: unknown direction %q", s)
}

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Left {
		return Right
	}
	return Left
}

// EncoderDrive moves by encoder counts alone, without feedback on heading.
type EncoderDrive struct {
	loop *Loop
	cfg  EncoderConfig
}

func NewEncoderDrive(loop *Loop, cfg EncoderConfig) *EncoderDrive {
	if cfg.CountsPerInch <= 0 {
		cfg.CountsPerInch = CountsPerInch
	}
	return &EncoderDrive{loop: loop, cfg: cfg}
}

// Drive runs both sides at power until the average encoder travel reaches
// inches.
func (e *EncoderDrive) Drive(ctx context.Context, power, inches float64) error {
	if err := e.loop.ResetEncoders(ctx); err != nil {
		return err
	}
	ticks := inches * e.cfg.CountsPerInch
	start := e.loop.EncoderAverage()
	traveled := func() float64 {
		return float64(e.loop.EncoderAverage() - start)
	}
	term := terminator.Or(
		terminator.Func(func() bool { return math.Abs(traveled()) >= ticks }),
		terminator.NewTimer(e.loop.Clock(), e.cfg.Timeout),
	)
	e.loop.Logger().Infow("encoder drive", "power", power, "inches", inches)
	return e.loop.Control(ctx, control.NewConstant(0, e.cfg.Period), 0, power, traveled, term)
}

// Rotate spins in place at power toward dir until each side has travelled
// inches on average, measured as half the encoder differential.
func (e *EncoderDrive) Rotate(ctx context.Context, power, inches float64, dir Direction) error {
	if err := e.loop.ResetEncoders(ctx); err != nil {
		return err
	}
	// left = +correction, right = -correction: a positive correction turns right
	correction := math.Abs(power)
	if dir == Left {
		correction = -correction
	}

	ticks := inches * e.cfg.CountsPerInch
	startLeft, startRight := e.loop.left.Position(), e.loop.right.Position()
	differential := func() float64 {
		dl := e.loop.left.Position() - startLeft
		dr := e.loop.right.Position() - startRight
		return float64(dl-dr) / 2
	}
	term := terminator.Or(
		terminator.Func(func() bool { return math.Abs(differential()) >= ticks }),
		terminator.NewTimer(e.loop.Clock(), e.cfg.Timeout),
	)
	e.loop.Logger().Infow("encoder rotate", "power", power, "inches", inches, "direction", dir)
	return e.loop.Control(ctx, control.NewConstant(correction, e.cfg.Period), 0, 0, differential, term)
}
