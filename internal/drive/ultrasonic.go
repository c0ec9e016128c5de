package drive

import (
	"context"

	"github.com/san-kum/autodrive/internal/control"
	"github.com/san-kum/autodrive/internal/hardware"
	"github.com/san-kum/autodrive/internal/terminator"
)

// UltrasonicDrive squares the robot against a wall by rotating until two
// range sensors along one side read the same distance.
type UltrasonicDrive struct {
	loop     *Loop
	leading  hardware.RangeSensor
	trailing hardware.RangeSensor
	cfg      UltrasonicConfig
}

func NewUltrasonicDrive(loop *Loop, leading, trailing hardware.RangeSensor, cfg UltrasonicConfig) *UltrasonicDrive {
	return &UltrasonicDrive{
		loop:     loop,
		leading:  leading,
		trailing: trailing,
		cfg:      cfg,
	}
}

// Reading is the calibrated difference between the leading and trailing
// distances; zero means parallel.
func (u *UltrasonicDrive) Reading() float64 {
	leading := u.leading.Distance() - u.cfg.LeadingOffset
	trailing := u.trailing.Distance() - u.cfg.TrailingOffset
	return leading - trailing
}

func (u *UltrasonicDrive) Config() UltrasonicConfig { return u.cfg }

// Parallelize rotates in place until the robot is parallel to the wall.
func (u *UltrasonicDrive) Parallelize(ctx context.Context) error {
	settle := u.cfg.Parallelize
	term := terminator.Or(
		terminator.NewSensitivity(u.loop.Clock(), u.Reading, 0, settle.Tolerance, settle.Stable),
		terminator.NewTimer(u.loop.Clock(), settle.Timeout),
	)
	u.loop.Logger().Infow("parallelize", "reading", u.Reading())
	return u.loop.Control(ctx, control.NewPID(u.cfg.PID, 0), 0, 0, u.Reading, term)
}
