package sim

import (
	"math"
	"strings"

	"go.uber.org/atomic"

	"github.com/san-kum/autodrive/internal/hardware"
)

// Sensor placement in the robot frame, in inches. The range, light and
// colour sensors all sit on the left side, SensorSide from the centre line;
// the leading and trailing ones are SensorSpan ahead of and behind centre.
const (
	SensorSide = 7.0
	SensorSpan = 6.0
)

// Light sensor readings.
const (
	IntensityAmbient = 0.1 // illuminator off
	IntensityFloor   = 0.2
	IntensityTape    = 0.6
)

// Colour sensor counts.
const (
	ambientRed  = 3
	ambientBlue = 2
	beaconGlow  = 12
)

// Motor is one side of the drive train. Its encoder counts wheel travel.
type Motor struct {
	robot  *Robot
	side   int
	offset atomic.Float64
}

var _ hardware.Motor = (*Motor)(nil)

func (m *Motor) SetPower(p float64) { m.robot.setPower(m.side, p) }
func (m *Motor) Power() float64     { return m.robot.getPower(m.side) }

func (m *Motor) Position() int {
	return int((m.robot.travel(m.side) - m.offset.Load()) * m.robot.cfg.CountsPerInch)
}

func (m *Motor) ResetEncoder() { m.offset.Store(m.robot.travel(m.side)) }

// Gyro reports the heading in degrees, counter-clockwise positive, as of its
// last publish. ZeroHeading takes effect at the next publish.
type Gyro struct {
	robot  *Robot
	cell   *hardware.Cell
	zero   atomic.Bool
	offset float64
}

var _ hardware.HeadingSensor = (*Gyro)(nil)

func newGyro(r *Robot) *Gyro {
	g := &Gyro{robot: r, cell: hardware.NewCell(r.clk)}
	g.zero.Store(true)
	g.publish()
	return g
}

func (g *Gyro) publish() {
	raw := g.robot.Pose().Heading * 180 / math.Pi
	if g.zero.CompareAndSwap(true, false) {
		g.offset = raw
	}
	g.cell.Store(raw - g.offset)
}

func (g *Gyro) Heading() float64 { return g.cell.Value() }
func (g *Gyro) ZeroHeading()     { g.zero.Store(true) }

// Cell exposes the published samples, e.g. to check their age.
func (g *Gyro) Cell() *hardware.Cell { return g.cell }

// Ultrasonic measures the distance to the nearest wall off the robot's left
// side.
type Ultrasonic struct {
	robot   *Robot
	forward float64
}

var _ hardware.RangeSensor = (*Ultrasonic)(nil)

func (u *Ultrasonic) Distance() float64 {
	pose := u.robot.Pose()
	origin := pose.Local(u.forward, SensorSide)
	return u.robot.field.RayCast(origin, pose.Heading+math.Pi/2, hardware.NoRange)
}

// Light looks down at the floor and sees tape only while its illuminator is
// on.
type Light struct {
	robot   *Robot
	forward float64
	lit     atomic.Bool
}

var _ hardware.LightSensor = (*Light)(nil)

func (l *Light) SetIlluminator(on bool) { l.lit.Store(on) }
func (l *Light) Illuminated() bool      { return l.lit.Load() }

func (l *Light) Intensity() float64 {
	if !l.lit.Load() {
		return IntensityAmbient
	}
	p := l.robot.Pose().Local(l.forward, SensorSide)
	if l.robot.field.OnTape(p) {
		return IntensityTape
	}
	return IntensityFloor
}

// ColorSensor faces the beacons. Within a panel's range its channel glows on
// top of the ambient counts.
type ColorSensor struct {
	robot *Robot
}

var _ hardware.ColorSensor = (*ColorSensor)(nil)

func (c *ColorSensor) Red() int  { return ambientRed + c.glow("red") }
func (c *ColorSensor) Blue() int { return ambientBlue + c.glow("blue") }

func (c *ColorSensor) glow(color string) int {
	p := c.robot.Pose().Local(0, SensorSide)
	b, ok := c.robot.field.NearestBeacon(p)
	if !ok || !strings.EqualFold(b.Color, color) {
		return 0
	}
	return beaconGlow
}

// Servo records the last commanded position.
type Servo struct {
	position atomic.Float64
}

var _ hardware.Servo = (*Servo)(nil)

func (s *Servo) SetPosition(p float64) { s.position.Store(math.Max(0, math.Min(1, p))) }
func (s *Servo) Position() float64     { return s.position.Load() }
