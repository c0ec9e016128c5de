package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/autodrive/internal/dynamo"
)

// Indices into a Westcoast state vector.
const (
	IdxX = iota
	IdxY
	IdxHeading
	IdxVLeft
	IdxVRight
	IdxSLeft
	IdxSRight
)

// Westcoast is a skid-steer chassis with one motor per side. Each side's
// speed follows power*MaxSpeed with a first-order lag; powers inside the
// deadband do not overcome static friction.
type Westcoast struct {
	TrackWidth float64 `yaml:"track_width"` // inches between wheel contact lines
	MaxSpeed   float64 `yaml:"max_speed"`   // inches per second at full power
	MotorLag   float64 `yaml:"motor_lag"`   // seconds
	Deadband   float64 `yaml:"deadband"`    // |power| below this leaves the wheel stopped
}

func NewWestcoast() *Westcoast {
	return &Westcoast{
		TrackWidth: 15,
		MaxSpeed:   40,
		MotorLag:   0.05,
		Deadband:   0.01,
	}
}

func (w *Westcoast) StateDim() int   { return 7 }
func (w *Westcoast) ControlDim() int { return 2 }

// Pose is a position and heading on the field.
type Pose struct {
	X       float64 `yaml:"x" json:"x"`
	Y       float64 `yaml:"y" json:"y"`
	Heading float64 `yaml:"heading" json:"heading"`
}

func (w *Westcoast) InitialState(p Pose) dynamo.State {
	x := make(dynamo.State, w.StateDim())
	x[IdxX], x[IdxY], x[IdxHeading] = p.X, p.Y, p.Heading
	return x
}

func PoseOf(x dynamo.State) Pose {
	return Pose{X: x[IdxX], Y: x[IdxY], Heading: x[IdxHeading]}
}

func (w *Westcoast) target(power float64) float64 {
	power = math.Max(-1, math.Min(1, power))
	if math.Abs(power) < w.Deadband {
		return 0
	}
	return power * w.MaxSpeed
}

func (w *Westcoast) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	theta, vl, vr := x[IdxHeading], x[IdxVLeft], x[IdxVRight]

	powerL, powerR := 0.0, 0.0
	if len(u) >= 2 {
		powerL, powerR = u[0], u[1]
	}

	lag := math.Max(w.MotorLag, 1e-6)
	al := (w.target(powerL) - vl) / lag
	ar := (w.target(powerR) - vr) / lag

	v := (vl + vr) / 2
	sin, cos := math.Sin(theta), math.Cos(theta)

	dx := make(dynamo.State, w.StateDim())
	dx[IdxX] = v * cos
	dx[IdxY] = v * sin
	dx[IdxHeading] = (vr - vl) / w.TrackWidth
	dx[IdxVLeft] = al
	dx[IdxVRight] = ar
	dx[IdxSLeft] = vl
	dx[IdxSRight] = vr
	return dx
}

// Local converts a point given in the robot frame (X forward, Y left) to
// field coordinates.
func (p Pose) Local(forward, left float64) Point {
	sin, cos := math.Sin(p.Heading), math.Cos(p.Heading)
	return Point{
		X: p.X + forward*cos - left*sin,
		Y: p.Y + forward*sin + left*cos,
	}
}

func (w *Westcoast) GetParams() map[string]float64 {
	return map[string]float64{
		"track_width": w.TrackWidth,
		"max_speed":   w.MaxSpeed,
		"motor_lag":   w.MotorLag,
		"deadband":    w.Deadband,
	}
}

func (w *Westcoast) SetParam(name string, value float64) error {
	switch name {
	case "track_width":
		if value <= 0 {
			return fmt.Errorf("%w: track_width must be positive", dynamo.ErrParameterBounds)
		}
		w.TrackWidth = value
	case "max_speed":
		w.MaxSpeed = value
	case "motor_lag":
		w.MotorLag = value
	case "deadband":
		w.Deadband = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
