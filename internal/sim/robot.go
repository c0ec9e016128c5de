package sim

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/san-kum/autodrive/internal/drive"
	"github.com/san-kum/autodrive/internal/dynamo"
	"github.com/san-kum/autodrive/internal/hardware"
	"github.com/san-kum/autodrive/internal/integrators"
	"github.com/san-kum/autodrive/internal/logging"
	"github.com/san-kum/autodrive/internal/physics"
)

// ErrInvalidConfig is returned by NewRobot for unusable configs.
var ErrInvalidConfig = errors.New("sim: invalid config")

// Start is where the robot begins. Heading is in degrees, counter-clockwise
// from the field's +X axis.
type Start struct {
	X       float64 `yaml:"x" json:"x"`
	Y       float64 `yaml:"y" json:"y"`
	Heading float64 `yaml:"heading" json:"heading"`
}

func (s Start) Pose() physics.Pose {
	return physics.Pose{X: s.X, Y: s.Y, Heading: s.Heading * math.Pi / 180}
}

type Config struct {
	// Step is the physics integration step.
	Step time.Duration `yaml:"step"`
	// GyroInterval is how often the gyro publishes a new heading. Zero
	// publishes after every step.
	GyroInterval time.Duration `yaml:"gyro_interval"`
	// RealTime slows Wait down to wall-clock time divided by this factor.
	// Zero runs as fast as possible.
	RealTime      float64           `yaml:"real_time"`
	Integrator    string            `yaml:"integrator"`
	CountsPerInch float64           `yaml:"counts_per_inch"`
	Chassis       physics.Westcoast `yaml:"chassis"`
	Start         Start             `yaml:"start"`
	Field         physics.Field     `yaml:"field"`
}

func DefaultConfig() Config {
	return Config{
		Step:          5 * time.Millisecond,
		GyroInterval:  10 * time.Millisecond,
		Integrator:    "rk4",
		CountsPerInch: drive.CountsPerInch,
		Chassis:       *physics.NewWestcoast(),
		Start:         Start{X: 13, Y: 130},
		Field:         physics.DefaultField(),
	}
}

func (c Config) Validate() error {
	var err error
	if c.Step <= 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfig, "step must be positive, got %v", c.Step))
	}
	if c.GyroInterval < 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfig, "gyro_interval must not be negative, got %v", c.GyroInterval))
	}
	if c.RealTime < 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfig, "real_time must not be negative, got %v", c.RealTime))
	}
	if c.CountsPerInch <= 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfig, "counts_per_inch must be positive, got %v", c.CountsPerInch))
	}
	if c.Chassis.TrackWidth <= 0 || c.Chassis.MaxSpeed <= 0 {
		err = multierr.Append(err, errors.Wrap(ErrInvalidConfig, "chassis track_width and max_speed must be positive"))
	}
	if _, ierr := integrators.New(c.Integrator); ierr != nil {
		err = multierr.Append(err, errors.Wrap(ErrInvalidConfig, ierr.Error()))
	}
	if c.Field.Width > 0 && !c.Field.Contains(physics.Point{X: c.Start.X, Y: c.Start.Y}) {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfig, "start (%.1f, %.1f) is outside the field", c.Start.X, c.Start.Y))
	}
	return err
}

// Robot is a simulated westcoast robot on a field. Simulated time only moves
// inside Wait, so a drive.Loop paced by the Robot runs deterministically and
// as fast as the host allows.
type Robot struct {
	cfg    Config
	clk    *clock.Mock
	wall   clock.Clock
	model  *physics.Westcoast
	integ  dynamo.Integrator
	field  physics.Field
	logger *zap.SugaredLogger

	mu        sync.Mutex
	x         dynamo.State
	power     [2]float64
	elapsed   time.Duration
	steps     int
	sinceGyro time.Duration
	offField  bool
	err       error

	left, right                 *Motor
	gyro                        *Gyro
	leadingRange, trailingRange *Ultrasonic
	leadingLight, trailingLight *Light
	beacon                      *ColorSensor
	pusher                      *Servo
}

var _ drive.Pacer = (*Robot)(nil)

func NewRobot(cfg Config, logger *zap.SugaredLogger) (*Robot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger = logging.OrNop(logger)
	if cfg.Field.Width <= 0 {
		cfg.Field = physics.DefaultField()
	}
	integ, _ := integrators.New(cfg.Integrator)
	model := cfg.Chassis

	r := &Robot{
		cfg:    cfg,
		clk:    clock.NewMock(),
		wall:   clock.New(),
		model:  &model,
		integ:  integ,
		field:  cfg.Field,
		logger: logger,
	}
	r.x = r.model.InitialState(cfg.Start.Pose())

	r.left = &Motor{robot: r, side: 0}
	r.right = &Motor{robot: r, side: 1}
	r.gyro = newGyro(r)
	r.leadingRange = &Ultrasonic{robot: r, forward: SensorSpan}
	r.trailingRange = &Ultrasonic{robot: r, forward: -SensorSpan}
	r.leadingLight = &Light{robot: r, forward: SensorSpan}
	r.trailingLight = &Light{robot: r, forward: -SensorSpan}
	r.beacon = &ColorSensor{robot: r}
	r.pusher = &Servo{}
	r.pusher.position.Store(1)

	logger.Debugw("sim robot", "start", cfg.Start, "step", cfg.Step, "integrator", cfg.Integrator)
	return r, nil
}

// Clock is the simulated clock. It only advances inside Wait and Advance.
func (r *Robot) Clock() *clock.Mock { return r.clk }

func (r *Robot) Field() physics.Field { return r.field }

// Wait advances the simulation by d. With a real-time factor it also blocks
// for the matching wall-clock time.
func (r *Robot) Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var wallTimer *clock.Timer
	if r.cfg.RealTime > 0 && d > 0 {
		wallTimer = r.wall.Timer(time.Duration(float64(d) / r.cfg.RealTime))
		defer wallTimer.Stop()
	}
	if err := r.Advance(d); err != nil {
		return err
	}
	if wallTimer == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-wallTimer.C:
		return nil
	}
}

// Advance integrates the chassis over d in steps of at most Config.Step.
func (r *Robot) Advance(d time.Duration) error {
	for d > 0 {
		h := min(r.cfg.Step, d)
		if err := r.step(h); err != nil {
			return err
		}
		r.clk.Add(h)
		d -= h

		r.sinceGyro += h
		if r.cfg.GyroInterval <= 0 || r.sinceGyro >= r.cfg.GyroInterval {
			r.sinceGyro = 0
			r.gyro.publish()
		}
	}
	return nil
}

func (r *Robot) step(h time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}

	t := r.elapsed.Seconds()
	u := dynamo.Control{r.power[0], r.power[1]}
	next := r.integ.Step(r.model, r.x, u, t, h.Seconds())
	if err := dynamo.Check(r.model, next, r.steps, t); err != nil {
		r.err = errors.Wrap(err, "sim")
		return r.err
	}
	r.x = next
	r.elapsed += h
	r.steps++

	p := physics.Point{X: r.x[physics.IdxX], Y: r.x[physics.IdxY]}
	if !r.offField && !r.field.Contains(p) {
		r.offField = true
		r.logger.Warnw("robot left the field", "x", p.X, "y", p.Y, "elapsed", r.elapsed)
	}
	return nil
}

// Pose is the robot's current pose; the heading is in radians.
func (r *Robot) Pose() physics.Pose {
	r.mu.Lock()
	defer r.mu.Unlock()
	return physics.PoseOf(r.x)
}

// Elapsed is the simulated time since the robot was built.
func (r *Robot) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsed
}

// Err returns the error that stopped the simulation, if any.
func (r *Robot) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Robot) travel(side int) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.x[physics.IdxSLeft+side]
}

func (r *Robot) setPower(side int, p float64) {
	r.mu.Lock()
	r.power[side] = math.Max(-1, math.Min(1, p))
	r.mu.Unlock()
}

func (r *Robot) getPower(side int) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.power[side]
}

// Snapshot is a consistent view of the robot for recording and display.
type Snapshot struct {
	Elapsed     time.Duration `json:"elapsed"`
	Pose        physics.Pose  `json:"pose"`
	Left        float64       `json:"left"`
	Right       float64       `json:"right"`
	VLeft       float64       `json:"v_left"`
	VRight      float64       `json:"v_right"`
	Gyro        float64       `json:"gyro"`
	LeadingLit  bool          `json:"leading_lit"`
	TrailingLit bool          `json:"trailing_lit"`
	Pusher      float64       `json:"pusher"`
	OffField    bool          `json:"off_field"`
}

func (r *Robot) Snapshot() Snapshot {
	r.mu.Lock()
	s := Snapshot{
		Elapsed:  r.elapsed,
		Pose:     physics.PoseOf(r.x),
		Left:     r.power[0],
		Right:    r.power[1],
		VLeft:    r.x[physics.IdxVLeft],
		VRight:   r.x[physics.IdxVRight],
		OffField: r.offField,
	}
	r.mu.Unlock()

	s.Gyro = r.gyro.Heading()
	s.LeadingLit = r.leadingLight.lit.Load()
	s.TrailingLit = r.trailingLight.lit.Load()
	s.Pusher = r.pusher.Position()
	return s
}

// Register adds every simulated device to reg under names.
func (r *Robot) Register(reg *hardware.Registry, names hardware.Names) {
	reg.Register(names.DriveLeft, r.left)
	reg.Register(names.DriveRight, r.right)
	reg.Register(names.Gyro, r.gyro)
	reg.Register(names.LeadingUltrasonic, r.leadingRange)
	reg.Register(names.TrailingUltrasonic, r.trailingRange)
	reg.Register(names.LeadingLight, r.leadingLight)
	reg.Register(names.TrailingLight, r.trailingLight)
	reg.Register(names.BeaconSensor, r.beacon)
	reg.Register(names.BeaconPusher, r.pusher)
}

// Hardware assembles a hardware.Robot backed by the simulated devices.
func (r *Robot) Hardware(names hardware.Names) *hardware.Robot {
	reg := hardware.NewRegistry()
	r.Register(reg, names)
	return hardware.NewRobot(reg, names, r.logger)
}

func (r *Robot) Left() *Motor                    { return r.left }
func (r *Robot) Right() *Motor                   { return r.right }
func (r *Robot) Gyro() *Gyro                     { return r.gyro }
func (r *Robot) LeadingUltrasonic() *Ultrasonic  { return r.leadingRange }
func (r *Robot) TrailingUltrasonic() *Ultrasonic { return r.trailingRange }
func (r *Robot) LeadingLight() *Light            { return r.leadingLight }
func (r *Robot) TrailingLight() *Light           { return r.trailingLight }
func (r *Robot) BeaconSensor() *ColorSensor      { return r.beacon }
func (r *Robot) BeaconPusher() *Servo            { return r.pusher }
