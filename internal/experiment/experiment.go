package experiment

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/san-kum/autodrive/internal/automation"
	"github.com/san-kum/autodrive/internal/config"
	"github.com/san-kum/autodrive/internal/drive"
	"github.com/san-kum/autodrive/internal/hardware"
	"github.com/san-kum/autodrive/internal/logging"
	"github.com/san-kum/autodrive/internal/metrics"
	"github.com/san-kum/autodrive/internal/sim"
)

var ErrNotSetup = errors.New("experiment: not setup")

// Sample is one control tick together with where the robot was at the time.
type Sample struct {
	Step       int     `json:"step"`
	Run        int     `json:"run"`
	Time       float64 `json:"time"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Heading    float64 `json:"heading"`
	Reading    float64 `json:"reading"`
	Target     float64 `json:"target"`
	Correction float64 `json:"correction"`
	Left       float64 `json:"left"`
	Right      float64 `json:"right"`
}

// Result describes one simulated routine run. Error is set when the
// routine stopped early; Steps is how many steps completed.
type Result struct {
	Routine  string             `json:"routine"`
	Preset   string             `json:"preset,omitempty"`
	Start    sim.Start          `json:"start"`
	Final    sim.Start          `json:"final"`
	Duration time.Duration      `json:"duration"`
	Steps    int                `json:"steps"`
	Pushes   int                `json:"pushes"`
	Samples  []Sample           `json:"samples"`
	Metrics  map[string]float64 `json:"metrics"`
	Error    string             `json:"error,omitempty"`
}

type Experiment struct {
	cfg    *config.Config
	logger *zap.SugaredLogger

	// OnStep, when set, is called before each routine step.
	OnStep func(index int, step automation.Step)

	routine  *automation.Routine
	start    sim.Start
	robot    *sim.Robot
	runner   *automation.Runner
	recorder *Recorder
	metrics  metrics.Set
	pusher   *countingServo
}

func New(cfg *config.Config, logger *zap.SugaredLogger) *Experiment {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger = logging.OrNop(logger)
	return &Experiment{cfg: cfg, logger: logger}
}

// Setup builds a fresh simulated robot for routine. A routine naming a start
// preset starts there; otherwise the configured start is used.
func (e *Experiment) Setup(routine *automation.Routine) error {
	return e.setup(routine, nil)
}

func (e *Experiment) setup(routine *automation.Routine, start *sim.Start) error {
	if err := routine.Validate(); err != nil {
		return err
	}

	simCfg := e.cfg.Sim
	if routine.Preset != "" {
		p, ok := config.Presets[routine.Preset]
		if !ok {
			return errors.Errorf("experiment: routine %q names unknown preset %q", routine.Name, routine.Preset)
		}
		simCfg.Start = p.Start
	}
	if start != nil {
		simCfg.Start = *start
	}

	robot, err := sim.NewRobot(simCfg, e.logger)
	if err != nil {
		return errors.Wrap(err, "experiment: build robot")
	}
	hw := robot.Hardware(e.cfg.Devices)
	loop := drive.NewLoop(hw.Left, hw.Right, robot, robot.Clock(), e.logger)

	e.recorder = NewRecorder(robot)
	e.metrics = metrics.Default()
	loop.AddObserver(e.recorder)
	loop.AddObserver(e.metrics)

	e.pusher = &countingServo{Servo: hw.BeaconPusher}
	e.runner = &automation.Runner{
		Gyroscope:  drive.NewGyroscopeDrive(loop, hw.Gyro, hw.LeadingLight, hw.TrailingLight, e.cfg.Gyroscope),
		Ultrasonic: drive.NewUltrasonicDrive(loop, hw.LeadingUltrasonic, hw.TrailingUltrasonic, e.cfg.Ultrasonic),
		Encoder:    drive.NewEncoderDrive(loop, e.cfg.Encoder),
		Color:      hardware.NewCalibratedColor(hw.BeaconSensor, e.logger),
		Pusher:     e.pusher,
		Pacer:      robot,
		Logger:     e.logger,
		OnStep: func(i int, s automation.Step) {
			e.recorder.SetStep(i)
			if e.OnStep != nil {
				e.OnStep(i, s)
			}
		},
	}
	e.routine = routine
	e.start = simCfg.Start
	e.robot = robot
	return nil
}

// Robot is the simulated robot built by Setup.
func (e *Experiment) Robot() *sim.Robot { return e.robot }

// Run executes the routine. A routine that fails part way still returns its
// partial Result alongside the error.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.runner == nil {
		return nil, ErrNotSetup
	}

	runErr := e.runner.Run(ctx, e.routine)

	pose := e.robot.Pose()
	res := &Result{
		Routine:  e.routine.Name,
		Preset:   e.routine.Preset,
		Start:    e.start,
		Final:    sim.Start{X: pose.X, Y: pose.Y, Heading: pose.Heading * 180 / math.Pi},
		Duration: e.robot.Elapsed(),
		Steps:    len(e.routine.Steps),
		Pushes:   e.pusher.Pushes(),
		Samples:  e.recorder.Samples(),
		Metrics:  e.metrics.Values(),
	}
	if runErr != nil {
		var serr *automation.StepError
		if errors.As(runErr, &serr) {
			res.Steps = serr.Index
		}
		res.Error = runErr.Error()
	}
	if err := e.robot.Err(); err != nil && runErr == nil {
		runErr = errors.Wrap(err, "experiment: simulation")
		res.Error = runErr.Error()
	}

	e.logger.Infow("run finished", "routine", res.Routine, "steps", res.Steps, "elapsed", res.Duration,
		"final", res.Final, "pushes", res.Pushes)
	return res, runErr
}

// Recorder samples the robot pose on every control tick.
type Recorder struct {
	robot *sim.Robot

	mu      sync.Mutex
	step    int
	samples []Sample
}

func NewRecorder(robot *sim.Robot) *Recorder {
	return &Recorder{robot: robot}
}

func (r *Recorder) SetStep(i int) {
	r.mu.Lock()
	r.step = i
	r.mu.Unlock()
}

func (r *Recorder) OnTick(t drive.Tick) {
	pose := r.robot.Pose()
	elapsed := r.robot.Elapsed()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, Sample{
		Step:       r.step,
		Run:        t.Run,
		Time:       elapsed.Seconds(),
		X:          pose.X,
		Y:          pose.Y,
		Heading:    pose.Heading * 180 / math.Pi,
		Reading:    t.Reading,
		Target:     t.Target,
		Correction: t.Correction,
		Left:       t.Left,
		Right:      t.Right,
	})
}

// Samples returns a copy of everything recorded so far.
func (r *Recorder) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sample(nil), r.samples...)
}

type countingServo struct {
	hardware.Servo

	mu     sync.Mutex
	pushes int
}

func (s *countingServo) SetPosition(p float64) {
	if p == automation.PusherOut {
		s.mu.Lock()
		s.pushes++
		s.mu.Unlock()
	}
	s.Servo.SetPosition(p)
}

func (s *countingServo) Pushes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pushes
}
