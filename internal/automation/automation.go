package automation

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/autodrive/internal/drive"
	"github.com/san-kum/autodrive/internal/hardware"
	"github.com/san-kum/autodrive/internal/logging"
)

var (
	ErrUnknownStep = errors.New("automation: unknown step")
	ErrInvalidStep = errors.New("automation: invalid step")
)

// Step actions.
const (
	ActionDrive            = "drive"
	ActionDriveHeading     = "drive_heading"
	ActionRotate           = "rotate"
	ActionResetOrientation = "reset_orientation"
	ActionDriveUntilLine   = "drive_until_line"
	ActionParallelize      = "parallelize"
	ActionEncoderDrive     = "encoder_drive"
	ActionEncoderRotate    = "encoder_rotate"
	ActionSleep            = "sleep"
	ActionPushBeacon       = "push_beacon"
)

// Beacon pusher positions and how long the pusher stays out.
const (
	PusherOut       = 0.0
	PusherIn        = 1.0
	PushDelay       = 750 * time.Millisecond
	DefaultApproach = 0.2
)

// Routine is a scripted autonomous run.
type Routine struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Preset names the starting position used when the routine runs in
	// the simulator.
	Preset string `yaml:"preset,omitempty"`
	Steps  []Step `yaml:"steps"`
}

// Step is one maneuver. Which fields matter depends on Action.
type Step struct {
	Action    string        `yaml:"action"`
	Power     float64       `yaml:"power,omitempty"`
	Inches    float64       `yaml:"inches,omitempty"`
	Degrees   float64       `yaml:"degrees,omitempty"`
	Heading   float64       `yaml:"heading,omitempty"`
	Side      string        `yaml:"side,omitempty"`
	Offset    float64       `yaml:"offset,omitempty"`
	Min       float64       `yaml:"min,omitempty"`
	Max       float64       `yaml:"max,omitempty"`
	Direction string        `yaml:"direction,omitempty"`
	Repeat    int           `yaml:"repeat,omitempty"`
	Duration  time.Duration `yaml:"duration,omitempty"`
	Color     string        `yaml:"color,omitempty"`
	Approach  float64       `yaml:"approach,omitempty"`
}

func (s Step) String() string {
	switch s.Action {
	case ActionDrive, ActionEncoderDrive:
		return fmt.Sprintf("%s %.2f for %.1fin", s.Action, s.Power, s.Inches)
	case ActionDriveHeading:
		return fmt.Sprintf("%s %.2f for %.1fin at %.1f°", s.Action, s.Power, s.Inches, s.Heading)
	case ActionRotate:
		return fmt.Sprintf("%s %.1f°", s.Action, s.Degrees)
	case ActionDriveUntilLine:
		return fmt.Sprintf("%s %.2f %s +%.1fin [%.1f, %.1f]", s.Action, s.Power, s.Side, s.Offset, s.Min, s.Max)
	case ActionEncoderRotate:
		return fmt.Sprintf("%s %.2f %.1fin %s", s.Action, s.Power, s.Inches, s.Direction)
	case ActionSleep:
		return fmt.Sprintf("%s %v", s.Action, s.Duration)
	case ActionPushBeacon:
		return fmt.Sprintf("%s %s", s.Action, s.Color)
	default:
		return s.Action
	}
}

// Validate checks that every step can run.
func (r *Routine) Validate() error {
	var err error
	if len(r.Steps) == 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidStep, "routine %q has no steps", r.Name))
	}
	for i, s := range r.Steps {
		if serr := s.validate(); serr != nil {
			err = multierr.Append(err, &StepError{Index: i, Action: s.Action, Err: serr})
		}
	}
	return err
}

func (s Step) validate() error {
	switch s.Action {
	case ActionDrive, ActionDriveHeading, ActionEncoderDrive:
		if s.Inches <= 0 {
			return errors.Wrapf(ErrInvalidStep, "inches must be positive, got %v", s.Inches)
		}
	case ActionDriveUntilLine:
		if _, err := drive.ParseSide(s.Side); err != nil {
			return errors.Wrap(ErrInvalidStep, err.Error())
		}
	case ActionEncoderRotate:
		if _, err := drive.ParseDirection(s.Direction); err != nil {
			return errors.Wrap(ErrInvalidStep, err.Error())
		}
		if s.Repeat < 0 {
			return errors.Wrapf(ErrInvalidStep, "repeat must not be negative, got %d", s.Repeat)
		}
	case ActionSleep:
		if s.Duration <= 0 {
			return errors.Wrapf(ErrInvalidStep, "duration must be positive, got %v", s.Duration)
		}
	case ActionPushBeacon:
		if s.Approach < 0 {
			return errors.Wrapf(ErrInvalidStep, "approach must not be negative, got %v", s.Approach)
		}
		if s.Color != "" {
			if _, err := hardware.ParseColor(s.Color); err != nil {
				return errors.Wrap(ErrInvalidStep, err.Error())
			}
		}
	case ActionRotate, ActionResetOrientation, ActionParallelize:
	default:
		return errors.Wrapf(ErrUnknownStep, "%q", s.Action)
	}
	return nil
}

// StepError reports which step of a routine failed.
type StepError struct {
	Index  int
	Action string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index+1, e.Action, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// LoadRoutine loads a routine from a YAML file.
func LoadRoutine(path string) (*Routine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "automation: read %s", path)
	}
	return ParseRoutine(data)
}

func ParseRoutine(data []byte) (*Routine, error) {
	var routine Routine
	if err := yaml.Unmarshal(data, &routine); err != nil {
		return nil, errors.Wrap(err, "automation: parse routine")
	}
	for i := range routine.Steps {
		routine.Steps[i].Action = strings.ToLower(strings.TrimSpace(routine.Steps[i].Action))
	}
	if err := routine.Validate(); err != nil {
		return nil, err
	}
	return &routine, nil
}

func SaveRoutine(path string, routine *Routine) error {
	data, err := yaml.Marshal(routine)
	if err != nil {
		return errors.Wrap(err, "automation: marshal routine")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0644), "automation: write %s", path)
}

// Runner executes routines against a robot's drive strategies.
type Runner struct {
	Gyroscope  *drive.GyroscopeDrive
	Ultrasonic *drive.UltrasonicDrive
	Encoder    *drive.EncoderDrive
	Color      *hardware.CalibratedColor
	Pusher     hardware.Servo
	Pacer      drive.Pacer
	Logger     *zap.SugaredLogger

	// OnStep, when set, is called before each step runs.
	OnStep func(index int, step Step)
}

// Run executes the steps in order. It stops at the first failing step,
// including cancellation, and returns a *StepError naming it.
func (r *Runner) Run(ctx context.Context, routine *Routine) error {
	logger := logging.OrNop(r.Logger)
	logger.Infow("routine", "name", routine.Name, "steps", len(routine.Steps))

	for i, step := range routine.Steps {
		if err := ctx.Err(); err != nil {
			return &StepError{Index: i, Action: step.Action, Err: err}
		}
		if r.OnStep != nil {
			r.OnStep(i, step)
		}
		logger.Infof("step %d/%d: %s", i+1, len(routine.Steps), step)
		if err := r.runStep(ctx, step); err != nil {
			return &StepError{Index: i, Action: step.Action, Err: err}
		}
	}
	return nil
}

func (r *Runner) runStep(ctx context.Context, s Step) error {
	switch s.Action {
	case ActionDrive:
		return r.Gyroscope.Drive(ctx, s.Power, s.Inches)
	case ActionDriveHeading:
		return r.Gyroscope.DriveHeading(ctx, s.Power, s.Inches, s.Heading)
	case ActionRotate:
		return r.Gyroscope.Rotate(ctx, s.Degrees)
	case ActionResetOrientation:
		return r.Gyroscope.ResetOrientation(ctx)
	case ActionDriveUntilLine:
		side, err := drive.ParseSide(s.Side)
		if err != nil {
			return err
		}
		return r.Gyroscope.DriveUntilLine(ctx, s.Power, side, s.Offset, s.Min, s.Max)
	case ActionParallelize:
		return r.Ultrasonic.Parallelize(ctx)
	case ActionEncoderDrive:
		return r.Encoder.Drive(ctx, s.Power, s.Inches)
	case ActionEncoderRotate:
		dir, err := drive.ParseDirection(s.Direction)
		if err != nil {
			return err
		}
		for n := 0; n <= s.Repeat; n++ {
			if err := r.Encoder.Rotate(ctx, s.Power, s.Inches, dir); err != nil {
				return err
			}
			dir = dir.Opposite()
		}
		return nil
	case ActionSleep:
		return drive.Sleep(ctx, r.Pacer, s.Duration)
	case ActionPushBeacon:
		return r.pushBeacon(ctx, s)
	default:
		return errors.Wrapf(ErrUnknownStep, "%q", s.Action)
	}
}

// pushBeacon presses the beacon button. When a colour is given and the
// sensor does not see it, the robot first drives Approach inches to reach
// the other half of the beacon.
func (r *Runner) pushBeacon(ctx context.Context, s Step) error {
	if s.Color != "" && s.Approach > 0 {
		want, err := hardware.ParseColor(s.Color)
		if err != nil {
			return err
		}
		if !r.Color.IsColor(want) {
			power := s.Power
			if power == 0 {
				power = DefaultApproach
			}
			if err := r.Gyroscope.Drive(ctx, power, s.Approach); err != nil {
				return err
			}
		}
	}
	r.Pusher.SetPosition(PusherOut)
	err := drive.Sleep(ctx, r.Pacer, PushDelay)
	r.Pusher.SetPosition(PusherIn)
	return err
}
