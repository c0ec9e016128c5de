package automation

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/multierr"
	"go.viam.com/test"

	"github.com/san-kum/autodrive/internal/config"
	"github.com/san-kum/autodrive/internal/drive"
	"github.com/san-kum/autodrive/internal/hardware"
	"github.com/san-kum/autodrive/internal/logging/logtest"
	"github.com/san-kum/autodrive/internal/sim"
)

const routineYAML = `
name: test
description: parsed from yaml
preset: center
steps:
  - action: DRIVE
    power: 0.5
    inches: 12
  - action: Sleep
    duration: 250ms
  - action: drive_until_line
    power: 0.25
    side: trailing
    min: 5
  - action: encoder_rotate
    power: 0.4
    inches: 3
    direction: left
    repeat: 2
`

func TestParseRoutine(t *testing.T) {
	r, err := ParseRoutine([]byte(routineYAML))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.Name, test.ShouldEqual, "test")
	test.That(t, r.Preset, test.ShouldEqual, "center")
	test.That(t, r.Steps, test.ShouldHaveLength, 4)
	test.That(t, r.Steps[0].Action, test.ShouldEqual, ActionDrive)
	test.That(t, r.Steps[1].Action, test.ShouldEqual, ActionSleep)
	test.That(t, r.Steps[1].Duration, test.ShouldEqual, 250*time.Millisecond)
	test.That(t, r.Steps[2].Side, test.ShouldEqual, "trailing")
	test.That(t, r.Steps[3].Repeat, test.ShouldEqual, 2)
}

func TestParseRoutineUnknownStep(t *testing.T) {
	_, err := ParseRoutine([]byte("name: bad\nsteps:\n  - action: drive\n    power: 1\n    inches: 2\n  - action: fly\n"))
	test.That(t, errors.Is(err, ErrUnknownStep), test.ShouldBeTrue)

	var serr *StepError
	test.That(t, errors.As(err, &serr), test.ShouldBeTrue)
	test.That(t, serr.Index, test.ShouldEqual, 1)
	test.That(t, serr.Action, test.ShouldEqual, "fly")
	test.That(t, serr.Error(), test.ShouldContainSubstring, "step 2 (fly)")
}

func TestParseRoutineMalformed(t *testing.T) {
	_, err := ParseRoutine([]byte("steps: [drive"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestValidate(t *testing.T) {
	r := &Routine{Name: "broken", Steps: []Step{
		{Action: ActionDrive, Power: 0.5},
		{Action: ActionDriveUntilLine, Side: "sideways"},
		{Action: ActionEncoderRotate, Direction: "left", Repeat: -1},
		{Action: ActionSleep},
		{Action: ActionPushBeacon, Color: "green"},
		{Action: ActionPushBeacon, Approach: -2},
		{Action: ActionRotate, Degrees: 90},
	}}
	err := r.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, multierr.Errors(err), test.ShouldHaveLength, 6)
	test.That(t, errors.Is(err, ErrInvalidStep), test.ShouldBeTrue)

	empty := &Routine{Name: "empty"}
	test.That(t, errors.Is(empty.Validate(), ErrInvalidStep), test.ShouldBeTrue)
}

func TestStepString(t *testing.T) {
	test.That(t, Step{Action: ActionRotate, Degrees: -45}.String(), test.ShouldEqual, "rotate -45.0°")
	test.That(t, Step{Action: ActionSleep, Duration: time.Second}.String(), test.ShouldEqual, "sleep 1s")
	test.That(t, Step{Action: ActionParallelize}.String(), test.ShouldEqual, "parallelize")
}

func TestSaveLoadRoutine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routine.yaml")
	want := GetPreset("beacon-red")
	test.That(t, SaveRoutine(path, want), test.ShouldBeNil)

	got, err := LoadRoutine(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldResemble, want)

	_, err = LoadRoutine(filepath.Join(t.TempDir(), "missing.yaml"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPresets(t *testing.T) {
	names := ListPresets()
	test.That(t, names, test.ShouldHaveLength, len(Presets))
	for i := 1; i < len(names); i++ {
		test.That(t, names[i-1] < names[i], test.ShouldBeTrue)
	}
	for _, name := range names {
		r := GetPreset(name)
		test.That(t, r.Validate(), test.ShouldBeNil)
		test.That(t, config.GetPreset(r.Preset), test.ShouldNotBeNil)
	}

	base := len(Presets["beacon-red"].Steps)
	test.That(t, Presets["beacon-red-corner"].Steps, test.ShouldHaveLength, base+2)
	test.That(t, Presets["beacon-red-base"].Steps, test.ShouldHaveLength, base+4)

	c := GetPreset("square")
	c.Steps[0].Inches = 1
	test.That(t, Presets["square"].Steps[0].Inches, test.ShouldEqual, 24.0)

	test.That(t, GetPreset("nope"), test.ShouldBeNil)
}

type recordingServo struct {
	hardware.Servo
	positions []float64
}

func (s *recordingServo) SetPosition(p float64) {
	s.positions = append(s.positions, p)
	s.Servo.SetPosition(p)
}

func (s *recordingServo) pushes() int {
	n := 0
	for _, p := range s.positions {
		if p == PusherOut {
			n++
		}
	}
	return n
}

type bench struct {
	robot  *sim.Robot
	pusher *recordingServo
	runner *Runner
}

func newBench(t *testing.T, preset string) *bench {
	t.Helper()
	cfg := config.GetPreset(preset)
	test.That(t, cfg, test.ShouldNotBeNil)
	logger := logtest.New(t)

	robot, err := sim.NewRobot(cfg.Sim, logger)
	test.That(t, err, test.ShouldBeNil)
	hw := robot.Hardware(cfg.Devices)
	loop := drive.NewLoop(hw.Left, hw.Right, robot, robot.Clock(), logger)
	pusher := &recordingServo{Servo: hw.BeaconPusher}

	return &bench{
		robot:  robot,
		pusher: pusher,
		runner: &Runner{
			Gyroscope:  drive.NewGyroscopeDrive(loop, hw.Gyro, hw.LeadingLight, hw.TrailingLight, cfg.Gyroscope),
			Ultrasonic: drive.NewUltrasonicDrive(loop, hw.LeadingUltrasonic, hw.TrailingUltrasonic, cfg.Ultrasonic),
			Encoder:    drive.NewEncoderDrive(loop, cfg.Encoder),
			Color:      hardware.NewCalibratedColor(hw.BeaconSensor, logger),
			Pusher:     pusher,
			Pacer:      robot,
			Logger:     logger,
		},
	}
}

func TestRunBeaconRed(t *testing.T) {
	b := newBench(t, "beacon-red")
	routine := GetPreset("beacon-red")

	var seen []int
	b.runner.OnStep = func(i int, _ Step) { seen = append(seen, i) }

	err := b.runner.Run(context.Background(), routine)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, seen, test.ShouldHaveLength, len(routine.Steps))
	test.That(t, b.pusher.pushes(), test.ShouldEqual, 2)
	test.That(t, b.robot.BeaconPusher().Position(), test.ShouldEqual, PusherIn)
	test.That(t, b.robot.Err(), test.ShouldBeNil)

	// Both beacons sit on the north wall, so the robot ends on the east
	// half of the field after the second one.
	test.That(t, b.robot.Pose().X, test.ShouldBeGreaterThan, 110.0)
}

func TestRunCancelled(t *testing.T) {
	b := newBench(t, "center")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.runner.Run(ctx, GetPreset("square"))
	var serr *StepError
	test.That(t, errors.As(err, &serr), test.ShouldBeTrue)
	test.That(t, serr.Index, test.ShouldEqual, 0)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}

func TestRunCancelledMidRoutine(t *testing.T) {
	b := newBench(t, "center")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b.runner.OnStep = func(i int, _ Step) {
		if i == 2 {
			cancel()
		}
	}

	err := b.runner.Run(ctx, GetPreset("square"))
	var serr *StepError
	test.That(t, errors.As(err, &serr), test.ShouldBeTrue)
	test.That(t, serr.Index, test.ShouldEqual, 2)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
	test.That(t, b.robot.Left().Power(), test.ShouldEqual, 0.0)
	test.That(t, b.robot.Right().Power(), test.ShouldEqual, 0.0)
}

func TestRunEncoderRotate(t *testing.T) {
	turn := func(repeat int) float64 {
		b := newBench(t, "center")
		r := &Routine{Name: "wiggle", Steps: []Step{
			{Action: ActionEncoderRotate, Power: 0.5, Inches: 5, Direction: "right", Repeat: repeat},
		}}
		test.That(t, b.runner.Run(context.Background(), r), test.ShouldBeNil)
		return b.robot.Pose().Heading*180/math.Pi - 90
	}

	test.That(t, turn(0), test.ShouldBeLessThan, -30.0)
	test.That(t, math.Abs(turn(1)), test.ShouldBeLessThan, 5.0)
}

func TestRunPushBeaconWithoutColor(t *testing.T) {
	b := newBench(t, "center")
	start := b.robot.Pose()
	r := &Routine{Name: "push", Steps: []Step{{Action: ActionPushBeacon}}}

	test.That(t, b.runner.Run(context.Background(), r), test.ShouldBeNil)
	test.That(t, b.pusher.positions, test.ShouldResemble, []float64{PusherOut, PusherIn})
	test.That(t, b.robot.Elapsed(), test.ShouldBeGreaterThanOrEqualTo, PushDelay)
	test.That(t, b.robot.Pose().Y, test.ShouldAlmostEqual, start.Y)
}
