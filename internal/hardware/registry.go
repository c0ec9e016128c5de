package hardware

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/san-kum/autodrive/internal/logging"
)

var (
	// ErrDeviceNotFound is returned when no device is registered under a name.
	ErrDeviceNotFound = errors.New("hardware: device not found")

	// ErrWrongKind is returned when a device does not have the requested capability.
	ErrWrongKind = errors.New("hardware: device has the wrong kind")
)

// Registry maps device names to devices. Names are case-insensitive.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]any
}

func NewRegistry() *Registry {
	return &Registry{devices: make(map[string]any)}
}

func (r *Registry) Register(name string, device any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[strings.ToLower(name)] = device
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.devices))
	for name := range r.devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the device registered under name if it has capability T.
func Lookup[T any](r *Registry, name string) (T, error) {
	var zero T
	r.mu.RLock()
	device, ok := r.devices[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return zero, errors.Wrapf(ErrDeviceNotFound, "%q", name)
	}
	typed, ok := device.(T)
	if !ok {
		return zero, errors.Wrapf(ErrWrongKind, "%q is %T", name, device)
	}
	return typed, nil
}

// LookupOr returns the device registered under name, or fallback after
// logging a warning when it is missing or has the wrong kind.
func LookupOr[T any](r *Registry, name string, fallback T, logger *zap.SugaredLogger) T {
	device, err := Lookup[T](r, name)
	if err != nil {
		logger.Warnw("using disabled stand-in", "device", name, "error", err)
		return fallback
	}
	return device
}

// Names lists the registry names a Robot is assembled from.
type Names struct {
	DriveLeft          string `yaml:"drive_left"`
	DriveRight         string `yaml:"drive_right"`
	Gyro               string `yaml:"gyro"`
	LeadingUltrasonic  string `yaml:"leading_ultrasonic"`
	TrailingUltrasonic string `yaml:"trailing_ultrasonic"`
	LeadingLight       string `yaml:"leading_light"`
	TrailingLight      string `yaml:"trailing_light"`
	BeaconSensor       string `yaml:"beacon_sensor"`
	BeaconPusher       string `yaml:"beacon_pusher"`
}

func DefaultNames() Names {
	return Names{
		DriveLeft:          "drive_left",
		DriveRight:         "drive_right",
		Gyro:               "navx",
		LeadingUltrasonic:  "leading_ultrasonic",
		TrailingUltrasonic: "trailing_ultrasonic",
		LeadingLight:       "leading_light",
		TrailingLight:      "trailing_light",
		BeaconSensor:       "beacon_sensor",
		BeaconPusher:       "beacon_pusher",
	}
}

// Robot is the set of devices the drive strategies and routines use. Every
// field is non-nil once built by NewRobot.
type Robot struct {
	Left, Right        Motor
	Gyro               HeadingSensor
	LeadingUltrasonic  RangeSensor
	TrailingUltrasonic RangeSensor
	LeadingLight       LightSensor
	TrailingLight      LightSensor
	BeaconSensor       ColorSensor
	BeaconPusher       Servo
}

// NewRobot assembles a Robot from the registry. Missing devices are replaced
// by disabled stand-ins so a partially wired robot still runs.
func NewRobot(r *Registry, names Names, logger *zap.SugaredLogger) *Robot {
	logger = logging.OrNop(logger)
	return &Robot{
		Left:               LookupOr[Motor](r, names.DriveLeft, DisabledMotor{}, logger),
		Right:              LookupOr[Motor](r, names.DriveRight, DisabledMotor{}, logger),
		Gyro:               LookupOr[HeadingSensor](r, names.Gyro, DisabledHeading{}, logger),
		LeadingUltrasonic:  LookupOr[RangeSensor](r, names.LeadingUltrasonic, DisabledRange{}, logger),
		TrailingUltrasonic: LookupOr[RangeSensor](r, names.TrailingUltrasonic, DisabledRange{}, logger),
		LeadingLight:       LookupOr[LightSensor](r, names.LeadingLight, DisabledLight{}, logger),
		TrailingLight:      LookupOr[LightSensor](r, names.TrailingLight, DisabledLight{}, logger),
		BeaconSensor:       LookupOr[ColorSensor](r, names.BeaconSensor, DisabledColor{}, logger),
		BeaconPusher:       LookupOr[Servo](r, names.BeaconPusher, DisabledServo{}, logger),
	}
}
