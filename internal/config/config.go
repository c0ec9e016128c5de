package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/autodrive/internal/drive"
	"github.com/san-kum/autodrive/internal/hardware"
	"github.com/san-kum/autodrive/internal/sim"
)

var ErrInvalidConfig = errors.New("config: invalid")

const DefaultDataDir = ".autodrive"

type Config struct {
	Debug      bool                   `yaml:"debug"`
	DataDir    string                 `yaml:"data_dir"`
	Devices    hardware.Names         `yaml:"devices"`
	Gyroscope  drive.GyroscopeConfig  `yaml:"gyroscope"`
	Ultrasonic drive.UltrasonicConfig `yaml:"ultrasonic"`
	Encoder    drive.EncoderConfig    `yaml:"encoder"`
	Sim        sim.Config             `yaml:"sim"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir:    DefaultDataDir,
		Devices:    hardware.DefaultNames(),
		Gyroscope:  drive.DefaultGyroscopeConfig(),
		Ultrasonic: drive.DefaultUltrasonicConfig(),
		Encoder:    drive.DefaultEncoderConfig(),
		Sim:        sim.DefaultConfig(),
	}
}

// Load reads path on top of the defaults, so a file only needs the keys it
// changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: read %s", path)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "config: parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "config: marshal")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0644), "config: write %s", path)
}

// Validate reports every problem in the config at once.
func (c *Config) Validate() error {
	var err error
	invalid := func(format string, args ...any) {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfig, format, args...))
	}

	g := c.Gyroscope
	err = multierr.Append(err, errors.Wrap(g.PID.Validate(), "gyroscope"))
	if g.CountsPerInch <= 0 {
		invalid("gyroscope.counts_per_inch must be positive")
	}
	if g.LineThreshold <= 0 || g.LineThreshold >= 1 {
		invalid("gyroscope.line_threshold must be in (0, 1), got %v", g.LineThreshold)
	}
	checkSettle(invalid, "gyroscope.rotate", g.Rotate)
	checkPositive(invalid, "gyroscope.drive_timeout", g.DriveTimeout)
	checkPositive(invalid, "gyroscope.line_timeout", g.LineTimeout)
	checkPositive(invalid, "gyroscope.reset_timeout", g.ResetTimeout)

	u := c.Ultrasonic
	err = multierr.Append(err, errors.Wrap(u.PID.Validate(), "ultrasonic"))
	checkSettle(invalid, "ultrasonic.parallelize", u.Parallelize)

	e := c.Encoder
	if e.CountsPerInch <= 0 {
		invalid("encoder.counts_per_inch must be positive")
	}
	checkPositive(invalid, "encoder.period", e.Period)
	checkPositive(invalid, "encoder.timeout", e.Timeout)

	for key, name := range map[string]string{
		"drive_left":  c.Devices.DriveLeft,
		"drive_right": c.Devices.DriveRight,
		"gyro":        c.Devices.Gyro,
	} {
		if name == "" {
			invalid("devices.%s must be set", key)
		}
	}

	err = multierr.Append(err, errors.Wrap(c.Sim.Validate(), "sim"))
	return err
}

func checkSettle(invalid func(string, ...any), key string, s drive.Settle) {
	if s.Tolerance < 0 {
		invalid("%s.tolerance must not be negative", key)
	}
	if s.Stable < 0 {
		invalid("%s.stable must not be negative", key)
	}
	checkPositive(invalid, key+".timeout", s.Timeout)
}

func checkPositive(invalid func(string, ...any), key string, d time.Duration) {
	if d <= 0 {
		invalid("%s must be positive, got %v", key, d)
	}
}
