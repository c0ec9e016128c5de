package drive

import (
	"math"
	"time"

	"github.com/san-kum/autodrive/internal/control"
)

// CountsPerInch converts wheel travel to encoder counts: 1120 counts per
// revolution on a 3in wheel.
const CountsPerInch = 1120 / (math.Pi * 3)

// Settle is a "close enough for long enough" condition bounded by a timeout.
type Settle struct {
	Tolerance float64       `yaml:"tolerance"`
	Stable    time.Duration `yaml:"stable"`
	Timeout   time.Duration `yaml:"timeout"`
}

type GyroscopeConfig struct {
	PID           control.PIDConfig `yaml:"pid"`
	CountsPerInch float64           `yaml:"counts_per_inch"`
	DriveTimeout  time.Duration     `yaml:"drive_timeout"`
	Rotate        Settle            `yaml:"rotate"`
	// LineThreshold is the reflected intensity above which the light sensor
	// is over a line.
	LineThreshold float64       `yaml:"line_threshold"`
	LineTimeout   time.Duration `yaml:"line_timeout"`
	ResetTimeout  time.Duration `yaml:"reset_timeout"`
}

func DefaultGyroscopeConfig() GyroscopeConfig {
	return GyroscopeConfig{
		PID: control.PIDConfig{
			Kp:            -0.04,
			Ki:            -0.00003,
			Kd:            -0.15,
			Delay:         30 * time.Millisecond,
			IntegralRange: 6,
			OutputRange:   0.8,
		},
		CountsPerInch: CountsPerInch,
		DriveTimeout:  10 * time.Second,
		Rotate: Settle{
			Tolerance: 2,
			Stable:    300 * time.Millisecond,
			Timeout:   2 * time.Second,
		},
		LineThreshold: 0.3,
		LineTimeout:   10 * time.Second,
		ResetTimeout:  500 * time.Millisecond,
	}
}

type UltrasonicConfig struct {
	PID            control.PIDConfig `yaml:"pid"`
	LeadingOffset  float64           `yaml:"leading_offset"`
	TrailingOffset float64           `yaml:"trailing_offset"`
	Parallelize    Settle            `yaml:"parallelize"`
}

func DefaultUltrasonicConfig() UltrasonicConfig {
	return UltrasonicConfig{
		PID: control.PIDConfig{
			Kp:            0.15,
			Ki:            0.0005,
			Delay:         30 * time.Millisecond,
			IntegralRange: 0.75,
			IntegralReset: true,
			OutputRange:   0.22,
		},
		LeadingOffset:  0.0407,
		TrailingOffset: 0,
		Parallelize: Settle{
			Tolerance: 0.08,
			Stable:    90 * time.Millisecond,
			Timeout:   5 * time.Second,
		},
	}
}

type EncoderConfig struct {
	CountsPerInch float64       `yaml:"counts_per_inch"`
	Period        time.Duration `yaml:"period"`
	Timeout       time.Duration `yaml:"timeout"`
}

func DefaultEncoderConfig() EncoderConfig {
	return EncoderConfig{
		CountsPerInch: CountsPerInch,
		Period:        DefaultPeriod,
		Timeout:       10 * time.Second,
	}
}
