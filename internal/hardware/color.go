package hardware

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Color int

const (
	Red Color = iota
	Blue
)

func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case Blue:
		return "blue"
	default:
		return fmt.Sprintf("color(%d)", int(c))
	}
}

func ParseColor(s string) (Color, error) {
	switch strings.ToLower(s) {
	case "red":
		return Red, nil
	case "blue":
		return Blue, nil
	}
	return 0, errors.Errorf("hardware: unknown color %q", s)
}

// CalibratedColor subtracts the ambient red and blue counts captured at
// construction before comparing channels.
type CalibratedColor struct {
	sensor     ColorSensor
	redOffset  int
	blueOffset int
	logger     *zap.SugaredLogger
}

func NewCalibratedColor(sensor ColorSensor, logger *zap.SugaredLogger) *CalibratedColor {
	return &CalibratedColor{
		sensor:     sensor,
		redOffset:  sensor.Red(),
		blueOffset: sensor.Blue(),
		logger:     logger,
	}
}

// Offsets returns the ambient counts captured at construction.
func (c *CalibratedColor) Offsets() (red, blue int) {
	return c.redOffset, c.blueOffset
}

// IsColor reports whether the wanted channel dominates the other one.
func (c *CalibratedColor) IsColor(want Color) bool {
	red := c.sensor.Red() - c.redOffset
	blue := c.sensor.Blue() - c.blueOffset
	if c.logger != nil {
		c.logger.Debugw("color", "red", red, "red_offset", c.redOffset, "blue", blue, "blue_offset", c.blueOffset)
	}
	switch want {
	case Red:
		return red > blue
	case Blue:
		return blue > red
	default:
		if c.logger != nil {
			c.logger.Errorw("color does not exist", "color", want)
		}
		return false
	}
}
