// Package hardware defines the device capabilities the drive core talks to,
// a named-device registry, and disabled stand-ins used when a device is
// missing.
//
// Distances are in inches, headings in degrees, powers in [-1, 1].
package hardware

// Motor is one side of the differential drive with its encoder.
type Motor interface {
	SetPower(power float64)
	Power() float64
	// Position returns the encoder count since the last reset.
	Position() int
	ResetEncoder()
}

// HeadingSensor reports yaw relative to the last zeroing.
type HeadingSensor interface {
	Heading() float64
	// ZeroHeading requests a new reference. Readings may stay stale until
	// the sensor's next update.
	ZeroHeading()
}

// RangeSensor reports the distance to the nearest obstacle.
type RangeSensor interface {
	Distance() float64
}

// LightSensor is a reflectance sensor with a switchable illuminator.
type LightSensor interface {
	// Intensity returns reflected light in [0, 1].
	Intensity() float64
	SetIlluminator(on bool)
}

// ColorSensor reports raw red and blue channel counts.
type ColorSensor interface {
	Red() int
	Blue() int
}

// Servo is a positional servo in [0, 1].
type Servo interface {
	SetPosition(position float64)
}
