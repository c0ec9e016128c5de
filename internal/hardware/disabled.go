package hardware

// NoRange is what a disabled range sensor reports: the sensor's maximum.
const NoRange = 255.0

// DisabledMotor ignores power and never moves.
type DisabledMotor struct{}

func (DisabledMotor) SetPower(float64) {}
func (DisabledMotor) Power() float64   { return 0 }
func (DisabledMotor) Position() int    { return 0 }
func (DisabledMotor) ResetEncoder()    {}

type DisabledHeading struct{}

func (DisabledHeading) Heading() float64 { return 0 }
func (DisabledHeading) ZeroHeading()     {}

type DisabledRange struct{}

func (DisabledRange) Distance() float64 { return NoRange }

type DisabledLight struct{}

func (DisabledLight) Intensity() float64  { return 0 }
func (DisabledLight) SetIlluminator(bool) {}

type DisabledColor struct{}

func (DisabledColor) Red() int  { return 0 }
func (DisabledColor) Blue() int { return 0 }

type DisabledServo struct{}

func (DisabledServo) SetPosition(float64) {}

var (
	_ Motor         = DisabledMotor{}
	_ HeadingSensor = DisabledHeading{}
	_ RangeSensor   = DisabledRange{}
	_ LightSensor   = DisabledLight{}
	_ ColorSensor   = DisabledColor{}
	_ Servo         = DisabledServo{}
)
