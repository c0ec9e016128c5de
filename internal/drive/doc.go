// Package drive runs closed-loop maneuvers on a differential drive.
//
// [Loop.Control] is the single tick loop every strategy shares: read the
// sensor, update the corrector, apply offset+correction to the left side and
// offset-correction to the right, evaluate the terminator, then pace. Both
// sides are set to zero on every exit path.
//
// The strategies are thin builders of a reading source and a terminator
// tree over that loop:
//
//   - [GyroscopeDrive]: heading-held straight drive, in-place rotation and
//     drive-until-line
//   - [UltrasonicDrive]: squaring against a wall with two range sensors
//   - [EncoderDrive]: open-loop distance and rotation bounded by encoders
//
// Cancellation is the context passed to every maneuver. A cancelled run
// returns the context's error; a run that ends through its timeout returns
// nil.
package drive
