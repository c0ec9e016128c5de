// Package physics models the simulated robot and the field it drives on.
//
//   - [Westcoast]: differential-drive chassis implementing [dynamo.System]
//     with first-order motor response
//   - [Field]: walls, tape lines and beacon panels, with the geometric
//     queries the simulated sensors need
//
// Lengths are in inches, angles in radians measured counter-clockwise from
// the +X axis, time in seconds.
//
//	chassis := physics.NewWestcoast()
//	x := chassis.InitialState(physics.Pose{X: 24, Y: 130})
//	x = rk4.Step(chassis, x, dynamo.Control{0.5, 0.5}, t, dt)
package physics
