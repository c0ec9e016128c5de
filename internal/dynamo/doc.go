// Package dynamo provides the numerical kernel the robot simulator is built
// on.
//
//   - [State]: state vector of a continuous system
//   - [System]: dX/dt = f(X, u, t)
//   - [Integrator]: advances a System by one step
//   - [Configurable]: runtime parameter access for tuning
//
// # Example
//
//	chassis := physics.NewWestcoast()
//	integ := integrators.NewRK4()
//	x = integ.Step(chassis, x, dynamo.Control{0.5, 0.5}, t, 0.001)
//
// Integrators keep scratch buffers and are NOT safe for concurrent use; give
// every simulated robot its own.
package dynamo
