// Package viz draws runs in the terminal.
//
//   - [Canvas]: Braille pixel canvas
//   - [FieldView]: the field, a path and the robot on a canvas
//   - [PlotSeries], [PlotPath]: static plots of recorded samples
//   - [LiveModel]: Bubble Tea model that follows a routine as it runs
//
// # Key Bindings
//
//	q - Cancel the routine and quit
//	g - Toggle the gyro graph
//	c - Clear the trail
//	? - Show help
package viz
