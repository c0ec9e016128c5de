package viz

import (
	"math"

	"github.com/san-kum/autodrive/internal/physics"
)

// robotLength is how long the drawn heading marker is, in inches.
const robotLength = 9.0

// FieldView draws a field, the robot and its path onto a Canvas. Field
// inches map onto the whole canvas, so north ends up at the top.
type FieldView struct {
	*Canvas
	field physics.Field
}

func NewFieldView(field physics.Field, cols, rows int) *FieldView {
	return &FieldView{Canvas: NewCanvas(cols, rows), field: field}
}

// Pixel maps a field point to canvas sub-pixels.
func (v *FieldView) Pixel(p physics.Point) (int, int) {
	w, h := v.Pixels()
	x := p.X / v.field.Width * float64(w-1)
	y := p.Y / v.field.Height * float64(h-1)
	return int(math.Round(x)), int(math.Round(y))
}

func (v *FieldView) line(a, b physics.Point) {
	x0, y0 := v.Pixel(a)
	x1, y1 := v.Pixel(b)
	v.DrawLine(x0, y0, x1, y1)
}

// DrawField draws the walls, tape lines and beacons.
func (v *FieldView) DrawField() {
	for _, w := range v.field.Walls {
		v.line(w.A, w.B)
	}
	for _, t := range v.field.Tapes {
		v.line(t.A, t.B)
	}
	for _, b := range v.field.Beacons {
		x, y := v.Pixel(b.At)
		v.Set(x, y-1)
		v.Set(x, y-2)
	}
}

// DrawPath joins consecutive points.
func (v *FieldView) DrawPath(points []physics.Point) {
	for i := 1; i < len(points); i++ {
		v.line(points[i-1], points[i])
	}
	if len(points) == 1 {
		v.Set(v.Pixel(points[0]))
	}
}

// DrawRobot draws a marker from the robot centre toward its heading.
func (v *FieldView) DrawRobot(pose physics.Pose) {
	center := physics.Point{X: pose.X, Y: pose.Y}
	nose := pose.Local(robotLength/2, 0)
	tail := pose.Local(-robotLength/2, 0)
	left := pose.Local(-robotLength/2, robotLength/3)
	right := pose.Local(-robotLength/2, -robotLength/3)
	v.line(tail, nose)
	v.line(left, nose)
	v.line(right, nose)
	v.line(left, right)
	v.Set(v.Pixel(center))
}
