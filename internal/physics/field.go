package physics

import (
	"math"
)

type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

func (p Point) Sub(q Point) Point     { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Dist(q Point) float64  { return math.Hypot(p.X-q.X, p.Y-q.Y) }
func (p Point) Cross(q Point) float64 { return p.X*q.Y - p.Y*q.X }
func (p Point) Dot(q Point) float64   { return p.X*q.X + p.Y*q.Y }

func (p Point) Lerp(q Point, t float64) Point {
	return Point{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t}
}

type Segment struct {
	A Point `yaml:"a" json:"a"`
	B Point `yaml:"b" json:"b"`
}

// DistanceTo returns the distance from p to the closest point of s.
func (s Segment) DistanceTo(p Point) float64 {
	d := s.B.Sub(s.A)
	l2 := d.Dot(d)
	if l2 == 0 {
		return p.Dist(s.A)
	}
	t := math.Max(0, math.Min(1, p.Sub(s.A).Dot(d)/l2))
	return p.Dist(s.A.Lerp(s.B, t))
}

// Tape is a strip of reflective tape on the floor.
type Tape struct {
	Segment `yaml:",inline"`
	Width   float64 `yaml:"width" json:"width"`
}

// Beacon is one coloured panel of a beacon, seen by the colour sensor
// within Range.
type Beacon struct {
	At    Point   `yaml:"at" json:"at"`
	Color string  `yaml:"color" json:"color"`
	Range float64 `yaml:"range" json:"range"`
}

type Field struct {
	Width   float64   `yaml:"width" json:"width"`
	Height  float64   `yaml:"height" json:"height"`
	Walls   []Segment `yaml:"walls" json:"walls"`
	Tapes   []Tape    `yaml:"tapes" json:"tapes"`
	Beacons []Beacon  `yaml:"beacons" json:"beacons"`
}

// Perimeter returns the four walls of a w by h field with a corner at the
// origin.
func Perimeter(w, h float64) []Segment {
	return []Segment{
		{Point{0, 0}, Point{w, 0}},
		{Point{w, 0}, Point{w, h}},
		{Point{w, h}, Point{0, h}},
		{Point{0, h}, Point{0, 0}},
	}
}

// DefaultField is a 12ft square field with two beacons on the north wall,
// each with a tape line running south from it.
func DefaultField() Field {
	return Field{
		Width:  144,
		Height: 144,
		Walls:  Perimeter(144, 144),
		Tapes: []Tape{
			{Segment: Segment{Point{60, 96}, Point{60, 144}}, Width: 2},
			{Segment: Segment{Point{108, 96}, Point{108, 144}}, Width: 2},
		},
		Beacons: []Beacon{
			{At: Point{57.5, 144}, Color: "red", Range: 16},
			{At: Point{62.5, 144}, Color: "blue", Range: 16},
			{At: Point{105.5, 144}, Color: "blue", Range: 16},
			{At: Point{110.5, 144}, Color: "red", Range: 16},
		},
	}
}

// RayCast returns the distance from origin along angle to the nearest wall,
// or maxRange when no wall is closer.
func (f *Field) RayCast(origin Point, angle, maxRange float64) float64 {
	dir := Point{math.Cos(angle), math.Sin(angle)}
	best := maxRange
	for _, w := range f.Walls {
		seg := w.B.Sub(w.A)
		denom := dir.Cross(seg)
		if math.Abs(denom) < 1e-12 {
			continue
		}
		rel := w.A.Sub(origin)
		t := rel.Cross(seg) / denom
		u := rel.Cross(dir) / denom
		if t >= 0 && u >= 0 && u <= 1 && t < best {
			best = t
		}
	}
	return best
}

// OnTape reports whether p lies on any tape strip.
func (f *Field) OnTape(p Point) bool {
	for _, t := range f.Tapes {
		if t.DistanceTo(p) <= t.Width/2 {
			return true
		}
	}
	return false
}

// NearestBeacon returns the closest beacon panel whose range covers p.
func (f *Field) NearestBeacon(p Point) (Beacon, bool) {
	var (
		found Beacon
		best  = math.Inf(1)
	)
	for _, b := range f.Beacons {
		d := b.At.Dist(p)
		if d <= b.Range && d < best {
			found, best = b, d
		}
	}
	return found, !math.IsInf(best, 1)
}

// Contains reports whether p is inside the field bounds.
func (f *Field) Contains(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X <= f.Width && p.Y <= f.Height
}
