package viz

import (
	"sort"

	"github.com/guptarohit/asciigraph"
	"github.com/pkg/errors"

	"github.com/san-kum/autodrive/internal/experiment"
	"github.com/san-kum/autodrive/internal/physics"
)

// Series extract one value per sample for plotting.
var Series = map[string]func(experiment.Sample) float64{
	"heading":    func(s experiment.Sample) float64 { return s.Heading },
	"reading":    func(s experiment.Sample) float64 { return s.Reading },
	"target":     func(s experiment.Sample) float64 { return s.Target },
	"error":      func(s experiment.Sample) float64 { return s.Target - s.Reading },
	"correction": func(s experiment.Sample) float64 { return s.Correction },
	"left":       func(s experiment.Sample) float64 { return s.Left },
	"right":      func(s experiment.Sample) float64 { return s.Right },
	"x":          func(s experiment.Sample) float64 { return s.X },
	"y":          func(s experiment.Sample) float64 { return s.Y },
}

func SeriesNames() []string {
	names := make([]string, 0, len(Series))
	for name := range Series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PlotSeries draws the named series over samples as an ASCII graph.
func PlotSeries(samples []experiment.Sample, names []string, width, height int) (string, error) {
	if len(samples) == 0 {
		return "", errors.New("viz: no samples")
	}
	data := make([][]float64, 0, len(names))
	for _, name := range names {
		fn, ok := Series[name]
		if !ok {
			return "", errors.Errorf("viz: unknown series %q", name)
		}
		values := make([]float64, len(samples))
		for i, s := range samples {
			values[i] = fn(s)
		}
		data = append(data, values)
	}
	if len(data) == 0 {
		return "", errors.New("viz: no series")
	}

	caption := names[0]
	for _, n := range names[1:] {
		caption += ", " + n
	}
	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	), nil
}

// PlotPath draws the field and the path the samples trace across it.
func PlotPath(field physics.Field, samples []experiment.Sample, cols, rows int) string {
	view := NewFieldView(field, cols, rows)
	view.DrawField()
	points := make([]physics.Point, len(samples))
	for i, s := range samples {
		points[i] = physics.Point{X: s.X, Y: s.Y}
	}
	view.DrawPath(points)
	return view.String()
}
