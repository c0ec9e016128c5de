// Package metrics scores control sessions from the ticks a drive.Loop
// reports to its observers.
package metrics

import (
	"sort"

	"github.com/san-kum/autodrive/internal/drive"
)

type Metric interface {
	Name() string
	Observe(t drive.Tick)
	Value() float64
	Reset()
}

// Set feeds every tick to each of its metrics. It is a drive.Observer.
type Set []Metric

func (s Set) OnTick(t drive.Tick) {
	for _, m := range s {
		m.Observe(t)
	}
}

func (s Set) Values() map[string]float64 {
	values := make(map[string]float64, len(s))
	for _, m := range s {
		values[m.Name()] = m.Value()
	}
	return values
}

func (s Set) Reset() {
	for _, m := range s {
		m.Reset()
	}
}

// Default is the metric set recorded for every run.
func Default() Set {
	return Set{
		NewControlEffort(),
		NewEnergy(),
		NewPeakError(),
		NewStability(2),
		NewOscillation(),
		NewTicks(),
	}
}

// Names returns the sorted keys of values.
func Names(values map[string]float64) []string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
