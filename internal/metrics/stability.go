package metrics

import (
	"math"

	"github.com/san-kum/autodrive/internal/drive"
)

// Stability is the fraction of ticks whose error is within threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(t drive.Tick) {
	s.samples++
	if math.Abs(t.Target-t.Reading) > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// PeakError is the largest absolute error seen.
type PeakError struct {
	peak float64
}

func NewPeakError() *PeakError { return &PeakError{} }

func (p *PeakError) Name() string { return "peak_error" }

func (p *PeakError) Observe(t drive.Tick) {
	p.peak = math.Max(p.peak, math.Abs(t.Target-t.Reading))
}

func (p *PeakError) Value() float64 { return p.peak }
func (p *PeakError) Reset()         { p.peak = 0 }

// Oscillation counts sign changes of the error within each run. A session
// that overshoots once and settles scores 1.
type Oscillation struct {
	run      int
	lastSign float64
	changes  int
}

func NewOscillation() *Oscillation { return &Oscillation{} }

func (o *Oscillation) Name() string { return "oscillation" }

func (o *Oscillation) Observe(t drive.Tick) {
	if t.Run != o.run {
		o.run = t.Run
		o.lastSign = 0
	}
	s := sign(t.Target - t.Reading)
	if s == 0 {
		return
	}
	if o.lastSign != 0 && s != o.lastSign {
		o.changes++
	}
	o.lastSign = s
}

func (o *Oscillation) Value() float64 { return float64(o.changes) }

func (o *Oscillation) Reset() {
	o.run = 0
	o.lastSign = 0
	o.changes = 0
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
