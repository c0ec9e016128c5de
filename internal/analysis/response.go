package analysis

import (
	"math"

	"github.com/san-kum/autodrive/internal/experiment"
)

// Response summarises one control session.
type Response struct {
	Run          int
	Step         int
	Ticks        int
	Duration     float64
	InitialError float64
	FinalError   float64
	// Overshoot is how far the reading went past the target, in reading
	// units. Zero when the error never changed sign.
	Overshoot float64
	// SettlingTime is when the error entered the tolerance band for good,
	// relative to the session start. Settled is false if it never did.
	SettlingTime float64
	Settled      bool
	// Frequency is the dominant oscillation of the error in Hz.
	Frequency float64
}

// SplitRuns groups consecutive samples by control session.
func SplitRuns(samples []experiment.Sample) [][]experiment.Sample {
	var runs [][]experiment.Sample
	for i, s := range samples {
		if i == 0 || s.Run != samples[i-1].Run {
			runs = append(runs, nil)
		}
		runs[len(runs)-1] = append(runs[len(runs)-1], s)
	}
	return runs
}

// Responses analyses every session in samples. tolerance is in reading units.
func Responses(samples []experiment.Sample, tolerance float64) []Response {
	runs := SplitRuns(samples)
	out := make([]Response, 0, len(runs))
	for _, run := range runs {
		out = append(out, response(run, tolerance))
	}
	return out
}

func response(run []experiment.Sample, tolerance float64) Response {
	first, last := run[0], run[len(run)-1]
	r := Response{
		Run:          first.Run,
		Step:         first.Step,
		Ticks:        len(run),
		Duration:     last.Time - first.Time,
		InitialError: first.Target - first.Reading,
		FinalError:   last.Target - last.Reading,
	}

	initialSign := math.Copysign(1, r.InitialError)
	errs := make([]float64, len(run))
	settledAt := -1
	for i, s := range run {
		e := s.Target - s.Reading
		errs[i] = e
		if r.InitialError != 0 && e*initialSign < 0 {
			r.Overshoot = math.Max(r.Overshoot, math.Abs(e))
		}
		switch {
		case math.Abs(e) > tolerance:
			settledAt = -1
		case settledAt < 0:
			settledAt = i
		}
	}
	if settledAt >= 0 {
		r.Settled = true
		r.SettlingTime = run[settledAt].Time - first.Time
	}
	if r.Duration > 0 && len(run) > 1 {
		rate := float64(len(run)-1) / r.Duration
		r.Frequency, _ = DominantFrequency(errs, rate)
	}
	return r
}
