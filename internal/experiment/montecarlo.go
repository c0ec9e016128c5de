package experiment

import (
	"context"
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/san-kum/autodrive/internal/automation"
	"github.com/san-kum/autodrive/internal/dynamo"
	"github.com/san-kum/autodrive/internal/sim"
)

// MonteCarloConfig perturbs the start pose of a routine. Offsets are drawn
// uniformly from [-jitter, +jitter].
type MonteCarloConfig struct {
	Trials         int
	Seed           int64
	PositionJitter float64 // inches
	HeadingJitter  float64 // degrees
	// Tolerance is how far, in degrees, a trial's final heading may be from
	// the unperturbed run's and still count as a success.
	Tolerance float64
	Workers   int
}

func DefaultMonteCarloConfig() MonteCarloConfig {
	return MonteCarloConfig{
		Trials:         50,
		Seed:           1,
		PositionJitter: 1,
		HeadingJitter:  2,
		Tolerance:      5,
	}
}

// MonteCarloTrial is the outcome of one perturbed run.
type MonteCarloTrial struct {
	TrialID int
	Start   sim.Start
	Final   sim.Start
	Success bool
	Err     error
}

type MonteCarloResult struct {
	Nominal   *Result
	Trials    []MonteCarloTrial
	Successes int
}

func (r *MonteCarloResult) SuccessRate() float64 {
	if len(r.Trials) == 0 {
		return 0
	}
	return float64(r.Successes) / float64(len(r.Trials))
}

// MonteCarlo runs routine once from its nominal start, then mc.Trials times
// from perturbed starts in parallel. Trials are seeded individually, so the
// outcome does not depend on scheduling.
func (e *Experiment) MonteCarlo(ctx context.Context, routine *automation.Routine, mc MonteCarloConfig) (*MonteCarloResult, error) {
	if mc.Trials <= 0 {
		return nil, errors.Errorf("experiment: trials must be positive, got %d", mc.Trials)
	}

	nominal := New(e.cfg, e.logger)
	if err := nominal.Setup(routine); err != nil {
		return nil, err
	}
	base, err := nominal.Run(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "experiment: nominal run")
	}

	quiet := e.logger.Desugar().WithOptions(zap.IncreaseLevel(zapcore.WarnLevel)).Sugar()
	trials := make([]MonteCarloTrial, mc.Trials)
	dynamo.ParallelFor(mc.Trials, mc.Workers, func(i int) {
		rng := rand.New(rand.NewSource(mc.Seed + int64(i)))
		start := sim.Start{
			X:       base.Start.X + jitter(rng, mc.PositionJitter),
			Y:       base.Start.Y + jitter(rng, mc.PositionJitter),
			Heading: base.Start.Heading + jitter(rng, mc.HeadingJitter),
		}
		trial := MonteCarloTrial{TrialID: i, Start: start}

		exp := New(e.cfg, quiet)
		if err := exp.setup(routine, &start); err != nil {
			trial.Err = err
			trials[i] = trial
			return
		}
		res, err := exp.Run(ctx)
		trial.Final = res.Final
		trial.Err = err
		trial.Success = err == nil && math.Abs(angleDiff(res.Final.Heading, base.Final.Heading)) <= mc.Tolerance
		trials[i] = trial
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &MonteCarloResult{Nominal: base, Trials: trials}
	for _, t := range trials {
		if t.Success {
			out.Successes++
		}
	}
	e.logger.Infow("monte carlo", "routine", routine.Name, "trials", mc.Trials, "successes", out.Successes)
	return out, nil
}

func jitter(rng *rand.Rand, amount float64) float64 {
	return (rng.Float64() - 0.5) * 2 * amount
}

// angleDiff returns a-b wrapped into (-180, 180].
func angleDiff(a, b float64) float64 {
	d := math.Mod(a-b, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}
