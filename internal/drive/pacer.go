package drive

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultPeriod paces runs whose corrector has no sample delay.
const DefaultPeriod = 10 * time.Millisecond

// Pacer blocks the control goroutine between ticks. Implementations return
// ctx.Err() as soon as the context is done.
type Pacer interface {
	Wait(ctx context.Context, d time.Duration) error
}

// PacerFunc adapts a function to a Pacer.
type PacerFunc func(ctx context.Context, d time.Duration) error

func (f PacerFunc) Wait(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// ClockPacer waits on a clock.
type ClockPacer struct {
	Clock clock.Clock
}

func NewClockPacer(clk clock.Clock) *ClockPacer {
	if clk == nil {
		clk = clock.New()
	}
	return &ClockPacer{Clock: clk}
}

func (p *ClockPacer) Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	timer := p.Clock.Timer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Sleep pauses between maneuvers and returns early with the context's error
// when it is cancelled.
func Sleep(ctx context.Context, pacer Pacer, d time.Duration) error {
	return pacer.Wait(ctx, d)
}
