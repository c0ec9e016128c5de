package drive

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/san-kum/autodrive/internal/control"
	"github.com/san-kum/autodrive/internal/hardware"
	"github.com/san-kum/autodrive/internal/logging"
	"github.com/san-kum/autodrive/internal/terminator"
)

// Tick is what observers see after every actuator write.
type Tick struct {
	Run        int
	Elapsed    time.Duration
	Reading    float64
	Target     float64
	Correction float64
	P, I, D    float64
	Left       float64
	Right      float64
}

type Observer interface {
	OnTick(t Tick)
}

type ObserverFunc func(t Tick)

func (f ObserverFunc) OnTick(t Tick) { f(t) }

// Loop owns the two drive motors and runs one control session at a time.
type Loop struct {
	left, right hardware.Motor
	pacer       Pacer
	clk         clock.Clock
	logger      *zap.SugaredLogger

	mu        sync.Mutex
	observers []Observer
	runs      int
}

func NewLoop(left, right hardware.Motor, pacer Pacer, clk clock.Clock, logger *zap.SugaredLogger) *Loop {
	if clk == nil {
		clk = clock.New()
	}
	if pacer == nil {
		pacer = NewClockPacer(clk)
	}
	logger = logging.OrNop(logger)
	return &Loop{
		left:   left,
		right:  right,
		pacer:  pacer,
		clk:    clk,
		logger: logger,
	}
}

func (l *Loop) AddObserver(o Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, o)
}

func (l *Loop) Clock() clock.Clock         { return l.clk }
func (l *Loop) Pacer() Pacer               { return l.pacer }
func (l *Loop) Logger() *zap.SugaredLogger { return l.logger }

// EncoderAverage is the mean encoder position of the two sides.
func (l *Loop) EncoderAverage() int {
	return (l.left.Position() + l.right.Position()) / 2
}

// ResetEncoders zeroes both drive encoders. Encoders that refuse to reset
// are logged and otherwise ignored: callers measure travel from the
// position they start at. Only cancellation is returned.
func (l *Loop) ResetEncoders(ctx context.Context) error {
	if err := ResetEncoders(ctx, l.pacer, l.left, l.right); err != nil {
		if ctx.Err() != nil {
			return err
		}
		l.logger.Warnw("encoder reset", "error", err)
	}
	return nil
}

// Stop sets both sides to zero.
func (l *Loop) Stop() {
	l.left.SetPower(0)
	l.right.SetPower(0)
}

// Control runs one session: it resets c, aims it at target, then ticks until
// term reports true or ctx is done. The first write happens before the first
// evaluation of term; every later write follows an evaluation that decided
// to continue. Both sides are zeroed last, whatever the exit path.
func (l *Loop) Control(ctx context.Context, c control.Corrector, target, offset float64, read func() float64, term terminator.Terminator) error {
	c.Reset()
	c.SetTarget(target)

	l.mu.Lock()
	l.runs++
	run := l.runs
	observers := append([]Observer(nil), l.observers...)
	l.mu.Unlock()

	defer l.Stop()

	period := c.SampleDelay()
	if period <= 0 {
		period = DefaultPeriod
	}

	start := l.clk.Now()
	for ticks := 0; ; ticks++ {
		if err := ctx.Err(); err != nil {
			l.logger.Debugw("control cancelled", "run", run, "ticks", ticks)
			return err
		}
		tickStart := l.clk.Now()

		reading := read()
		correction := c.Update(reading)
		left, right := offset+correction, offset-correction
		l.left.SetPower(left)
		l.right.SetPower(right)

		tick := Tick{
			Run:        run,
			Elapsed:    tickStart.Sub(start),
			Reading:    reading,
			Target:     target,
			Correction: correction,
			P:          c.Proportional(),
			I:          c.Integral(),
			D:          c.Derivative(),
			Left:       left,
			Right:      right,
		}
		l.logger.Debugw("pid", "p", tick.P, "i", tick.I, "d", tick.D, "correction", correction, "reading", reading)
		for _, o := range observers {
			o.OnTick(tick)
		}

		if term.ShouldTerminate() {
			l.logger.Debugw("control finished", "run", run, "ticks", ticks+1, "elapsed", l.clk.Since(start))
			return nil
		}

		if wait := period - l.clk.Since(tickStart); wait > 0 {
			if err := l.pacer.Wait(ctx, wait); err != nil {
				return err
			}
		}
	}
}
