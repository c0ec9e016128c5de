package drive_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/autodrive/internal/control"
	"github.com/san-kum/autodrive/internal/drive"
	"github.com/san-kum/autodrive/internal/terminator"
)

var _ = Describe("Loop", func() {
	var (
		bot  *fakeBot
		loop *drive.Loop
		ctx  context.Context
	)

	BeforeEach(func() {
		bot = newFakeBot()
		loop = bot.loop()
		ctx = context.Background()
	})

	It("writes one non-zero pair then zero when the terminator is immediately true", func() {
		always := terminator.Func(func() bool { return true })
		err := loop.Control(ctx, control.NewConstant(0.1, 0), 0, 0.3, func() float64 { return 0 }, always)

		Expect(err).NotTo(HaveOccurred())
		Expect(bot.left.writes).To(HaveLen(2))
		Expect(bot.right.writes).To(HaveLen(2))
		Expect(bot.left.writes[0]).To(BeNumerically("~", 0.4, 1e-9))
		Expect(bot.right.writes[0]).To(BeNumerically("~", 0.2, 1e-9))
		Expect(lastWrite(bot.left)).To(BeZero())
		Expect(lastWrite(bot.right)).To(BeZero())
	})

	It("applies offset plus and minus the correction", func() {
		pid := control.NewPID(control.PIDConfig{Kp: 0.1, Delay: 30 * time.Millisecond}, 0)
		var ticks []drive.Tick
		loop.AddObserver(drive.ObserverFunc(func(t drive.Tick) { ticks = append(ticks, t) }))

		n := 0
		term := terminator.Func(func() bool { n++; return n == 3 })
		Expect(loop.Control(ctx, pid, 2, 0.5, func() float64 { return 1 }, term)).To(Succeed())

		Expect(ticks).To(HaveLen(3))
		for i, t := range ticks {
			Expect(t.Correction).To(BeNumerically("~", 0.1, 1e-9))
			Expect(t.Left).To(BeNumerically("~", 0.6, 1e-9))
			Expect(t.Right).To(BeNumerically("~", 0.4, 1e-9))
			Expect(t.Target).To(Equal(2.0))
			Expect(t.Elapsed).To(Equal(time.Duration(i) * 30 * time.Millisecond))
		}
		Expect(bot.left.writes).To(Equal([]float64{ticks[0].Left, ticks[1].Left, ticks[2].Left, 0}))
	})

	It("resets the corrector at the start of every run", func() {
		pid := control.NewPID(control.PIDConfig{Ki: 1}, 0)
		once := terminator.Func(func() bool { return true })

		Expect(loop.Control(ctx, pid, 5, 0, func() float64 { return 0 }, once)).To(Succeed())
		Expect(pid.Integral()).To(Equal(5.0))

		Expect(loop.Control(ctx, pid, 1, 0, func() float64 { return 0 }, once)).To(Succeed())
		Expect(pid.Integral()).To(Equal(1.0))
	})

	It("paces open-loop runs at the default period", func() {
		start := bot.clk.Now()
		term := terminator.NewTimer(bot.clk, 100*time.Millisecond)
		Expect(loop.Control(ctx, control.NewConstant(0, 0), 0, 0.2, func() float64 { return 0 }, term)).To(Succeed())

		Expect(bot.clk.Since(start)).To(Equal(100 * time.Millisecond))
		// eleven ticks at 0, 10, ... 100ms, then the zero write
		Expect(bot.left.writes).To(HaveLen(12))
	})

	It("returns the context error and zeroes power on cancellation", func() {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		ticks := 0
		loop.AddObserver(drive.ObserverFunc(func(drive.Tick) {
			ticks++
			if ticks == 5 {
				cancel()
			}
		}))

		err := loop.Control(ctx, control.NewConstant(0, 0), 0, 0.7, func() float64 { return 0 }, terminator.Never)
		Expect(err).To(MatchError(context.Canceled))
		Expect(ticks).To(Equal(5))
		Expect(lastWrite(bot.left)).To(BeZero())
		Expect(lastWrite(bot.right)).To(BeZero())
	})

	It("never writes non-zero power once the context is already done", func() {
		ctx, cancel := context.WithCancel(ctx)
		cancel()

		err := loop.Control(ctx, control.NewConstant(0, 0), 0, 1, func() float64 { return 0 }, terminator.Never)
		Expect(err).To(MatchError(context.Canceled))
		Expect(bot.left.writes).To(Equal([]float64{0}))
		Expect(bot.right.writes).To(Equal([]float64{0}))
	})
})

var _ = Describe("ResetEncoders", func() {
	It("zeroes every motor", func() {
		bot := newFakeBot()
		bot.left.counts, bot.right.counts = 120, -40
		Expect(drive.ResetEncoders(context.Background(), bot, bot.left, bot.right)).To(Succeed())
		Expect(bot.left.Position()).To(BeZero())
		Expect(bot.right.Position()).To(BeZero())
	})

	It("gives up on an encoder that will not reset", func() {
		bot := newFakeBot()
		stuck := &stuckMotor{}
		err := drive.ResetEncoders(context.Background(), bot, stuck)
		Expect(err).To(MatchError(drive.ErrEncoderReset))
	})
})

type stuckMotor struct{ fakeMotor }

func (*stuckMotor) Position() int { return 3 }
func (*stuckMotor) ResetEncoder() {}

var _ = Describe("Sleep", func() {
	It("advances the pacer", func() {
		bot := newFakeBot()
		start := bot.clk.Now()
		Expect(drive.Sleep(context.Background(), bot, 750*time.Millisecond)).To(Succeed())
		Expect(bot.clk.Since(start)).To(Equal(750 * time.Millisecond))
	})

	It("returns early when cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		Expect(drive.Sleep(ctx, drive.NewClockPacer(nil), time.Hour)).To(MatchError(context.Canceled))
	})
})
