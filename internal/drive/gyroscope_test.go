package drive_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/autodrive/internal/drive"
)

var _ = Describe("GyroscopeDrive", func() {
	var (
		bot      *fakeBot
		loop     *drive.Loop
		gyro     *fakeGyro
		leading  *fakeLight
		trailing *fakeLight
		cfg      drive.GyroscopeConfig
		ctx      context.Context
	)

	BeforeEach(func() {
		bot = newFakeBot()
		loop = bot.loop()
		gyro = &fakeGyro{bot: bot}
		leading = &fakeLight{bot: bot}
		trailing = &fakeLight{bot: bot}
		cfg = drive.DefaultGyroscopeConfig()
		ctx = context.Background()
	})

	gyroDrive := func() *drive.GyroscopeDrive {
		return drive.NewGyroscopeDrive(loop, gyro, leading, trailing, cfg)
	}

	Describe("Drive", func() {
		It("stops once the encoders cover the distance", func() {
			Expect(gyroDrive().Drive(ctx, 0.5, 24)).To(Succeed())
			Expect(bot.odometer).To(BeNumerically(">=", 24))
			Expect(bot.odometer).To(BeNumerically("<", 24.4))
			Expect(lastWrite(bot.left)).To(BeZero())
			Expect(lastWrite(bot.right)).To(BeZero())
		})

		It("steers back toward the held heading", func() {
			bot.heading = 5
			Expect(gyroDrive().Drive(ctx, 0.5, 12)).To(Succeed())
			Expect(bot.left.writes[0]).To(BeNumerically(">", bot.right.writes[0]))
			Expect(bot.heading).To(BeNumerically("<", 5))
		})

		It("gives up after the drive timeout", func() {
			cfg.DriveTimeout = 300 * time.Millisecond
			start := bot.clk.Now()
			Expect(gyroDrive().Drive(ctx, 0.1, 500)).To(Succeed())
			Expect(bot.clk.Since(start)).To(Equal(300 * time.Millisecond))
		})
	})

	Describe("Rotate", func() {
		It("ends on the timer with a stuck sensor", func() {
			gyro.stuck = true
			cfg.PID.Kd = -3.25
			start := bot.clk.Now()

			Expect(gyroDrive().Rotate(ctx, 90)).To(Succeed())

			elapsed := bot.clk.Since(start)
			Expect(elapsed).To(BeNumerically(">=", 2*time.Second))
			Expect(elapsed).To(BeNumerically("<", 2*time.Second+30*time.Millisecond))
			Expect(lastWrite(bot.left)).To(BeZero())
			Expect(lastWrite(bot.right)).To(BeZero())
		})

		It("ends on the timer when the heading runs away", func() {
			// every reading moves by the correction applied on the last tick
			heading := 0.0
			runaway := &readingGyro{read: func() float64 {
				heading += bot.left.power
				return heading
			}}
			start := bot.clk.Now()

			g := drive.NewGyroscopeDrive(loop, runaway, leading, trailing, cfg)
			Expect(g.Rotate(ctx, 90)).To(Succeed())

			Expect(bot.clk.Since(start)).To(BeNumerically("<", 2*time.Second+30*time.Millisecond+cfg.ResetTimeout))
			Expect(lastWrite(bot.left)).To(BeZero())
			Expect(lastWrite(bot.right)).To(BeZero())
		})

		It("settles on the target and re-zeroes the heading", func() {
			var last drive.Tick
			loop.AddObserver(drive.ObserverFunc(func(t drive.Tick) { last = t }))
			start := bot.clk.Now()

			Expect(gyroDrive().Rotate(ctx, 90)).To(Succeed())

			Expect(bot.clk.Since(start)).To(BeNumerically("<", 2*time.Second))
			Expect(last.Reading).To(BeNumerically("~", 90, 2))
			Expect(bot.heading).To(BeZero())
		})

		It("turns relative to a heading that was not zeroed", func() {
			bot.heading = 30
			var last drive.Tick
			loop.AddObserver(drive.ObserverFunc(func(t drive.Tick) { last = t }))
			start := bot.clk.Now()

			Expect(gyroDrive().Rotate(ctx, 90)).To(Succeed())

			// settling on 90 would have needed the timer
			Expect(bot.clk.Since(start)).To(BeNumerically("<", 2*time.Second))
			Expect(last.Target).To(Equal(120.0))
			Expect(last.Reading).To(BeNumerically("~", 120, 2))
			Expect(bot.heading).To(BeZero())
		})
	})

	Describe("DriveUntilLine", func() {
		BeforeEach(func() {
			leading.lines = [][2]float64{{20, 21}, {40, 42}}
		})

		It("stops offset inches past a line found after the minimum", func() {
			Expect(gyroDrive().DriveUntilLine(ctx, 0.5, drive.Leading, 5, 35, 55)).To(Succeed())

			Expect(bot.odometer).To(BeNumerically("~", 45, 0.75))
			Expect(leading.on).To(BeFalse())
			Expect(leading.toggles).To(Equal(2))
			Expect(trailing.toggles).To(BeZero())
		})

		It("aborts at the maximum when there is no line", func() {
			leading.lines = nil
			Expect(gyroDrive().DriveUntilLine(ctx, 0.5, drive.Leading, 5, 35, 55)).To(Succeed())

			Expect(bot.odometer).To(BeNumerically(">=", 55))
			Expect(bot.odometer).To(BeNumerically("<", 55.4))
			Expect(leading.on).To(BeFalse())
		})

		It("looks for the line from the start without a minimum", func() {
			trailing.lines = [][2]float64{{10, 11}}
			Expect(gyroDrive().DriveUntilLine(ctx, 0.5, drive.Trailing, 0, 0, 0)).To(Succeed())

			Expect(bot.odometer).To(BeNumerically("~", 10, 0.4))
			Expect(trailing.toggles).To(Equal(2))
		})

		It("drives backwards", func() {
			Expect(gyroDrive().DriveUntilLine(ctx, -0.5, drive.Leading, 2, 0, 30)).To(Succeed())
			Expect(bot.odometer).To(BeNumerically("~", -30, 0.4))
		})
	})

	Describe("ResetOrientation", func() {
		It("waits for the sensor to report zero", func() {
			lagging := &laggingGyro{bot: bot, heading: 30, settle: 40 * time.Millisecond}
			g := drive.NewGyroscopeDrive(loop, lagging, leading, trailing, cfg)
			Expect(g.ResetOrientation(ctx)).To(Succeed())
			Expect(lagging.Heading()).To(BeZero())
		})

		It("stops waiting after the reset timeout", func() {
			lagging := &laggingGyro{bot: bot, heading: 30, settle: time.Hour}
			g := drive.NewGyroscopeDrive(loop, lagging, leading, trailing, cfg)
			start := bot.clk.Now()
			Expect(g.ResetOrientation(ctx)).To(Succeed())
			Expect(bot.clk.Since(start)).To(BeNumerically("~", cfg.ResetTimeout, time.Millisecond))
		})
	})
})

type readingGyro struct{ read func() float64 }

func (g *readingGyro) Heading() float64 { return g.read() }
func (g *readingGyro) ZeroHeading()     {}

// laggingGyro only reports a zeroed heading settle after ZeroHeading.
type laggingGyro struct {
	bot     *fakeBot
	heading float64
	settle  time.Duration
	zeroAt  time.Time
	zeroed  bool
}

func (g *laggingGyro) ZeroHeading() {
	g.zeroAt = g.bot.clk.Now()
	g.zeroed = true
}

func (g *laggingGyro) Heading() float64 {
	if g.zeroed && g.bot.clk.Since(g.zeroAt) >= g.settle {
		return 0
	}
	return g.heading
}
