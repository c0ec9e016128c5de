package drive_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/autodrive/internal/drive"
)

var _ = Describe("UltrasonicDrive", func() {
	var (
		bot      *fakeBot
		leading  *fakeRange
		trailing *fakeRange
		u        *drive.UltrasonicDrive
	)

	BeforeEach(func() {
		bot = newFakeBot()
		leading = &fakeRange{}
		trailing = &fakeRange{}
		u = drive.NewUltrasonicDrive(bot.loop(), leading, trailing, drive.DefaultUltrasonicConfig())
	})

	It("reads the calibrated difference", func() {
		leading.distance, trailing.distance = 12, 10
		Expect(u.Reading()).To(BeNumerically("~", 1.9593, 1e-9))
	})

	It("finishes once parallel for the stable time", func() {
		leading.distance, trailing.distance = 10.0407, 10
		start := bot.clk.Now()
		Expect(u.Parallelize(context.Background())).To(Succeed())
		Expect(bot.clk.Since(start)).To(Equal(90 * time.Millisecond))
	})

	It("turns with clamped power and times out when it cannot square up", func() {
		leading.distance, trailing.distance = 12, 10
		start := bot.clk.Now()
		Expect(u.Parallelize(context.Background())).To(Succeed())

		elapsed := bot.clk.Since(start)
		Expect(elapsed).To(BeNumerically(">=", 5*time.Second))
		Expect(elapsed).To(BeNumerically("<", 5*time.Second+30*time.Millisecond))
		Expect(bot.left.writes[0]).To(BeNumerically("~", -0.22, 1e-9))
		Expect(bot.right.writes[0]).To(BeNumerically("~", 0.22, 1e-9))
		Expect(lastWrite(bot.left)).To(BeZero())
	})
})
