package drive_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/autodrive/internal/drive"
)

var _ = Describe("EncoderDrive", func() {
	var (
		bot *fakeBot
		e   *drive.EncoderDrive
	)

	BeforeEach(func() {
		bot = newFakeBot()
		e = drive.NewEncoderDrive(bot.loop(), drive.DefaultEncoderConfig())
	})

	It("drives both sides at the same power", func() {
		Expect(e.Drive(context.Background(), 0.5, 10)).To(Succeed())

		Expect(bot.odometer).To(BeNumerically(">=", 10))
		Expect(bot.odometer).To(BeNumerically("<", 10.2))
		writes := bot.left.writes
		for _, p := range writes[:len(writes)-1] {
			Expect(p).To(Equal(0.5))
		}
		Expect(bot.right.writes).To(Equal(writes))
		Expect(lastWrite(bot.left)).To(BeZero())
	})

	DescribeTable("rotates toward the direction",
		func(dir drive.Direction, sign float64) {
			Expect(e.Rotate(context.Background(), 0.4, 6, dir)).To(Succeed())

			Expect(bot.left.writes[0]).To(Equal(sign * 0.4))
			Expect(bot.right.writes[0]).To(Equal(-sign * 0.4))
			Expect(bot.odometer).To(BeNumerically("~", 0, 1e-9))
			Expect(float64(bot.left.Position()) * sign).To(BeNumerically(">=", 6*drive.CountsPerInch-1))
			Expect(bot.heading * sign).To(BeNumerically("<", 0))
		},
		Entry("right", drive.Right, 1.0),
		Entry("left", drive.Left, -1.0),
	)

	It("parses directions", func() {
		d, err := drive.ParseDirection("Left")
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(Equal(drive.Left))
		Expect(d.Opposite()).To(Equal(drive.Right))
		Expect(d.String()).To(Equal("left"))

		_, err = drive.ParseDirection("up")
		Expect(err).To(HaveOccurred())
	})
})
