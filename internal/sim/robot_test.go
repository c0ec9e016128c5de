package sim_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/multierr"

	"github.com/san-kum/autodrive/internal/drive"
	"github.com/san-kum/autodrive/internal/hardware"
	"github.com/san-kum/autodrive/internal/physics"
	"github.com/san-kum/autodrive/internal/sim"
)

var _ = Describe("Config", func() {
	It("accepts the defaults", func() {
		Expect(sim.DefaultConfig().Validate()).To(Succeed())
	})

	It("reports every problem", func() {
		cfg := sim.DefaultConfig()
		cfg.Step = 0
		cfg.RealTime = -1
		cfg.Integrator = "leapfrog"
		cfg.Start = sim.Start{X: -5, Y: 10}

		err := cfg.Validate()
		Expect(errors.Is(err, sim.ErrInvalidConfig)).To(BeTrue())
		Expect(multierr.Errors(err)).To(HaveLen(4))

		_, err = sim.NewRobot(cfg, nil)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Robot", func() {
	var r *rig

	BeforeEach(func() {
		r = newRig()
	})

	It("registers every device", func() {
		Expect(r.hw.Left).To(BeIdenticalTo(r.robot.Left()))
		Expect(r.hw.Right).To(BeIdenticalTo(r.robot.Right()))
		Expect(r.hw.Gyro).To(BeIdenticalTo(r.robot.Gyro()))
		Expect(r.hw.LeadingLight).To(BeIdenticalTo(r.robot.LeadingLight()))
		Expect(r.hw.BeaconPusher).To(BeIdenticalTo(r.robot.BeaconPusher()))
	})

	It("reads the wall on its left", func() {
		Expect(r.hw.LeadingUltrasonic.Distance()).To(BeNumerically("~", 7, 1e-9))
		Expect(r.hw.TrailingUltrasonic.Distance()).To(BeNumerically("~", 7, 1e-9))
	})

	It("sees the floor only with the illuminator on", func() {
		Expect(r.hw.LeadingLight.Intensity()).To(Equal(sim.IntensityAmbient))
		r.hw.LeadingLight.SetIlluminator(true)
		Expect(r.hw.LeadingLight.Intensity()).To(Equal(sim.IntensityFloor))
		Expect(r.robot.Snapshot().LeadingLit).To(BeTrue())
	})

	It("sees tape under a lit sensor", func() {
		r = newRig(startAt(54, 130, 0))
		r.hw.LeadingLight.SetIlluminator(true)
		r.hw.TrailingLight.SetIlluminator(true)
		Expect(r.hw.LeadingLight.Intensity()).To(Equal(sim.IntensityTape))
		Expect(r.hw.TrailingLight.Intensity()).To(Equal(sim.IntensityFloor))
	})

	It("counts wheel travel on the encoders", func() {
		start := r.robot.Clock().Now()
		r.hw.Left.SetPower(0.5)
		r.hw.Right.SetPower(0.5)
		Expect(r.robot.Advance(time.Second)).To(Succeed())

		Expect(r.hw.Left.Power()).To(Equal(0.5))
		Expect(r.hw.Left.Position()).To(BeNumerically(">", 18*drive.CountsPerInch))
		Expect(r.hw.Left.Position()).To(Equal(r.hw.Right.Position()))
		Expect(r.robot.Elapsed()).To(Equal(time.Second))
		Expect(r.robot.Clock().Since(start)).To(Equal(time.Second))

		r.hw.Left.ResetEncoder()
		Expect(r.hw.Left.Position()).To(BeZero())
		Expect(r.hw.Right.Position()).NotTo(BeZero())
	})

	It("clamps motor power", func() {
		r.hw.Left.SetPower(3)
		Expect(r.hw.Left.Power()).To(Equal(1.0))
	})

	It("publishes the heading at the gyro interval", func() {
		gyro := r.robot.Gyro()
		r.hw.Left.SetPower(-0.5)
		r.hw.Right.SetPower(0.5)

		Expect(r.robot.Advance(5 * time.Millisecond)).To(Succeed())
		Expect(gyro.Heading()).To(BeZero())
		Expect(gyro.Cell().Age(r.robot.Clock().Now())).To(Equal(5 * time.Millisecond))

		Expect(r.robot.Advance(5 * time.Millisecond)).To(Succeed())
		Expect(gyro.Heading()).To(BeNumerically(">", 0))
		Expect(gyro.Cell().Age(r.robot.Clock().Now())).To(BeZero())
	})

	It("zeroes the heading at the next publish", func() {
		gyro := r.robot.Gyro()
		r.hw.Left.SetPower(-0.5)
		r.hw.Right.SetPower(0.5)
		Expect(r.robot.Advance(200 * time.Millisecond)).To(Succeed())
		before := gyro.Heading()
		Expect(before).To(BeNumerically(">", 1))

		gyro.ZeroHeading()
		Expect(gyro.Heading()).To(Equal(before))

		r.hw.Left.SetPower(0)
		r.hw.Right.SetPower(0)
		Expect(r.robot.Advance(10 * time.Millisecond)).To(Succeed())
		Expect(gyro.Heading()).To(BeZero())
	})

	It("reports leaving the field", func() {
		r.hw.Left.SetPower(1)
		r.hw.Right.SetPower(1)
		Expect(r.robot.Advance(4 * time.Second)).To(Succeed())
		Expect(r.robot.Snapshot().OffField).To(BeTrue())
		Expect(r.robot.Err()).NotTo(HaveOccurred())
	})

	It("stops on a cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		Expect(r.robot.Wait(ctx, time.Second)).To(MatchError(context.Canceled))
		Expect(r.robot.Elapsed()).To(BeZero())
	})

	It("blocks in real time while the context is live", func() {
		r = newRig(func(c *sim.Config) { c.RealTime = 0.001 })
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		Expect(r.robot.Wait(ctx, time.Second)).To(MatchError(context.DeadlineExceeded))
		Expect(r.robot.Elapsed()).To(Equal(time.Second))
	})

	It("takes a snapshot of the pose and powers", func() {
		r.hw.Left.SetPower(0.25)
		r.hw.Right.SetPower(0.25)
		Expect(r.robot.Advance(500 * time.Millisecond)).To(Succeed())

		s := r.robot.Snapshot()
		Expect(s.Elapsed).To(Equal(500 * time.Millisecond))
		Expect(s.Pose.X).To(BeNumerically(">", 13))
		Expect(s.Pose.Y).To(BeNumerically("~", 130, 1e-9))
		Expect(s.Left).To(Equal(0.25))
		Expect(s.VLeft).To(BeNumerically("~", 10, 0.01))
		Expect(s.Pusher).To(Equal(1.0))
	})

	Describe("beacon sensor", func() {
		It("reads ambient light away from the beacons", func() {
			Expect(r.hw.BeaconSensor.Red()).To(Equal(3))
			Expect(r.hw.BeaconSensor.Blue()).To(Equal(2))
		})

		It("sees the nearest panel once calibrated", func() {
			color := hardware.NewCalibratedColor(r.hw.BeaconSensor, nil)
			Expect(color.IsColor(hardware.Red)).To(BeFalse())
			Expect(color.IsColor(hardware.Blue)).To(BeFalse())

			Expect(r.gyroscope().Drive(context.Background(), 0.5, 44.5)).To(Succeed())
			Expect(r.robot.Pose().X).To(BeNumerically("~", 57.5, 0.5))
			Expect(color.IsColor(hardware.Red)).To(BeTrue())
			Expect(color.IsColor(hardware.Blue)).To(BeFalse())
		})
	})
})

var _ = Describe("Driving the simulated robot", func() {
	ctx := context.Background()

	It("drives straight for a distance", func() {
		r := newRig()
		Expect(r.gyroscope().Drive(ctx, 0.5, 24)).To(Succeed())

		pose := r.robot.Pose()
		Expect(pose.X - 13).To(BeNumerically(">=", 24))
		Expect(pose.X - 13).To(BeNumerically("<", 24.6))
		Expect(pose.Y).To(BeNumerically("~", 130, 0.01))
		Expect(r.hw.Left.Power()).To(BeZero())
		Expect(r.hw.Right.Power()).To(BeZero())
	})

	It("rotates ninety degrees and re-zeroes the gyro", func() {
		r := newRig()
		Expect(r.gyroscope().Rotate(ctx, 90)).To(Succeed())

		Expect(r.robot.Elapsed()).To(BeNumerically("<", 2*time.Second))
		Expect(degrees(r.robot.Pose().Heading)).To(BeNumerically("~", 90, 2))
		Expect(r.hw.Gyro.Heading()).To(BeNumerically("~", 0, 1))
	})

	It("turns clockwise for negative angles", func() {
		r := newRig()
		Expect(r.gyroscope().Rotate(ctx, -40)).To(Succeed())
		Expect(degrees(r.robot.Pose().Heading)).To(BeNumerically("~", -40, 2))
	})

	Describe("until a line", func() {
		It("stops offset inches past the first line after min", func() {
			r := newRig()
			err := r.gyroscope().DriveUntilLine(ctx, 0.25, drive.Leading, 5, 35, 55)
			Expect(err).NotTo(HaveOccurred())

			Expect(r.robot.Pose().X - 13).To(BeNumerically("~", 45.5, 1))
			Expect(r.robot.LeadingLight().Illuminated()).To(BeFalse())
			Expect(r.robot.TrailingLight().Illuminated()).To(BeFalse())
		})

		It("gives up at max when the line was passed before min", func() {
			r := newRig()
			err := r.gyroscope().DriveUntilLine(ctx, 0.25, drive.Leading, 5, 45, 55)
			Expect(err).NotTo(HaveOccurred())

			traveled := r.robot.Pose().X - 13
			Expect(traveled).To(BeNumerically(">=", 55))
			Expect(traveled).To(BeNumerically("<", 55.6))
		})

		It("backs up until the trailing sensor finds a line", func() {
			r := newRig(startAt(90, 130, 0))
			err := r.gyroscope().DriveUntilLine(ctx, -0.2, drive.Trailing, 0, 0, 0)
			Expect(err).NotTo(HaveOccurred())

			Expect(r.robot.Pose().X - 90).To(BeNumerically("~", -23.1, 0.5))
		})
	})

	DescribeTable("parallelize against the wall",
		func(heading float64) {
			r := newRig(startAt(40, 130, heading))
			Expect(r.ultrasonic().Parallelize(ctx)).To(Succeed())

			Expect(r.robot.Elapsed()).To(BeNumerically("<", time.Second))
			Expect(degrees(r.robot.Pose().Heading)).To(BeNumerically("~", 0, 0.5))
		},
		Entry("toward the wall", 5.0),
		Entry("away from the wall", -8.0),
		Entry("far off", 15.0),
	)

	It("stops mid-run when the context is cancelled", func() {
		r := newRig()
		ctx, cancel := context.WithCancel(context.Background())
		r.loop.AddObserver(drive.ObserverFunc(func(t drive.Tick) {
			if t.Elapsed >= 300*time.Millisecond {
				cancel()
			}
		}))
		err := r.gyroscope().Drive(ctx, 0.5, 100)
		Expect(err).To(MatchError(context.Canceled))
		Expect(r.hw.Left.Power()).To(BeZero())
		Expect(r.robot.Pose().X - 13).To(BeNumerically("<", 10))
	})

	It("starts where the config says", func() {
		r := newRig(startAt(20, 40, 90))
		pose := r.robot.Pose()
		Expect(pose).To(Equal(physics.Pose{X: 20, Y: 40, Heading: sim.Start{Heading: 90}.Pose().Heading}))
		Expect(r.hw.Gyro.Heading()).To(BeZero())
	})
})
