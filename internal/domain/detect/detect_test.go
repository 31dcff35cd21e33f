package detect

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSimulator(t *testing.T) {
	Convey("Given a seeded simulator", t, func() {
		sim := NewSimulator(
			WithSeed(7),
			WithFrameInterval(time.Millisecond),
			WithMaxPerFrame(4),
		)

		Convey("When frames are drawn", func() {
			ctx := context.Background()
			total := 0
			for i := 0; i < 50; i++ {
				frame, err := sim.Next(ctx)
				So(err, ShouldBeNil)
				So(len(frame.Detections), ShouldBeLessThanOrEqualTo, 4)
				So(frame.CapturedAt.IsZero(), ShouldBeFalse)
				for _, d := range frame.Detections {
					So(d.Score, ShouldBeBetweenOrEqual, 0, 1)
					So(d.CapturedAt, ShouldEqual, frame.CapturedAt)
					total++
				}
			}

			Convey("Then some frames carry detections", func() {
				So(total, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When crops are generated", func() {
			ctx := context.Background()
			var crop []byte
			for crop == nil {
				frame, err := sim.Next(ctx)
				So(err, ShouldBeNil)
				if len(frame.Detections) > 0 {
					crop = frame.Detections[0].Image
				}
			}

			Convey("Then the payload carries JPEG framing", func() {
				So(len(crop), ShouldBeGreaterThan, 4)
				So(crop[0], ShouldEqual, 0xFF)
				So(crop[1], ShouldEqual, 0xD8)
				So(crop[len(crop)-2], ShouldEqual, 0xFF)
				So(crop[len(crop)-1], ShouldEqual, 0xD9)
			})
		})
	})

	Convey("Given two simulators with the same seed", t, func() {
		a := NewSimulator(WithSeed(11), WithFrameInterval(time.Millisecond))
		b := NewSimulator(WithSeed(11), WithFrameInterval(time.Millisecond))

		Convey("When both produce a frame sequence", func() {
			ctx := context.Background()
			for i := 0; i < 20; i++ {
				fa, errA := a.Next(ctx)
				fb, errB := b.Next(ctx)
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(len(fa.Detections), ShouldEqual, len(fb.Detections))
				for j := range fa.Detections {
					So(fa.Detections[j].Score, ShouldEqual, fb.Detections[j].Score)
					So(fa.Detections[j].Image, ShouldResemble, fb.Detections[j].Image)
				}
			}
		})
	})

	Convey("Given a simulator behind a cancelled context", t, func() {
		sim := NewSimulator(WithFrameInterval(time.Hour))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("When Next is called", func() {
			_, err := sim.Next(ctx)

			Convey("Then it returns the cancellation error", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "frame source stopped")
			})
		})
	})

	Convey("Given a simulator with anomaly rate 1", t, func() {
		sim := NewSimulator(
			WithSeed(3),
			WithFrameInterval(time.Millisecond),
			WithAnomalyRate(1),
			WithMaxPerFrame(4),
		)

		Convey("When detections are drawn", func() {
			ctx := context.Background()
			seen := 0
			for seen < 10 {
				frame, err := sim.Next(ctx)
				So(err, ShouldBeNil)
				for _, d := range frame.Detections {
					So(d.Score, ShouldBeGreaterThanOrEqualTo, 0.85)
					seen++
				}
			}
		})
	})
}
