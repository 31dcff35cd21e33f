package debounce_test

import (
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"github.com/victorbjor/security-bot/internal/domain/debounce"
)

func TestGate_TryAdmit(t *testing.T) {
	convey.Convey("Given a fresh gate with a 5s cooldown", t, func() {
		gate := debounce.NewGate(debounce.WithCooldown(5 * time.Second))
		t0 := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

		convey.Convey("Then the first admit always succeeds", func() {
			convey.So(gate.TryAdmit(t0), convey.ShouldBeTrue)
			convey.So(gate.Last(), convey.ShouldEqual, t0)
		})

		convey.Convey("When two calls are spaced inside the cooldown", func() {
			convey.So(gate.TryAdmit(t0), convey.ShouldBeTrue)

			convey.Convey("Then the second is rejected and state is unchanged", func() {
				convey.So(gate.TryAdmit(t0.Add(2*time.Second)), convey.ShouldBeFalse)
				convey.So(gate.Last(), convey.ShouldEqual, t0)
			})
		})

		convey.Convey("When two calls are spaced beyond the cooldown", func() {
			convey.So(gate.TryAdmit(t0), convey.ShouldBeTrue)

			convey.Convey("Then both are admitted", func() {
				t1 := t0.Add(6 * time.Second)
				convey.So(gate.TryAdmit(t1), convey.ShouldBeTrue)
				convey.So(gate.Last(), convey.ShouldEqual, t1)
			})
		})

		convey.Convey("When a call lands exactly on the cooldown boundary", func() {
			convey.So(gate.TryAdmit(t0), convey.ShouldBeTrue)

			convey.Convey("Then it is still rejected (strictly greater required)", func() {
				convey.So(gate.TryAdmit(t0.Add(5*time.Second)), convey.ShouldBeFalse)
			})
		})
	})
}

func TestGate_Revoke(t *testing.T) {
	convey.Convey("Given a gate that admitted an action", t, func() {
		gate := debounce.NewGate(debounce.WithCooldown(5 * time.Second))
		t0 := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
		t1 := t0.Add(10 * time.Second)

		convey.So(gate.TryAdmit(t0), convey.ShouldBeTrue)
		convey.So(gate.TryAdmit(t1), convey.ShouldBeTrue)

		convey.Convey("When the admitted action is revoked", func() {
			gate.Revoke()

			convey.Convey("Then the clock is back where it was", func() {
				convey.So(gate.Last(), convey.ShouldEqual, t0)
			})

			convey.Convey("And a retry inside the original window is admitted again", func() {
				convey.So(gate.TryAdmit(t1.Add(time.Second)), convey.ShouldBeTrue)
			})
		})
	})
}

func TestGate_IndependentClocks(t *testing.T) {
	convey.Convey("Given two gates for separate routing targets", t, func() {
		lb := debounce.NewGate(debounce.WithCooldown(5 * time.Second))
		esc := debounce.NewGate(debounce.WithCooldown(30 * time.Second))
		t0 := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

		convey.Convey("When one gate admits, the other is unaffected", func() {
			convey.So(lb.TryAdmit(t0), convey.ShouldBeTrue)
			convey.So(esc.TryAdmit(t0), convey.ShouldBeTrue)

			t1 := t0.Add(6 * time.Second)
			convey.So(lb.TryAdmit(t1), convey.ShouldBeTrue)
			convey.So(esc.TryAdmit(t1), convey.ShouldBeFalse)
		})
	})
}
