package config_test

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"github.com/victorbjor/security-bot/internal/config"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8000")
			convey.So(cfg.BaselineAlpha, convey.ShouldEqual, 0.0001)
			convey.So(cfg.SeedMean, convey.ShouldEqual, 0.5)
			convey.So(cfg.SeedVariance, convey.ShouldEqual, 0.01)
			convey.So(cfg.ZCutoff, convey.ShouldEqual, 2.0)
			convey.So(cfg.LeaderboardSize, convey.ShouldEqual, 5)
			convey.So(cfg.EscalationQueueSize, convey.ShouldEqual, 64)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 1)
			convey.So(cfg.LeaderboardCooldownMS, convey.ShouldEqual, 5_000)
			convey.So(cfg.EscalationCooldownMS, convey.ShouldEqual, 5_000)
		})
	})
}
