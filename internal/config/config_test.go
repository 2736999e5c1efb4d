package config_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/willcagas/goose-trials-sub001/internal/config"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.EventQueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.CurvePoints, convey.ShouldEqual, 100)
			convey.So(cfg.CacheTTL, convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs that break one rule each", t, func() {
		cases := map[string]func(c *config.Config){
			"empty addr":             func(c *config.Config) { c.Addr = "" },
			"unknown store":          func(c *config.Config) { c.Store = "sqlite" },
			"postgres without url":   func(c *config.Config) { c.Store = config.StorePostgres },
			"bad log format":         func(c *config.Config) { c.LogFormat = "xml" },
			"zero curve points":      func(c *config.Config) { c.CurvePoints = 0 },
			"default above max":      func(c *config.Config) { c.DefaultLeaderboardLimit = 500 },
			"non-positive rate":      func(c *config.Config) { c.SubmitRate = 0 },
			"zero queue":             func(c *config.Config) { c.EventQueueSize = 0 },
			"non-positive cache ttl": func(c *config.Config) { c.CacheTTL = 0 },
		}

		convey.Convey("Then each fails with ErrInvalidConfig", func() {
			for name, mutate := range cases {
				cfg := config.New()
				mutate(cfg)
				err := cfg.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				if err == nil {
					t.Errorf("%s: expected validation error", name)
				}
			}
		})
	})
}
