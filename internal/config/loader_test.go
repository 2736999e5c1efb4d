package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/willcagas/goose-trials-sub001/internal/config"
)

var configEnvVars = []string{
	"GOOSE_CONFIG", "GOOSE_ADDR", "GOOSE_QUEUE_SIZE", "GOOSE_WORKER_COUNT", "GOOSE_STORE",
	"GOOSE_DATABASE_URL", "GOOSE_AUTO_MIGRATE", "GOOSE_CACHE_TTL", "GOOSE_CORS_ORIGINS", "GOOSE_CURVE_POINTS",
	"GOOSE_USER_TAGS",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
				convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"http://localhost:3000"})
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("GOOSE_ADDR", ":8080")
			_ = os.Setenv("GOOSE_QUEUE_SIZE", "256")
			_ = os.Setenv("GOOSE_WORKER_COUNT", "3")
			_ = os.Setenv("GOOSE_STORE", "postgres")
			_ = os.Setenv("GOOSE_DATABASE_URL", "postgres://goose@localhost/goose")
			_ = os.Setenv("GOOSE_AUTO_MIGRATE", "true")
			_ = os.Setenv("GOOSE_CACHE_TTL", "45s")
			_ = os.Setenv("GOOSE_CORS_ORIGINS", "https://goosetrials.com, https://www.goosetrials.com")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.EventQueueSize, convey.ShouldEqual, 256)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.Store, convey.ShouldEqual, config.StorePostgres)
				convey.So(cfg.AutoMigrate, convey.ShouldBeTrue)
				convey.So(cfg.CacheTTL, convey.ShouldEqual, 45*time.Second)
				convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"https://goosetrials.com", "https://www.goosetrials.com"})
			})
		})

		convey.Convey("When user tags come from the environment", func() {
			_ = os.Setenv("GOOSE_USER_TAGS", "u1:dev, 6f1c-42:mod ,broken, :x")

			cfg, err := config.Load(ctx)

			convey.Convey("Then id:tag pairs are parsed into the map", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.UserTags, convey.ShouldResemble, map[string]string{"u1": "dev", "6f1c-42": "mod"})
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := filepath.Join(t.TempDir(), "goose.yaml")
			yamlContent := `
addr: ":9090"
curve_points: 50
user_tags:
  user-1: dev
banned_terms:
  - honk
`
			convey.So(os.WriteFile(path, []byte(yamlContent), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("GOOSE_CONFIG", path)
			_ = os.Setenv("GOOSE_CURVE_POINTS", "80")

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values apply and env still wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.CurvePoints, convey.ShouldEqual, 80)
				convey.So(cfg.UserTags["user-1"], convey.ShouldEqual, "dev")
				convey.So(cfg.BannedTerms, convey.ShouldResemble, []string{"honk"})
			})
		})

		convey.Convey("When the config file is missing", func() {
			_ = os.Setenv("GOOSE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(ctx)

			convey.Convey("Then ErrLoadConfig is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the result fails validation", func() {
			_ = os.Setenv("GOOSE_STORE", "postgres")

			_, err := config.Load(ctx)

			convey.Convey("Then ErrInvalidConfig is returned", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
