package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/okian/tribescore/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"TRIBESCORE_CONFIG",
	"TRIBESCORE_LOG_LEVEL",
	"TRIBESCORE_ADDR",
	"TRIBESCORE_QUEUE_SIZE",
	"TRIBESCORE_WORKER_COUNT",
	"TRIBESCORE_DEDUPE_SIZE",
	"TRIBESCORE_MAX_STANDINGS_LIMIT",
	"TRIBESCORE_SURVIVAL_CAP",
	"TRIBESCORE_PRESERVE_STREAK",
	"TRIBESCORE_TRIBE_POINTS_TO_CASTAWAYS",
	"TRIBESCORE_SEASON_FILE",
}

func clearConfigEnvVars() {
	for _, v := range configEnvVars {
		_ = os.Unsetenv(v)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigNew(t *testing.T) {
	convey.Convey("Given a new config", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it has sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1_024)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.SurvivalCap, convey.ShouldEqual, 5)
			convey.So(cfg.PreserveStreak, convey.ShouldBeTrue)
			convey.So(cfg.TribePointsToCastaways, convey.ShouldBeTrue)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then defaults are returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New(ctx))
			})
		})

		convey.Convey("When environment variables are set", func() {
			_ = os.Setenv("TRIBESCORE_ADDR", ":8080")
			_ = os.Setenv("TRIBESCORE_WORKER_COUNT", "3")
			_ = os.Setenv("TRIBESCORE_SURVIVAL_CAP", "0")
			_ = os.Setenv("TRIBESCORE_PRESERVE_STREAK", "false")

			cfg, err := config.Load(ctx)

			convey.Convey("Then they override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.SurvivalCap, convey.ShouldEqual, 0)
				convey.So(cfg.PreserveStreak, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When a YAML file and env vars are both given", func() {
			path := writeConfigFile(t, `
# service
addr: ":7000"
queue_size: 64
tribe_points_to_castaways: false
season_file: seasons/fiji.yaml
`)
			_ = os.Setenv("TRIBESCORE_CONFIG", path)
			_ = os.Setenv("TRIBESCORE_QUEUE_SIZE", "128")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env wins over the file and the file over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7000")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 128)
				convey.So(cfg.TribePointsToCastaways, convey.ShouldBeFalse)
				convey.So(cfg.SeasonFile, convey.ShouldEqual, "seasons/fiji.yaml")
				convey.So(cfg.MaxStandingsLimit, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When the file is missing", func() {
			_ = os.Setenv("TRIBESCORE_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the file is not YAML", func() {
			_ = os.Setenv("TRIBESCORE_CONFIG", writeConfigFile(t, "addr: [unclosed"))
			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a number does not parse", func() {
			_ = os.Setenv("TRIBESCORE_QUEUE_SIZE", "lots")
			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When values fail validation", func() {
			cases := map[string]string{
				"TRIBESCORE_ADDR":                "",
				"TRIBESCORE_QUEUE_SIZE":          "0",
				"TRIBESCORE_WORKER_COUNT":        "-1",
				"TRIBESCORE_DEDUPE_SIZE":         "-5",
				"TRIBESCORE_MAX_STANDINGS_LIMIT": "0",
				"TRIBESCORE_SURVIVAL_CAP":        "-2",
			}

			convey.Convey("Then each is rejected as invalid", func() {
				for key, val := range cases {
					clearConfigEnvVars()
					_ = os.Setenv(key, val)
					_, err := config.Load(ctx)
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				}
			})
		})
	})
}
