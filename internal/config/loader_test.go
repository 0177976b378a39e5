package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/winner/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.TableContributionsName, convey.ShouldEqual, "contributions")
				convey.So(cfg.MaxScoresLimit, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("WINNER_ADDR", ":8080")
			_ = os.Setenv("WINNER_TABLE_SCORES_NAME", "prod-scores")
			_ = os.Setenv("WINNER_MAX_SCORES_LIMIT", "25")
			_ = os.Setenv("WINNER_SQL_CREATE_TABLES", "true")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.TableScoresName, convey.ShouldEqual, "prod-scores")
				convey.So(cfg.MaxScoresLimit, convey.ShouldEqual, 25)
				convey.So(cfg.SQLCreateTables, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
store_backend: sqlite
sql_dsn: "file::memory:"
table_popularity_name: products
`
			tmpFile := createTempConfigFile(t, yamlContent)
			_ = os.Setenv("WINNER_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.StoreBackend, convey.ShouldEqual, config.BackendSQLite)
				convey.So(cfg.SQLDSN, convey.ShouldEqual, "file::memory:")
				convey.So(cfg.TablePopularityName, convey.ShouldEqual, "products")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(t, "addr: \":9090\"\nmax_scores_limit: 10\n")
			_ = os.Setenv("WINNER_CONFIG", tmpFile)
			_ = os.Setenv("WINNER_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MaxScoresLimit, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When loading config with a dotenv file", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "winner.env")
			err := os.WriteFile(path, []byte("WINNER_TABLE_CONTRIBUTIONS_NAME=dotenv-contributions\n"), 0o600)
			convey.So(err, convey.ShouldBeNil)
			_ = os.Setenv("WINNER_ENV_FILE", path)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then values from the dotenv file should be applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.TableContributionsName, convey.ShouldEqual, "dotenv-contributions")
			})
		})

		convey.Convey("When the explicit dotenv file does not exist", func() {
			_ = os.Setenv("WINNER_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv("WINNER_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("WINNER_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the environment produces an invalid config", func() {
			_ = os.Setenv("WINNER_STORE_BACKEND", "cassandra")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation should reject it", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func clearConfigEnvVars() {
	envVars := []string{
		"WINNER_CONFIG",
		"WINNER_ENV_FILE",
		"WINNER_ADDR",
		"WINNER_STORE_BACKEND",
		"WINNER_TABLE_CONTRIBUTIONS_NAME",
		"WINNER_TABLE_SCORES_NAME",
		"WINNER_MAX_SCORES_LIMIT",
		"WINNER_SQL_CREATE_TABLES",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "winner-config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
