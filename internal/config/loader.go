package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "WINNER_"
	defaultEnv = ".env"
)

// Load builds a Config by layering defaults, optional file, dotenv and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if WINNER_CONFIG is set
//  3. dotenv file (WINNER_ENV_FILE, or ./.env when present); never overrides
//     variables already set in the process environment
//  4. env (prefix WINNER_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("WINNER_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	if err := loadDotenv(); err != nil {
		return nil, err
	}

	// WINNER_TABLE_SCORES_NAME -> table_scores_name (flat keys, underscores kept)
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotenv() error {
	path := os.Getenv("WINNER_ENV_FILE")
	explicit := path != ""
	if !explicit {
		path = defaultEnv
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
}

// Validate checks that the configuration can drive the service.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.TableContributionsName) == "":
		return fmt.Errorf("%w: table_contributions_name must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.TableScoresName) == "":
		return fmt.Errorf("%w: table_scores_name must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.TablePopularityName) == "":
		return fmt.Errorf("%w: table_popularity_name must not be empty", ErrInvalidConfig)
	case c.MaxScoresLimit < 1:
		return fmt.Errorf("%w: max_scores_limit must be positive", ErrInvalidConfig)
	}

	switch c.StoreBackend {
	case BackendDynamoDB:
		if strings.TrimSpace(c.ScoresIndexName) == "" || strings.TrimSpace(c.PopularityIndexName) == "" {
			return fmt.Errorf("%w: dynamodb backend requires index names", ErrInvalidConfig)
		}
	case BackendSQLite, BackendPostgres:
		if strings.TrimSpace(c.SQLDSN) == "" {
			return fmt.Errorf("%w: %s backend requires sql_dsn", ErrInvalidConfig, c.StoreBackend)
		}
	default:
		return fmt.Errorf("%w: unknown store_backend %q", ErrInvalidConfig, c.StoreBackend)
	}
	return nil
}
