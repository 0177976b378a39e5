package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	repository "github.com/okian/winner/internal/adapters/repository"
	"github.com/okian/winner/internal/config"
	"github.com/okian/winner/internal/seed"
	"github.com/okian/winner/pkg/logger"
)

// Default configuration constants.
const (
	defaultUsers    = 25
	defaultProducts = 12
	defaultTimeout  = 2 * time.Minute
)

// Seeds a sqlite or postgres query store with sample data. Backend, DSN and
// table names come from the same configuration as the API server.
func main() {
	var (
		users    = flag.Int("users", defaultUsers, "Users to generate per role")
		products = flag.Int("products", defaultProducts, "Products to generate")
		roles    = flag.String("roles", "seller,buyer", "Comma separated roles")
		timeout  = flag.Duration("timeout", defaultTimeout, "Overall deadline")
		output   = flag.String("output", "", "Optional JSON dump of the generated dataset")
		verbose  = flag.Bool("verbose", false, "Log every verified ranking row")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	ctx := context.Background()
	log := logger.Get()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal(ctx, "failed to load config", logger.Error(err))
	}
	_ = logger.SetLevelString(cfg.LogLevel)

	if cfg.StoreBackend != config.BackendSQLite && cfg.StoreBackend != config.BackendPostgres {
		log.Fatal(ctx, "seeding requires a sql backend", logger.String("backend", cfg.StoreBackend))
	}

	tables := repository.Tables{
		Contributions:   cfg.TableContributionsName,
		Scores:          cfg.TableScoresName,
		Popularity:      cfg.TablePopularityName,
		ScoresIndex:     cfg.ScoresIndexName,
		PopularityIndex: cfg.PopularityIndexName,
	}
	store, err := repository.OpenSQL(ctx, repository.Dialect(cfg.StoreBackend), cfg.SQLDSN, tables)
	if err != nil {
		log.Fatal(ctx, "failed to open store", logger.Error(err))
	}
	defer func() { _ = store.Close() }()

	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatal(ctx, "failed to create tables", logger.Error(err))
	}

	seedCfg := &seed.Config{
		Users:      *users,
		Products:   *products,
		Roles:      strings.Split(*roles, ","),
		Timeout:    *timeout,
		OutputFile: *output,
		Verbose:    *verbose,
	}
	if _, err := seed.Run(ctx, seedCfg, store, tables); err != nil {
		log.Error(ctx, "seed run failed", logger.Error(err))
		_ = store.Close()
		os.Exit(1)
	}
}
