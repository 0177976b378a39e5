package seed

import (
	"context"
	"fmt"
	"time"

	repository "github.com/okian/winner/internal/adapters/repository"
	"github.com/okian/winner/pkg/logger"
)

// Store is a SQL query store that can also be written to.
type Store interface {
	Target
	repository.Store
}

// Run generates a dataset, writes it to store and verifies the fixed
// queries read it back correctly.
func Run(ctx context.Context, cfg *Config, store Store, tables repository.Tables) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	logger.Get().Info(ctx, "starting seed run",
		logger.String("dialect", string(store.Dialect())),
		logger.Int("usersPerRole", cfg.Users),
		logger.Int("products", cfg.Products))

	ds, err := Generate(ctx, cfg)
	if err != nil {
		return stats, fmt.Errorf("dataset generation failed: %w", err)
	}

	if err := Write(ctx, store, tables, ds, stats); err != nil {
		return stats, fmt.Errorf("dataset write failed: %w", err)
	}

	if err := Verify(ctx, store, cfg, ds, stats); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	if cfg.OutputFile != "" {
		if err := SaveDataset(ctx, cfg.OutputFile, ds); err != nil {
			logger.Get().Warn(ctx, "failed to save dataset to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	logger.Get().Info(ctx, "final statistics",
		logger.Int("contributionsWritten", stats.ContributionsWritten),
		logger.Int("scoresWritten", stats.ScoresWritten),
		logger.Int("productsWritten", stats.ProductsWritten),
		logger.Int("queriesVerified", stats.QueriesVerified),
		logger.String("duration", stats.Duration.String()))
	return stats, nil
}
