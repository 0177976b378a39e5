package seed

import (
	"context"
	"fmt"
	"sort"

	repository "github.com/okian/winner/internal/adapters/repository"
	"github.com/okian/winner/internal/domain/identity"
	"github.com/okian/winner/pkg/logger"
)

// maxVerifiedScores bounds the scores query issued per role.
const maxVerifiedScores = 10

// Verify runs every fixed query against store and checks the results agree
// with ds: row counts for contributions, and descending order and values
// for the scores and popularity rankings.
func Verify(ctx context.Context, store repository.Store, cfg *Config, ds *Dataset, stats *Stats) error {
	items, err := store.Query(ctx, repository.ContributionsQuery())
	if err != nil {
		return err
	}
	if len(items) != len(ds.Contributions) {
		return fmt.Errorf("%w: %d contributions, want %d", ErrMismatch, len(items), len(ds.Contributions))
	}
	stats.QueriesVerified++

	for _, role := range cfg.Roles {
		if err := verifyScores(ctx, store, role, ds, cfg.Verbose); err != nil {
			return err
		}
		stats.QueriesVerified++
	}

	if err := verifyPopularity(ctx, store, ds); err != nil {
		return err
	}
	stats.QueriesVerified++

	logger.Get().Info(ctx, "result verification completed", logger.Int("queries", stats.QueriesVerified))
	return nil
}

func verifyScores(ctx context.Context, store repository.Store, role string, ds *Dataset, verbose bool) error {
	var want []float64
	for _, s := range ds.Scores {
		if s.Role == role {
			want = append(want, s.Score)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(want)))
	limit := min(len(want), maxVerifiedScores)
	if limit == 0 {
		return nil
	}
	want = want[:limit]

	items, err := store.Query(ctx, repository.ScoresQuery(role, limit))
	if err != nil {
		return err
	}
	if len(items) != len(want) {
		return fmt.Errorf("%w: role %s returned %d scores, want %d", ErrMismatch, role, len(items), len(want))
	}
	for i, item := range items {
		got, _ := item["score"].(float64)
		if got != want[i] {
			return fmt.Errorf("%w: role %s rank %d score %.3f, want %.3f", ErrMismatch, role, i+1, got, want[i])
		}
		if verbose {
			user, _ := item["userId"].(string)
			logger.Get().Info(ctx, "ranked",
				logger.String("role", role),
				logger.Int("rank", i+1),
				logger.String("user", identity.DisplayName(user)),
				logger.Float64("score", got))
		}
	}
	return nil
}

func verifyPopularity(ctx context.Context, store repository.Store, ds *Dataset) error {
	want := make([]int64, 0, len(ds.Products))
	for _, p := range ds.Products {
		want = append(want, p.PurchaseCount)
	}
	sort.Slice(want, func(i, j int) bool { return want[i] > want[j] })
	want = want[:min(len(want), repository.PopularityLimit)]

	items, err := store.Query(ctx, repository.PopularityQuery())
	if err != nil {
		return err
	}
	if len(items) != len(want) {
		return fmt.Errorf("%w: %d popular products, want %d", ErrMismatch, len(items), len(want))
	}
	for i, item := range items {
		got, _ := item["purchaseCount"].(int64)
		if got != want[i] {
			return fmt.Errorf("%w: popularity rank %d count %d, want %d", ErrMismatch, i+1, got, want[i])
		}
	}
	return nil
}
