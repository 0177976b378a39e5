package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	repository "github.com/okian/winner/internal/adapters/repository"
	"github.com/okian/winner/pkg/logger"
)

const (
	directoryPermission = 0750
	filePermission      = 0600
	productType         = "product"
)

// Target is a SQL store that accepts arbitrary statements.
type Target interface {
	Exec(ctx context.Context, stmt string, args ...any) error
	Dialect() repository.Dialect
}

// Write replaces the contents of the three tables with ds.
func Write(ctx context.Context, target Target, tables repository.Tables, ds *Dataset, stats *Stats) error {
	for _, table := range []string{tables.Contributions, tables.Scores, tables.Popularity} {
		if err := target.Exec(ctx, "DELETE FROM "+quoteIdent(table)); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	ph := placeholders(target.Dialect())

	insertContribution := fmt.Sprintf(`INSERT INTO %s (product_id) VALUES (%s)`,
		quoteIdent(tables.Contributions), ph(1))
	for _, id := range ds.Contributions {
		if err := target.Exec(ctx, insertContribution, id); err != nil {
			return fmt.Errorf("insert contribution %s: %w", id, err)
		}
		stats.ContributionsWritten++
	}

	insertScore := fmt.Sprintf(`INSERT INTO %s (user_id, role, score) VALUES (%s, %s, %s)`,
		quoteIdent(tables.Scores), ph(1), ph(2), ph(3))
	for _, s := range ds.Scores {
		if err := target.Exec(ctx, insertScore, s.UserID, s.Role, s.Score); err != nil {
			return fmt.Errorf("insert score %s: %w", s.UserID, err)
		}
		stats.ScoresWritten++
	}

	insertProduct := fmt.Sprintf(`INSERT INTO %s (product_name, type, purchase_count) VALUES (%s, %s, %s)`,
		quoteIdent(tables.Popularity), ph(1), ph(2), ph(3))
	for _, p := range ds.Products {
		if err := target.Exec(ctx, insertProduct, p.ProductName, productType, p.PurchaseCount); err != nil {
			return fmt.Errorf("insert product %s: %w", p.ProductName, err)
		}
		stats.ProductsWritten++
	}

	logger.Get().Info(ctx, "dataset written",
		logger.Int("contributions", stats.ContributionsWritten),
		logger.Int("scores", stats.ScoresWritten),
		logger.Int("products", stats.ProductsWritten))
	return nil
}

// SaveDataset writes ds as indented JSON to filename, creating its directory.
func SaveDataset(ctx context.Context, filename string, ds *Dataset) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	raw, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}
	if err := os.WriteFile(filename, raw, filePermission); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	logger.Get().Info(ctx, "dataset saved to file", logger.String("filename", filename))
	return nil
}

func placeholders(d repository.Dialect) func(int) string {
	if d == repository.DialectPostgres {
		return func(n int) string { return "$" + strconv.Itoa(n) }
	}
	return func(int) string { return "?" }
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
