package seed

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/winner/pkg/logger"
)

const (
	randomFloatDivisor = 1000000
	uniqueIDLength     = 10
	maxPurchaseCount   = 500
	scoreDistributions = 6
	widgetName         = "widget"
)

// Score bands, picked uniformly so rankings have both ties and outliers.
const (
	caseZero = iota
	caseLow
	caseAverage
	caseHigh
	caseElite
	caseWide
)

var friendlyNames = []string{ //nolint:gochecknoglobals // fixed sample vocabulary
	"Alice", "Bob", "Carmen", "Dmitri", "Esi", "Farid", "Grace", "Hiro", "Ines", "Jonas",
}

var productNouns = []string{ //nolint:gochecknoglobals // fixed sample vocabulary
	"Saddle", "Mane Brush", "Horn Polish", "Hoof Pick", "Glitter Halter", "Rainbow Reins",
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

func randomInt(n int64) int64 {
	v, _ := rand.Int(rand.Reader, big.NewInt(n))
	return v.Int64()
}

// Generate builds a dataset of cfg.Users users per role and cfg.Products
// products. User ids follow the widget/role/uniqueId/friendlyName shape.
func Generate(ctx context.Context, cfg *Config) (*Dataset, error) {
	if cfg.Users < 0 || cfg.Products < 0 {
		return nil, fmt.Errorf("%w: negative counts", ErrInvalidConfig)
	}
	for _, role := range cfg.Roles {
		if strings.TrimSpace(role) == "" || strings.Contains(role, "/") {
			return nil, fmt.Errorf("%w: role %q", ErrInvalidConfig, role)
		}
	}

	logger.Get().Info(ctx, "generating dataset",
		logger.Int("usersPerRole", cfg.Users),
		logger.Int("products", cfg.Products),
		logger.Any("roles", cfg.Roles))

	ds := &Dataset{
		Contributions: make([]string, 0, cfg.Products),
		Scores:        make([]Score, 0, cfg.Users*len(cfg.Roles)),
		Products:      make([]Product, 0, cfg.Products),
	}

	for _, role := range cfg.Roles {
		for i := 0; i < cfg.Users; i++ {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("context cancelled during generation: %w", err)
			}
			ds.Scores = append(ds.Scores, Score{
				UserID: userID(role, i),
				Role:   role,
				Score:  generateVariedScore(),
			})
		}
	}

	for i := 0; i < cfg.Products; i++ {
		name := fmt.Sprintf("%s %d", productNouns[i%len(productNouns)], i+1)
		ds.Products = append(ds.Products, Product{
			ProductName:   name,
			PurchaseCount: randomInt(maxPurchaseCount),
		})
		ds.Contributions = append(ds.Contributions, uuid.NewString())
	}

	logger.Get().Info(ctx, "generated dataset",
		logger.Int("scores", len(ds.Scores)),
		logger.Int("products", len(ds.Products)))
	return ds, nil
}

func userID(role string, i int) string {
	unique := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:uniqueIDLength]
	return strings.Join([]string{widgetName, role, unique, friendlyNames[i%len(friendlyNames)]}, "/")
}

// generateVariedScore returns a score from one of several bands. Zero
// scores are included so the apology path has data to hit.
func generateVariedScore() float64 {
	switch randomInt(scoreDistributions) {
	case caseZero:
		return 0
	case caseLow:
		return 0.1 + getRandomFloat()*2.9
	case caseAverage:
		return 3 + getRandomFloat()*4
	case caseHigh:
		return 7 + getRandomFloat()*2
	case caseElite:
		return 9 + getRandomFloat()
	default:
		return getRandomFloat() * 10
	}
}
