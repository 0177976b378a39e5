// Package seed generates sample contributions, scores and products, loads
// them into a SQL query store and checks the fixed queries against them.
package seed

import "time"

// Config holds configuration for a seeding run.
type Config struct {
	Users      int           // Users per role
	Products   int           // Products in the popularity table
	Roles      []string      // Roles to generate users for
	Timeout    time.Duration // Overall deadline for the run
	OutputFile string        // Optional JSON dump of the generated dataset
	Verbose    bool          // Log every verified row
}

// Score is one generated row of the scores table.
type Score struct {
	UserID string  `json:"userId"`
	Role   string  `json:"role"`
	Score  float64 `json:"score"`
}

// Product is one generated row of the popularity table.
type Product struct {
	ProductName   string `json:"productName"`
	PurchaseCount int64  `json:"purchaseCount"`
}

// Dataset is everything a run writes.
type Dataset struct {
	Contributions []string  `json:"contributions"`
	Scores        []Score   `json:"scores"`
	Products      []Product `json:"products"`
}

// Stats holds run statistics.
type Stats struct {
	ContributionsWritten int
	ScoresWritten        int
	ProductsWritten      int
	QueriesVerified      int
	StartTime            time.Time
	EndTime              time.Time
	Duration             time.Duration
}
