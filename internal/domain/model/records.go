// Package model contains domain models passed between layers.
package model

// ContributionRecord is one row of the contributions table.
type ContributionRecord struct {
	ProductID string `json:"productId"`
}

// ScoreRecord is one row of the scores index. UserID holds the raw subject
// identifier as stored, or its masked display form once transformed.
type ScoreRecord struct {
	UserID string  `json:"userId"`
	Score  float64 `json:"score"`
}

// PopularityRecord is one row of the products-by-count index.
type PopularityRecord struct {
	ProductName   string  `json:"productName"`
	PurchaseCount float64 `json:"purchaseCount"`
}
