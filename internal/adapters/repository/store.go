// Package repository defines the query store interface and its backends.
package repository

import (
	"context"
	"fmt"
)

// Kind selects one of the fixed query shapes.
type Kind string

// Supported query kinds.
const (
	KindContributions Kind = "contributions"
	KindScores        Kind = "scores"
	KindPopularity    Kind = "popularity"
)

// PopularityLimit is the fixed size of the popularity ranking.
const PopularityLimit = 3

// DefaultScoresLimit applies when a scores query carries no limit.
const DefaultScoresLimit = 1

// Constant partition value of the products-by-count index.
const productType = "product"

// Item is one raw record as returned by the store, keyed by attribute name.
type Item = map[string]any

// Query is a parameterised request for one of the fixed query shapes.
type Query struct {
	Kind  Kind
	Role  string
	Limit int
}

// ContributionsQuery scans every contribution, projecting productId.
func ContributionsQuery() Query {
	return Query{Kind: KindContributions}
}

// ScoresQuery returns the limit highest scores recorded for role.
// A non-positive limit means DefaultScoresLimit.
func ScoresQuery(role string, limit int) Query {
	if limit < 1 {
		limit = DefaultScoresLimit
	}
	return Query{Kind: KindScores, Role: role, Limit: limit}
}

// PopularityQuery returns the top products by purchase count.
func PopularityQuery() Query {
	return Query{Kind: KindPopularity, Limit: PopularityLimit}
}

func (q Query) validate() error {
	switch q.Kind {
	case KindContributions, KindPopularity:
		return nil
	case KindScores:
		if q.Role == "" {
			return fmt.Errorf("%w: scores query requires a role", ErrInvalidQuery)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownQuery, q.Kind)
	}
}

// Store runs one query against the backing store. Implementations do not
// retry and do not interpret errors beyond wrapping them with ErrStore.
type Store interface {
	Query(ctx context.Context, q Query) ([]Item, error)
}

// Tables names the collections and indexes the queries read from. It is
// resolved once from configuration and never mutated.
type Tables struct {
	Contributions   string
	Scores          string
	Popularity      string
	ScoresIndex     string
	PopularityIndex string
}
