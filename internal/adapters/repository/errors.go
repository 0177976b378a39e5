package repository

import "errors"

// Sentinel kinds for query store errors.
var (
	ErrStore        = errors.New("query store failed")
	ErrUnknownQuery = errors.New("unknown query kind")
	ErrInvalidQuery = errors.New("invalid query")
)
