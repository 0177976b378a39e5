package schema

import "errors"

// Sentinel kinds for schema registry errors.
var (
	ErrInvalidDocument = errors.New("invalid schema document")
	ErrDuplicateSchema = errors.New("schema already registered")
	ErrUnknownSchema   = errors.New("unknown schema")
)
