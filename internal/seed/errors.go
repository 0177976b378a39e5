package seed

import "errors"

// Sentinel errors for seeding runs.
var (
	ErrInvalidConfig = errors.New("invalid seed config")
	ErrMismatch      = errors.New("store disagrees with seeded data")
)
