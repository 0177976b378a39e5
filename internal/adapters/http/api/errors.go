package api

import "errors"

// ErrNilRouter is the panic value of Register when called without a router.
var ErrNilRouter = errors.New("api: nil router")
