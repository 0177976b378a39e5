package repository

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/okian/winner/internal/adapters/repository"

// Option applies a configuration option to a store backend.
type Option func(*options)

type options struct {
	tracer trace.Tracer
}

func newOptions(opts []Option) options {
	o := options{tracer: otel.Tracer(tracerName)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithTracerProvider traces queries with tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		if tp != nil {
			o.tracer = tp.Tracer(tracerName)
		}
	}
}
