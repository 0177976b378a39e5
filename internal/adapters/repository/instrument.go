package repository

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/winner/pkg/metrics"
)

// instrumented runs fn inside a span and records latency and result size.
// Errors from fn are wrapped with ErrStore.
func instrumented(ctx context.Context, tracer trace.Tracer, backend, table string, q Query, fn func(context.Context) ([]Item, error)) ([]Item, error) {
	ctx, span := tracer.Start(ctx, backend+"."+string(q.Kind),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", backend),
			attribute.String("db.collection.name", table),
			attribute.String("winner.query", string(q.Kind)),
			attribute.Int("winner.limit", q.Limit),
		),
	)
	defer span.End()

	start := time.Now()
	items, err := fn(ctx)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		metrics.RecordStoreError(backend, string(q.Kind), latencyMs)
		return nil, fmt.Errorf("%w: %s %s: %w", ErrStore, backend, q.Kind, err)
	}
	span.SetAttributes(attribute.Int("winner.records", len(items)))
	metrics.RecordStoreQuery(backend, string(q.Kind), latencyMs, len(items))
	return items, nil
}
