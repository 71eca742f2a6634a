// SPDX-License-Identifier: Apache-2.0

package instrumentation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	pglib "github.com/xataio/samplekit/internal/postgres"
	"github.com/xataio/samplekit/pkg/otel"
)

type Querier struct {
	inner   pglib.Querier
	tracer  trace.Tracer
	meter   metric.Meter
	metrics *metrics
}

type metrics struct {
	queryLatency metric.Int64Histogram
}

const (
	queryTypeAttributeKey = "query_type"
	queryAttributeKey     = "query"
	unknownQueryType      = "unknown"
)

func NewQuerier(q pglib.Querier, instrumentation *otel.Instrumentation) (pglib.Querier, error) {
	if !instrumentation.IsEnabled() {
		return q, nil
	}

	querier := &Querier{
		inner:   q,
		tracer:  instrumentation.Tracer,
		meter:   instrumentation.Meter,
		metrics: &metrics{},
	}

	if err := querier.initMetrics(); err != nil {
		return nil, fmt.Errorf("initialising postgres querier metrics: %w", err)
	}

	return querier, nil
}

func (i *Querier) Query(ctx context.Context, query string, args ...any) (rows pglib.Rows, err error) {
	ctx, done := i.observe(ctx, "querier.Query", query)
	defer func() { done(err) }()
	return i.inner.Query(ctx, query, args...)
}

func (i *Querier) QueryRow(ctx context.Context, dest []any, query string, args ...any) (err error) {
	ctx, done := i.observe(ctx, "querier.QueryRow", query)
	defer func() { done(err) }()
	return i.inner.QueryRow(ctx, dest, query, args...)
}

func (i *Querier) Exec(ctx context.Context, query string, args ...any) (tag pglib.CommandTag, err error) {
	ctx, done := i.observe(ctx, "querier.Exec", query)
	defer func() { done(err) }()
	return i.inner.Exec(ctx, query, args...)
}

func (i *Querier) Ping(ctx context.Context) error {
	return i.inner.Ping(ctx)
}

func (i *Querier) Close(ctx context.Context) error {
	return i.inner.Close(ctx)
}

// observe starts a span for the query and returns the function that closes it
// and records the query latency.
func (i *Querier) observe(ctx context.Context, spanName, query string) (context.Context, func(error)) {
	queryAttrs := queryAttributes(query)
	ctx, span := otel.StartSpan(ctx, i.tracer, spanName, trace.WithAttributes(queryAttrs...))
	startTime := time.Now()
	return ctx, func(err error) {
		if i.metrics.queryLatency != nil {
			i.metrics.queryLatency.Record(ctx, time.Since(startTime).Milliseconds(), metric.WithAttributes(queryAttrs...))
		}
		otel.CloseSpan(span, err)
	}
}

func (i *Querier) initMetrics() error {
	if i.meter == nil {
		return nil
	}

	var err error
	i.metrics.queryLatency, err = i.meter.Int64Histogram("samplekit.postgres.querier.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Distribution of the time taken to perform a query"))
	return err
}

func queryAttributes(query string) []attribute.KeyValue {
	if strings.TrimSpace(query) == "" {
		return []attribute.KeyValue{attribute.String(queryTypeAttributeKey, unknownQueryType)}
	}
	queryType := strings.ToUpper(strings.Fields(query)[0])
	return []attribute.KeyValue{
		attribute.String(queryTypeAttributeKey, queryType),
		attribute.String(queryAttributeKey, query),
	}
}
