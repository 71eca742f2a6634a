// SPDX-License-Identifier: Apache-2.0

package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xataio/samplekit/pkg/otel"
	"github.com/xataio/samplekit/pkg/sink"
	"github.com/xataio/samplekit/pkg/topology"
	"github.com/xataio/samplekit/pkg/vocabulary"
)

type Store struct {
	inner  sink.Store
	tracer trace.Tracer
}

func NewStore(s sink.Store, instrumentation *otel.Instrumentation) sink.Store {
	if !instrumentation.IsEnabled() || instrumentation.Tracer == nil {
		return s
	}

	return &Store{
		inner:  s,
		tracer: instrumentation.Tracer,
	}
}

func (i *Store) InsertOrFetchTerm(ctx context.Context, term vocabulary.Term) (id int64, inserted bool, err error) {
	ctx, span := otel.StartSpan(ctx, i.tracer, "sinkStore.InsertOrFetchTerm", trace.WithAttributes(
		attribute.String("term", term.Name),
		attribute.String("section", term.Section.String()),
	))
	defer func() {
		span.SetAttributes(attribute.Bool("inserted", inserted))
		otel.CloseSpan(span, err)
	}()

	return i.inner.InsertOrFetchTerm(ctx, term)
}

func (i *Store) InsertOrFetchRequirement(ctx context.Context, req topology.Requirement) (id int64, inserted bool, err error) {
	ctx, span := otel.StartSpan(ctx, i.tracer, "sinkStore.InsertOrFetchRequirement", trace.WithAttributes(
		attribute.String("experiment_type", req.ExperimentType),
		attribute.String("required_field", req.RequiredField),
	))
	defer func() {
		span.SetAttributes(attribute.Bool("inserted", inserted))
		otel.CloseSpan(span, err)
	}()

	return i.inner.InsertOrFetchRequirement(ctx, req)
}

func (i *Store) Terms(ctx context.Context) (terms []vocabulary.Term, err error) {
	ctx, span := otel.StartSpan(ctx, i.tracer, "sinkStore.Terms")
	defer func() {
		span.SetAttributes(attribute.Int("terms", len(terms)))
		otel.CloseSpan(span, err)
	}()

	return i.inner.Terms(ctx)
}

func (i *Store) Requirements(ctx context.Context) (reqs []topology.Requirement, err error) {
	ctx, span := otel.StartSpan(ctx, i.tracer, "sinkStore.Requirements")
	defer func() {
		span.SetAttributes(attribute.Int("requirements", len(reqs)))
		otel.CloseSpan(span, err)
	}()

	return i.inner.Requirements(ctx)
}

func (i *Store) Close() error {
	return i.inner.Close()
}
