// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"context"
	"fmt"

	"github.com/xataio/samplekit/internal/progress"
	loglib "github.com/xataio/samplekit/pkg/log"
	"github.com/xataio/samplekit/pkg/topology"
	"github.com/xataio/samplekit/pkg/vocabulary"
)

// Loader writes catalog entries to a store, one at a time, so that reloading
// the same source is a noop.
type Loader struct {
	store  Store
	logger loglib.Logger
	bar    progress.Bar
}

// LoadStats counts the entries of a load.
type LoadStats struct {
	Inserted int
	Existing int
	Skipped  int
}

type LoaderOption func(l *Loader)

func NewLoader(store Store, opts ...LoaderOption) *Loader {
	l := &Loader{
		store:  store,
		logger: loglib.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func WithLogger(logger loglib.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = loglib.ModuleLogger(logger, "catalog_loader")
	}
}

func WithProgressBar(bar progress.Bar) LoaderOption {
	return func(l *Loader) {
		l.bar = bar
	}
}

// LoadTerms stores the terms on input. Terms without a name are skipped.
func (l *Loader) LoadTerms(ctx context.Context, terms []vocabulary.Term) (*LoadStats, error) {
	return load(ctx, l, terms, ValidateTerm, l.store.InsertOrFetchTerm, func(t vocabulary.Term) loglib.Fields {
		return loglib.Fields{"term": t.Name}
	})
}

// LoadRequirements stores the requirements on input. Requirements missing the
// experiment type or required field are skipped.
func (l *Loader) LoadRequirements(ctx context.Context, reqs []topology.Requirement) (*LoadStats, error) {
	return load(ctx, l, reqs, ValidateRequirement, l.store.InsertOrFetchRequirement, func(r topology.Requirement) loglib.Fields {
		return loglib.Fields{"experiment_type": r.ExperimentType, "required_field": r.RequiredField}
	})
}

func load[T any](
	ctx context.Context,
	l *Loader,
	items []T,
	validate func(T) error,
	insertOrFetch func(context.Context, T) (int64, bool, error),
	fields func(T) loglib.Fields,
) (*LoadStats, error) {
	stats := &LoadStats{}
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if err := validate(item); err != nil {
			l.logger.Warn(err, "skipping invalid catalog entry", loglib.MergeFields(fields(item), loglib.Fields{"row": i}))
			stats.Skipped++
			l.advance()
			continue
		}

		id, inserted, err := insertOrFetch(ctx, item)
		if err != nil {
			return stats, fmt.Errorf("row %d: %w", i, err)
		}
		if inserted {
			stats.Inserted++
		} else {
			stats.Existing++
		}
		l.logger.Trace("catalog entry stored", loglib.MergeFields(fields(item), loglib.Fields{"id": id, "inserted": inserted}))
		l.advance()
	}

	if l.bar != nil {
		if err := l.bar.Close(); err != nil {
			l.logger.Warn(err, "closing progress bar")
		}
	}
	return stats, nil
}

func (l *Loader) advance() {
	if l.bar == nil {
		return
	}
	if err := l.bar.Add(1); err != nil {
		l.logger.Warn(err, "updating progress bar")
	}
}
