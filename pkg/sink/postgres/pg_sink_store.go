// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xataio/samplekit/internal/backoff"
	pglib "github.com/xataio/samplekit/internal/postgres"
	pginstrumentation "github.com/xataio/samplekit/internal/postgres/instrumentation"
	"github.com/xataio/samplekit/internal/postgres/retrier"
	loglib "github.com/xataio/samplekit/pkg/log"
	"github.com/xataio/samplekit/pkg/otel"
	"github.com/xataio/samplekit/pkg/sink"
	"github.com/xataio/samplekit/pkg/topology"
	"github.com/xataio/samplekit/pkg/vocabulary"
)

// Store keeps the catalogs in the samplekit schema of a postgres database.
type Store struct {
	querier pglib.Querier
	logger  loglib.Logger
}

type Config struct {
	URL     string
	Backoff backoff.Config
}

type Option func(*options)

type options struct {
	logger          loglib.Logger
	instrumentation *otel.Instrumentation
}

const (
	schemaName        = "samplekit"
	vocabularyTable   = "cv"
	topologyTable     = "topology"
	termColumns       = "term, display_name, definition, section, section_object, units, dtype, aliases"
	topologyColumns   = "experiment_type, required_field, term, subtypes"
	defaultMaxRetries = 3
)

func WithLogger(l loglib.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func WithInstrumentation(i *otel.Instrumentation) Option {
	return func(o *options) {
		o.instrumentation = i
	}
}

func New(ctx context.Context, cfg *Config, opts ...Option) (*Store, error) {
	o := &options{logger: loglib.NewNoopLogger()}
	for _, opt := range opts {
		opt(o)
	}

	builder := pglib.QuerierBuilder(pglib.ConnPoolBuilder)
	if o.instrumentation.IsEnabled() {
		builder = pginstrumentation.NewQuerierBuilder(builder, o.instrumentation)
	}

	querier, err := retrier.NewQuerier(ctx, backoffConfig(cfg.Backoff), func(ctx context.Context) (pglib.Querier, error) {
		return builder(ctx, cfg.URL)
	}, o.logger)
	if err != nil {
		return nil, fmt.Errorf("creating postgres sink querier: %w", err)
	}

	return NewStoreWithQuerier(querier, o.logger), nil
}

func NewStoreWithQuerier(querier pglib.Querier, logger loglib.Logger) *Store {
	return &Store{
		querier: querier,
		logger:  loglib.ModuleLogger(logger, "postgres_sink_store"),
	}
}

// InsertOrFetchTerm inserts the term unless one with the same name exists.
// Existing terms are left untouched.
func (s *Store) InsertOrFetchTerm(ctx context.Context, term vocabulary.Term) (int64, bool, error) {
	if err := sink.ValidateTerm(term); err != nil {
		return 0, false, err
	}

	insertQuery := fmt.Sprintf(`INSERT INTO %s(%s) VALUES($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (term) DO NOTHING RETURNING id`, termsTable(), termColumns)
	selectQuery := fmt.Sprintf("SELECT id FROM %s WHERE term = $1", termsTable())

	id, inserted, err := s.insertOrFetch(ctx, insertQuery,
		[]any{term.Name, term.DisplayName, term.Definition, string(term.Section), term.SectionObject, term.Units, term.DataType, term.Aliases},
		selectQuery, []any{term.Name})
	if err != nil {
		return 0, false, fmt.Errorf("storing vocabulary term %q: %w", term.Name, err)
	}
	return id, inserted, nil
}

// InsertOrFetchRequirement inserts the requirement unless the experiment type
// already lists the same required field.
func (s *Store) InsertOrFetchRequirement(ctx context.Context, req topology.Requirement) (int64, bool, error) {
	if err := sink.ValidateRequirement(req); err != nil {
		return 0, false, err
	}

	insertQuery := fmt.Sprintf(`INSERT INTO %s(%s) VALUES($1, $2, $3, $4)
	ON CONFLICT (experiment_type, required_field) DO NOTHING RETURNING id`, requirementsTable(), topologyColumns)
	selectQuery := fmt.Sprintf("SELECT id FROM %s WHERE experiment_type = $1 AND required_field = $2", requirementsTable())

	id, inserted, err := s.insertOrFetch(ctx, insertQuery,
		[]any{req.ExperimentType, req.RequiredField, req.Term, req.Subtypes},
		selectQuery, []any{req.ExperimentType, req.RequiredField})
	if err != nil {
		return 0, false, fmt.Errorf("storing topology requirement %s/%s: %w", req.ExperimentType, req.RequiredField, err)
	}
	return id, inserted, nil
}

func (s *Store) Terms(ctx context.Context) ([]vocabulary.Term, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id", coalesced(termColumns), termsTable())
	rows, err := s.querier.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error getting vocabulary terms: %w", err)
	}
	defer rows.Close()

	terms := []vocabulary.Term{}
	for rows.Next() {
		var term vocabulary.Term
		var section string
		if err := rows.Scan(&term.Name, &term.DisplayName, &term.Definition, &section,
			&term.SectionObject, &term.Units, &term.DataType, &term.Aliases); err != nil {
			return nil, fmt.Errorf("error scanning vocabulary term row: %w", err)
		}
		term.Section = vocabulary.Section(section)
		terms = append(terms, term)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading vocabulary terms: %w", err)
	}
	return terms, nil
}

func (s *Store) Requirements(ctx context.Context) ([]topology.Requirement, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id", coalesced(topologyColumns), requirementsTable())
	rows, err := s.querier.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error getting topology requirements: %w", err)
	}
	defer rows.Close()

	reqs := []topology.Requirement{}
	for rows.Next() {
		var req topology.Requirement
		if err := rows.Scan(&req.ExperimentType, &req.RequiredField, &req.Term, &req.Subtypes); err != nil {
			return nil, fmt.Errorf("error scanning topology requirement row: %w", err)
		}
		reqs = append(reqs, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading topology requirements: %w", err)
	}
	return reqs, nil
}

func (s *Store) Close() error {
	return s.querier.Close(context.Background())
}

// insertOrFetch runs the insert query, which must return the id of the new
// row or nothing on conflict. On conflict the id is read with the select
// query.
func (s *Store) insertOrFetch(ctx context.Context, insertQuery string, insertArgs []any, selectQuery string, selectArgs []any) (int64, bool, error) {
	var id int64
	err := s.querier.QueryRow(ctx, []any{&id}, insertQuery, insertArgs...)
	switch {
	case err == nil:
		return id, true, nil
	case !errors.Is(err, pglib.ErrNoRows):
		return 0, false, err
	}

	if err := s.querier.QueryRow(ctx, []any{&id}, selectQuery, selectArgs...); err != nil {
		return 0, false, err
	}
	s.logger.Trace("catalog entry already stored", loglib.Fields{"id": id})
	return id, false, nil
}

func termsTable() string {
	return pglib.QuoteQualifiedIdentifier(schemaName, vocabularyTable)
}

func requirementsTable() string {
	return pglib.QuoteQualifiedIdentifier(schemaName, topologyTable)
}

// coalesced maps nullable text columns to empty strings.
func coalesced(columns string) string {
	cols := strings.Split(columns, ", ")
	for i, c := range cols {
		cols[i] = fmt.Sprintf("COALESCE(%s, '')", c)
	}
	return strings.Join(cols, ", ")
}

func backoffConfig(cfg backoff.Config) backoff.Config {
	if cfg.Exponential == nil && cfg.Constant == nil {
		return backoff.Config{
			Exponential: &backoff.ExponentialConfig{MaxRetries: defaultMaxRetries},
		}
	}
	return cfg
}
