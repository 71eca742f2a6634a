// SPDX-License-Identifier: Apache-2.0

package sample

import (
	"context"
	"errors"
	"fmt"
	"slices"

	loglib "github.com/xataio/samplekit/pkg/log"
	"github.com/xataio/samplekit/pkg/table"
	"github.com/xataio/samplekit/pkg/transformers"
	"github.com/xataio/samplekit/pkg/transformers/builder"
	"github.com/xataio/samplekit/pkg/vocabulary"
)

// Transformer validates a sample table against the topology and vocabulary
// catalogs and reshapes its rows into nested records.
type Transformer struct {
	logger     loglib.Logger
	topology   requiredFieldsFinder
	vocabulary termFinder
	builder    transformerBuilder
	mode       Mode
	workers    int
}

type Mode string

const (
	ModeStrict  Mode = "strict"
	ModeLenient Mode = "lenient"
)

type Config struct {
	// Mode defaults to strict.
	Mode Mode
	// Workers is the number of goroutines reshaping rows. Defaults to 1.
	Workers int
}

type requiredFieldsFinder interface {
	RequiredFields(experimentType string) ([]string, error)
}

type termFinder interface {
	Lookup(column string) (vocabulary.Term, bool)
}

type transformerBuilder interface {
	New(dataType string) transformers.Transformer
}

type Option func(t *Transformer)

// ParseMode returns the mode for the string on input. Empty defaults to
// strict.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeStrict:
		return ModeStrict, nil
	case ModeLenient:
		return ModeLenient, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMode, s)
	}
}

func New(cfg *Config, topology requiredFieldsFinder, vocabulary termFinder, opts ...Option) (*Transformer, error) {
	mode, err := ParseMode(string(cfg.Mode))
	if err != nil {
		return nil, err
	}

	t := &Transformer{
		logger:     loglib.NewNoopLogger(),
		topology:   topology,
		vocabulary: vocabulary,
		builder:    builder.NewTransformerBuilder(),
		mode:       mode,
		workers:    max(cfg.Workers, 1),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

func WithLogger(l loglib.Logger) Option {
	return func(t *Transformer) {
		t.logger = loglib.ModuleLogger(l, "sample_transformer")
	}
}

func WithTransformerBuilder(b transformerBuilder) Option {
	return func(t *Transformer) {
		t.builder = b
	}
}

func (t *Transformer) Mode() Mode {
	return t.mode
}

// Run validates the table for the experiment type on input and reshapes all
// its rows. No row is reshaped if validation fails.
func (t *Transformer) Run(ctx context.Context, tbl *table.Table, experimentType string) (*Result, error) {
	columns := tbl.Columns()

	report, err := t.Validate(columns, experimentType)
	if err != nil {
		return nil, err
	}

	metadata, columnsReport, err := t.ResolveColumns(columns)
	if err != nil {
		return nil, err
	}
	report.UnrecognizedColumns = columnsReport.UnrecognizedColumns

	records, rowErrs, err := t.Reshape(ctx, tbl, metadata)
	if err != nil {
		return nil, err
	}

	return &Result{
		Records:   records,
		Report:    report,
		RowErrors: rowErrs,
	}, nil
}

// Check runs the validation phases without failing on their findings, and
// returns the report with every missing required field and unrecognised
// column. Unknown experiment types and reserved column names are still
// returned as errors.
func (t *Transformer) Check(columns []string, experimentType string) (Report, error) {
	report, err := t.Validate(columns, experimentType)
	if err != nil {
		var validationErr *ValidationFailedError
		if !errors.As(err, &validationErr) {
			return report, err
		}
	}

	_, columnsReport, err := t.ResolveColumns(columns)
	report.UnrecognizedColumns = columnsReport.UnrecognizedColumns
	if err != nil {
		var reservedErr *ReservedColumnError
		var gapErr *VocabularyGapError
		if errors.As(err, &reservedErr) || !errors.As(err, &gapErr) {
			return report, err
		}
	}

	return report, nil
}

// Validate checks that every required field of the experiment type is among
// the columns on input. All the missing fields are reported together.
func (t *Transformer) Validate(columns []string, experimentType string) (Report, error) {
	report := newReport(experimentType)

	required, err := t.topology.RequiredFields(experimentType)
	if err != nil {
		return report, err
	}
	t.logger.Debug("required fields resolved", loglib.Fields{
		"experiment_type": experimentType,
		"required_fields": required,
	})

	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}

	for _, field := range required {
		if _, found := present[field]; !found {
			report.MissingRequiredFields = append(report.MissingRequiredFields, field)
		}
	}

	if len(report.MissingRequiredFields) > 0 {
		slices.Sort(report.MissingRequiredFields)
		return report, &ValidationFailedError{
			ExperimentType: experimentType,
			Missing:        slices.Clone(report.MissingRequiredFields),
		}
	}

	return report, nil
}

// ResolveColumns returns the vocabulary term of every column on input.
// Columns without a term fail the run in strict mode, and are reported and
// left out of the records in lenient mode.
func (t *Transformer) ResolveColumns(columns []string) (map[string]vocabulary.Term, Report, error) {
	report := newReport("")
	metadata := make(map[string]vocabulary.Term, len(columns))
	reserved := []string{}

	for _, c := range columns {
		term, found := t.vocabulary.Lookup(c)
		if !found {
			report.UnrecognizedColumns = append(report.UnrecognizedColumns, c)
			continue
		}
		if term.Section == vocabulary.SectionSample && isReservedKey(c) {
			reserved = append(reserved, c)
			continue
		}
		metadata[c] = term
	}

	slices.Sort(report.UnrecognizedColumns)

	errs := []error{}
	if len(reserved) > 0 {
		slices.Sort(reserved)
		errs = append(errs, &ReservedColumnError{Columns: reserved})
	}

	if len(report.UnrecognizedColumns) > 0 {
		if t.mode == ModeStrict {
			errs = append(errs, &VocabularyGapError{Columns: slices.Clone(report.UnrecognizedColumns)})
		} else {
			t.logger.Warn(nil, "skipping columns not in vocabulary", loglib.Fields{
				"unrecognized_columns": report.UnrecognizedColumns,
			})
		}
	}

	switch len(errs) {
	case 0:
		return metadata, report, nil
	case 1:
		return nil, report, errs[0]
	default:
		return nil, report, errors.Join(errs...)
	}
}

func isReservedKey(column string) bool {
	return column == ResultKey || column == FilesKey
}

func newReport(experimentType string) Report {
	return Report{
		ExperimentType:        experimentType,
		MissingRequiredFields: []string{},
		UnrecognizedColumns:   []string{},
	}
}
