// SPDX-License-Identifier: Apache-2.0

package sample

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedMode = errors.New("unsupported transformation mode")
	// ErrNonFiniteNumber is returned for NaN and infinite values, which have
	// no JSON representation.
	ErrNonFiniteNumber = errors.New("value is not a finite number")
)

// ValidationFailedError is returned when the table lacks required fields of
// the declared experiment type. It lists every missing field.
type ValidationFailedError struct {
	ExperimentType string
	Missing        []string
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("samples missing required fields for experiment type %q: %s",
		e.ExperimentType, strings.Join(e.Missing, ", "))
}

// VocabularyGapError is returned in strict mode when table columns have no
// vocabulary term. It lists every unrecognised column.
type VocabularyGapError struct {
	Columns []string
}

func (e *VocabularyGapError) Error() string {
	return fmt.Sprintf("columns not in vocabulary: %s", strings.Join(e.Columns, ", "))
}

// ReservedColumnError is returned when sample level columns would overwrite
// the nested Result or files partitions of a record.
type ReservedColumnError struct {
	Columns []string
}

func (e *ReservedColumnError) Error() string {
	return fmt.Sprintf("sample columns use reserved record keys: %s", strings.Join(e.Columns, ", "))
}

// RowCoercionError is returned when a row value cannot be coerced to the data
// type declared for its column.
type RowCoercionError struct {
	Row      int
	Column   string
	DataType string
	Value    any
	Err      error
}

func (e *RowCoercionError) Error() string {
	return fmt.Sprintf("row %d, column %s: cannot coerce %v to %s: %v", e.Row, e.Column, e.Value, e.DataType, e.Err)
}

func (e *RowCoercionError) Unwrap() error {
	return e.Err
}

// RowErrors aggregates the coercion failures of a run, in row order.
type RowErrors []*RowCoercionError

func (e RowErrors) Error() string {
	if len(e) == 0 {
		return "no row errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d value(s) failed coercion: %s", len(e), strings.Join(msgs, "; "))
}

func (e RowErrors) Unwrap() []error {
	errs := make([]error, 0, len(e))
	for _, err := range e {
		errs = append(errs, err)
	}
	return errs
}

// Rows returns the distinct indexes of the failed rows, in order.
func (e RowErrors) Rows() []int {
	rows := []int{}
	for _, err := range e {
		if len(rows) > 0 && rows[len(rows)-1] == err.Row {
			continue
		}
		rows = append(rows, err.Row)
	}
	return rows
}
