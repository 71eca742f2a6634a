// SPDX-License-Identifier: Apache-2.0

package table

import (
	"errors"
	"fmt"
	"slices"
)

// Table is an in-memory, column named, row ordered dataset. Values are plain
// scalars: nil, int64, float64, bool, string or time.Time.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]any
}

var (
	ErrNoColumns       = errors.New("table has no columns")
	ErrColumnNotFound  = errors.New("column not found")
	ErrRowOutOfBounds  = errors.New("row index out of bounds")
	errEmptyColumnName = errors.New("empty column name")
)

type DuplicateColumnError struct {
	Column string
}

func (e *DuplicateColumnError) Error() string {
	return fmt.Sprintf("duplicate column: %s", e.Column)
}

type RowLengthError struct {
	Row      int
	Got      int
	Expected int
}

func (e *RowLengthError) Error() string {
	return fmt.Sprintf("row %d has %d values, expected %d", e.Row, e.Got, e.Expected)
}

// New builds a table from the column names and rows on input. Every row must
// have exactly one value per column.
func New(columns []string, rows [][]any) (*Table, error) {
	if len(columns) == 0 {
		return nil, ErrNoColumns
	}

	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if c == "" {
			return nil, fmt.Errorf("column %d: %w", i, errEmptyColumnName)
		}
		if _, found := index[c]; found {
			return nil, &DuplicateColumnError{Column: c}
		}
		index[c] = i
	}

	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, &RowLengthError{Row: i, Got: len(row), Expected: len(columns)}
		}
	}

	return &Table{
		columns: slices.Clone(columns),
		index:   index,
		rows:    rows,
	}, nil
}

// Columns returns a copy of the column names, in header order.
func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

func (t *Table) HasColumn(name string) bool {
	_, found := t.index[name]
	return found
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Value returns the value for the given row and column.
func (t *Table) Value(row int, column string) (any, error) {
	if row < 0 || row >= len(t.rows) {
		return nil, fmt.Errorf("%w: %d", ErrRowOutOfBounds, row)
	}
	i, found := t.index[column]
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, column)
	}
	return t.rows[row][i], nil
}

// Row returns the row as a column name to value map.
func (t *Table) Row(row int) (map[string]any, error) {
	if row < 0 || row >= len(t.rows) {
		return nil, fmt.Errorf("%w: %d", ErrRowOutOfBounds, row)
	}
	m := make(map[string]any, len(t.columns))
	for i, c := range t.columns {
		m[c] = t.rows[row][i]
	}
	return m, nil
}

// StringValue returns the value as a string. Nil values are returned as an
// empty string.
func (t *Table) StringValue(row int, column string) (string, error) {
	v, err := t.Value(row, column)
	if err != nil {
		return "", err
	}
	return toString(v), nil
}

// RequireColumns checks that all the column names on input are present in the
// table, reporting all the missing ones together.
func (t *Table) RequireColumns(columns ...string) error {
	missing := []string{}
	for _, c := range columns {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrColumnNotFound, missing)
	}
	return nil
}

func toString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
