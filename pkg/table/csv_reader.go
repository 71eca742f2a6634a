// SPDX-License-Identifier: Apache-2.0

package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

type csvReader struct {
	comma          rune
	inferTypes     bool
	nullValues     map[string]struct{}
	trimWhitespace bool
}

type Option func(r *csvReader)

var errEmptyInput = errors.New("no header row found")

// default markers read as missing values when type inference is enabled
var defaultNullValues = []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL"}

// WithDelimiter sets the field delimiter, defaults to ','.
func WithDelimiter(r rune) Option {
	return func(cr *csvReader) {
		cr.comma = r
	}
}

// WithRawStrings disables type inference, every cell is kept as the string
// read from the input.
func WithRawStrings() Option {
	return func(cr *csvReader) {
		cr.inferTypes = false
	}
}

// WithNullValues overrides the cell values read as missing (nil).
func WithNullValues(values ...string) Option {
	return func(cr *csvReader) {
		cr.nullValues = toSet(values)
	}
}

// WithTrimWhitespace trims leading and trailing spaces of header names and
// cells.
func WithTrimWhitespace() Option {
	return func(cr *csvReader) {
		cr.trimWhitespace = true
	}
}

// ReadCSV reads a delimited table with a header row. Unless WithRawStrings is
// used, every column is assigned the narrowest scalar type all of its non
// missing cells parse as: int64, float64, bool or string.
func ReadCSV(in io.Reader, opts ...Option) (*Table, error) {
	cr := &csvReader{
		comma:      ',',
		inferTypes: true,
		nullValues: toSet(defaultNullValues),
	}
	for _, opt := range opts {
		opt(cr)
	}

	r := csv.NewReader(in)
	r.Comma = cr.comma
	r.ReuseRecord = false

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errEmptyInput
		}
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	header = cr.trimAll(header)
	// strip a leading UTF-8 byte order mark, spreadsheet exports add one
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv records: %w", err)
	}

	rows := make([][]any, len(records))
	for i, rec := range records {
		rec = cr.trimAll(rec)
		row := make([]any, len(rec))
		for j, cell := range rec {
			row[j] = cell
		}
		rows[i] = row
	}

	if cr.inferTypes {
		cr.inferColumnTypes(len(header), rows)
	}

	return New(header, rows)
}

// ReadCSVFile opens and reads the file on input.
func ReadCSVFile(path string, opts ...Option) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	t, err := ReadCSV(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return t, nil
}

type columnKind int

const (
	kindInt columnKind = iota
	kindFloat
	kindBool
	kindString
)

func (cr *csvReader) inferColumnTypes(numColumns int, rows [][]any) {
	for col := 0; col < numColumns; col++ {
		kind := kindInt
		seen := false
		for _, row := range rows {
			if col >= len(row) {
				continue
			}
			cell := row[col].(string)
			if cr.isNull(cell) {
				continue
			}
			kind = widen(kind, cell, !seen)
			seen = true
			if kind == kindString {
				break
			}
		}

		for _, row := range rows {
			if col >= len(row) {
				continue
			}
			row[col] = cr.convert(kind, row[col].(string))
		}
	}
}

// widen returns the narrowest kind able to represent both the current column
// kind and the cell on input. Numeric and boolean cells never share a kind.
func widen(kind columnKind, cell string, first bool) columnKind {
	switch kind {
	case kindInt:
		if _, err := strconv.ParseInt(cell, 10, 64); err == nil {
			return kindInt
		}
		if isFloat(cell) {
			return kindFloat
		}
		if first && isBool(cell) {
			return kindBool
		}
	case kindFloat:
		if isFloat(cell) {
			return kindFloat
		}
	case kindBool:
		if isBool(cell) {
			return kindBool
		}
	}
	return kindString
}

func (cr *csvReader) convert(kind columnKind, cell string) any {
	if cr.isNull(cell) {
		return nil
	}
	switch kind {
	case kindInt:
		v, _ := strconv.ParseInt(cell, 10, 64)
		return v
	case kindFloat:
		v, _ := strconv.ParseFloat(cell, 64)
		return v
	case kindBool:
		return strings.EqualFold(cell, "true")
	default:
		return cell
	}
}

func (cr *csvReader) isNull(cell string) bool {
	_, found := cr.nullValues[cell]
	return found
}

func (cr *csvReader) trimAll(values []string) []string {
	if !cr.trimWhitespace {
		return values
	}
	for i := range values {
		values[i] = strings.TrimSpace(values[i])
	}
	return values
}

func isFloat(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isBool(s string) bool {
	return strings.EqualFold(s, "true") || strings.EqualFold(s, "false")
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
