// SPDX-License-Identifier: Apache-2.0

package sample

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	loglib "github.com/xataio/samplekit/pkg/log"
	"github.com/xataio/samplekit/pkg/table"
	"github.com/xataio/samplekit/pkg/transformers"
	"github.com/xataio/samplekit/pkg/vocabulary"
)

type columnPlan struct {
	name        string
	section     vocabulary.Section
	dataType    string
	transformer transformers.Transformer
}

type rowOutcome struct {
	record Record
	errs   []*RowCoercionError
}

// Reshape converts every row of the table into a record, using the column
// metadata returned by ResolveColumns. Columns without metadata are left out.
// Records keep the input row order. A row with coercion failures has no
// record; in strict mode the failures are returned as a RowErrors error, in
// lenient mode they are returned alongside the remaining records.
func (t *Transformer) Reshape(ctx context.Context, tbl *table.Table, metadata map[string]vocabulary.Term) ([]Record, RowErrors, error) {
	plan := t.plan(tbl.Columns(), metadata)

	outcomes := make([]rowOutcome, tbl.Len())
	if err := t.reshapeRows(ctx, tbl, plan, outcomes); err != nil {
		return nil, nil, err
	}

	records := make([]Record, 0, len(outcomes))
	rowErrs := RowErrors{}
	for _, o := range outcomes {
		if len(o.errs) > 0 {
			rowErrs = append(rowErrs, o.errs...)
			continue
		}
		records = append(records, o.record)
	}

	if len(rowErrs) > 0 {
		if t.mode == ModeStrict {
			return nil, nil, rowErrs
		}
		t.logger.Warn(rowErrs, "dropping rows with invalid values", loglib.Fields{
			"failed_rows": len(rowErrs.Rows()),
		})
	}

	t.logger.Info("rows reshaped", loglib.Fields{
		"records": len(records),
		"rows":    tbl.Len(),
	})

	return records, rowErrs, nil
}

// plan follows the table column order so that errors within a row are
// reported in a stable order.
func (t *Transformer) plan(columns []string, metadata map[string]vocabulary.Term) []columnPlan {
	plan := make([]columnPlan, 0, len(metadata))
	for _, c := range columns {
		term, found := metadata[c]
		if !found {
			continue
		}
		plan = append(plan, columnPlan{
			name:        c,
			section:     term.Section,
			dataType:    term.DataType,
			transformer: t.builder.New(term.DataType),
		})
	}
	return plan
}

func (t *Transformer) reshapeRows(ctx context.Context, tbl *table.Table, plan []columnPlan, outcomes []rowOutcome) error {
	numRows := len(outcomes)
	workers := min(t.workers, numRows)
	if workers <= 1 {
		return reshapeRange(ctx, tbl, plan, outcomes, 0, numRows)
	}

	g, ctx := errgroup.WithContext(ctx)
	chunk := (numRows + workers - 1) / workers
	for start := 0; start < numRows; start += chunk {
		end := min(start+chunk, numRows)
		g.Go(func() error {
			return reshapeRange(ctx, tbl, plan, outcomes, start, end)
		})
	}
	return g.Wait()
}

// reshapeRange fills the outcomes for rows [start, end). Each row index is
// written by a single goroutine.
func reshapeRange(ctx context.Context, tbl *table.Table, plan []columnPlan, outcomes []rowOutcome, start, end int) error {
	for row := start; row < end; row++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		outcome, err := reshapeRow(tbl, plan, row)
		if err != nil {
			return err
		}
		outcomes[row] = outcome
	}
	return nil
}

func reshapeRow(tbl *table.Table, plan []columnPlan, row int) (rowOutcome, error) {
	record := newRecord(row, len(plan))
	var errs []*RowCoercionError

	for _, col := range plan {
		value, err := tbl.Value(row, col.name)
		if err != nil {
			return rowOutcome{}, fmt.Errorf("reading row %d: %w", row, err)
		}

		coerced, err := col.transformer.Transform(value)
		if err == nil {
			err = checkEncodable(coerced)
		}
		if err != nil {
			errs = append(errs, &RowCoercionError{
				Row:      row,
				Column:   col.name,
				DataType: col.dataType,
				Value:    value,
				Err:      err,
			})
			continue
		}

		switch col.section {
		case vocabulary.SectionResult:
			record.Result[col.name] = coerced
		case vocabulary.SectionFile:
			record.Files[col.name] = coerced
		default:
			record.Sample[col.name] = coerced
		}
	}

	return rowOutcome{record: record, errs: errs}, nil
}

func checkEncodable(value any) error {
	if f, ok := value.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
		return ErrNonFiniteNumber
	}
	return nil
}
