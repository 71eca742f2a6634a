// SPDX-License-Identifier: Apache-2.0

package sample

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/xataio/samplekit/internal/json"
	"github.com/xataio/samplekit/pkg/table"
	"github.com/xataio/samplekit/pkg/topology"
	"github.com/xataio/samplekit/pkg/transformers"
	"github.com/xataio/samplekit/pkg/transformers/mocks"
	"github.com/xataio/samplekit/pkg/vocabulary"
)

var errTest = errors.New("oh noes")

func newTestTopology(t *testing.T) *topology.Catalog {
	t.Helper()
	catalog, err := topology.NewCatalog([]topology.Requirement{
		{ExperimentType: "VOCs", RequiredField: "sample_ID"},
		{ExperimentType: "VOCs", RequiredField: "collected_on"},
		{ExperimentType: "Isotopes", RequiredField: "sample_ID"},
	})
	require.NoError(t, err)
	return catalog
}

func newTestVocabulary(t *testing.T) *vocabulary.Catalog {
	t.Helper()
	catalog, err := vocabulary.NewCatalog([]vocabulary.Term{
		vocabulary.NewTerm("sample_ID", "Specimen_description", "string"),
		vocabulary.NewTerm("collected_on", "Specimen_description", "date-time"),
		vocabulary.NewTerm("co2_ppm", "result", "float"),
		vocabulary.NewTerm("raw_data", "file", "string"),
		vocabulary.NewTerm("files", "file", "string"),
		vocabulary.NewTerm("Result", "Specimen_description", "string"),
	})
	require.NoError(t, err)
	return catalog
}

func newTestTable(t *testing.T, columns []string, rows ...[]any) *table.Table {
	t.Helper()
	tbl, err := table.New(columns, rows)
	require.NoError(t, err)
	return tbl
}

func newTestTransformer(t *testing.T, mode Mode, opts ...Option) *Transformer {
	t.Helper()
	tr, err := New(&Config{Mode: mode}, newTestTopology(t), newTestVocabulary(t), opts...)
	require.NoError(t, err)
	return tr
}

func TestNew(t *testing.T) {
	t.Parallel()

	tr, err := New(&Config{}, newTestTopology(t), newTestVocabulary(t))
	require.NoError(t, err)
	require.Equal(t, ModeStrict, tr.Mode())
	require.Equal(t, 1, tr.workers)

	_, err = New(&Config{Mode: "loose"}, newTestTopology(t), newTestVocabulary(t))
	require.ErrorIs(t, err, ErrUnsupportedMode)
}

func TestTransformer_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		columns        []string
		experimentType string

		wantMissing []string
		wantErr     error
	}{
		{
			name:           "ok",
			columns:        []string{"collected_on", "sample_ID"},
			experimentType: "VOCs",
			wantMissing:    []string{},
			wantErr:        nil,
		},
		{
			name:           "ok - superset of required fields",
			columns:        []string{"sample_ID", "co2_ppm", "raw_photo"},
			experimentType: "Isotopes",
			wantMissing:    []string{},
			wantErr:        nil,
		},
		{
			name:           "error - missing required fields reported together",
			columns:        []string{"co2_ppm"},
			experimentType: "VOCs",
			wantMissing:    []string{"collected_on", "sample_ID"},
			wantErr: &ValidationFailedError{
				ExperimentType: "VOCs",
				Missing:        []string{"collected_on", "sample_ID"},
			},
		},
		{
			name:           "error - unknown experiment type",
			columns:        []string{"sample_ID"},
			experimentType: "Lipids",
			wantMissing:    []string{},
			wantErr:        &topology.UnknownExperimentTypeError{ExperimentType: "Lipids"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tr := newTestTransformer(t, ModeStrict)
			report, err := tr.Validate(tc.columns, tc.experimentType)
			require.Equal(t, tc.wantErr, err)
			require.Equal(t, tc.wantMissing, report.MissingRequiredFields)
			require.Equal(t, tc.experimentType, report.ExperimentType)
		})
	}
}

func TestTransformer_ResolveColumns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mode    Mode
		columns []string

		wantColumns      []string
		wantUnrecognized []string
		wantErr          error
	}{
		{
			name:             "ok",
			mode:             ModeStrict,
			columns:          []string{"sample_ID", "co2_ppm", "raw_data"},
			wantColumns:      []string{"co2_ppm", "raw_data", "sample_ID"},
			wantUnrecognized: []string{},
		},
		{
			name:             "strict - unknown columns",
			mode:             ModeStrict,
			columns:          []string{"sample_ID", "z_col", "raw_photo"},
			wantUnrecognized: []string{"raw_photo", "z_col"},
			wantErr:          &VocabularyGapError{Columns: []string{"raw_photo", "z_col"}},
		},
		{
			name:             "lenient - unknown columns skipped",
			mode:             ModeLenient,
			columns:          []string{"sample_ID", "raw_photo"},
			wantColumns:      []string{"sample_ID"},
			wantUnrecognized: []string{"raw_photo"},
		},
		{
			name:             "file column named files is allowed",
			mode:             ModeStrict,
			columns:          []string{"files"},
			wantColumns:      []string{"files"},
			wantUnrecognized: []string{},
		},
		{
			name:             "error - reserved sample column",
			mode:             ModeLenient,
			columns:          []string{"sample_ID", "Result"},
			wantUnrecognized: []string{},
			wantErr:          &ReservedColumnError{Columns: []string{"Result"}},
		},
		{
			name:             "strict - reserved sample column and unknown columns",
			mode:             ModeStrict,
			columns:          []string{"sample_ID", "Result", "raw_photo"},
			wantUnrecognized: []string{"raw_photo"},
			wantErr: errors.Join(
				&ReservedColumnError{Columns: []string{"Result"}},
				&VocabularyGapError{Columns: []string{"raw_photo"}},
			),
		},
		{
			name:             "lenient - reserved sample column and unknown columns",
			mode:             ModeLenient,
			columns:          []string{"sample_ID", "Result", "raw_photo"},
			wantUnrecognized: []string{"raw_photo"},
			wantErr:          &ReservedColumnError{Columns: []string{"Result"}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tr := newTestTransformer(t, tc.mode)
			metadata, report, err := tr.ResolveColumns(tc.columns)
			require.Equal(t, tc.wantErr, err)
			require.Equal(t, tc.wantUnrecognized, report.UnrecognizedColumns)
			if tc.wantErr != nil {
				require.Nil(t, metadata)
				return
			}
			gotColumns := []string{}
			for c := range metadata {
				gotColumns = append(gotColumns, c)
			}
			require.ElementsMatch(t, tc.wantColumns, gotColumns)
		})
	}
}

// topology row {Types: VOCs, required_fields: sample_ID}, table without
// sample_ID
func TestTransformer_Run_MissingRequiredField(t *testing.T) {
	t.Parallel()

	tr := newTestTransformer(t, ModeStrict, WithTransformerBuilder(&mocks.TransformerBuilder{
		NewFn: func(string) transformers.Transformer {
			t.Fatal("no row should be reshaped")
			return nil
		},
	}))
	tbl := newTestTable(t, []string{"collected_on", "co2_ppm"}, []any{"2021-03-01", 412.5})

	result, err := tr.Run(context.Background(), tbl, "VOCs")
	require.Nil(t, result)
	var validationErr *ValidationFailedError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, []string{"sample_ID"}, validationErr.Missing)
}

// date-time value under a Specimen_description term ends up at the top level
// with a date tag
func TestTransformer_Run_DateTimeSampleField(t *testing.T) {
	t.Parallel()

	tr := newTestTransformer(t, ModeStrict)
	tbl := newTestTable(t, []string{"sample_ID", "collected_on"}, []any{"S1", "2021-03-01"})

	result, err := tr.Run(context.Background(), tbl, "VOCs")
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	require.Equal(t, transformers.Date{Value: "2021-03-01"}, result.Records[0].Sample["collected_on"])

	out, err := json.Marshal(result.Records[0])
	require.NoError(t, err)
	require.Equal(t, "2021-03-01", gjson.GetBytes(out, "collected_on.$date").String())
	require.Equal(t, "S1", gjson.GetBytes(out, "sample_ID").String())
}

// result field passes through unmodified under Result
func TestTransformer_Run_ResultField(t *testing.T) {
	t.Parallel()

	tr := newTestTransformer(t, ModeStrict)
	tbl := newTestTable(t, []string{"sample_ID", "collected_on", "co2_ppm", "raw_data"},
		[]any{"S1", "2021-03-01", 412.5, "s1.raw"},
	)

	result, err := tr.Run(context.Background(), tbl, "VOCs")
	require.NoError(t, err)
	require.True(t, result.Report.IsEmpty())
	require.Len(t, result.Records, 1)

	record := result.Records[0]
	require.Equal(t, 412.5, record.Result["co2_ppm"])
	require.Equal(t, "s1.raw", record.Files["raw_data"])
	require.NotContains(t, record.Sample, "co2_ppm")

	out, err := json.Marshal(record)
	require.NoError(t, err)
	require.Equal(t, 412.5, gjson.GetBytes(out, "Result.co2_ppm").Float())
	require.Equal(t, "s1.raw", gjson.GetBytes(out, "files.raw_data").String())
}

// column outside the vocabulary fails strict runs and is dropped from lenient
// ones
func TestTransformer_Run_UnrecognizedColumn(t *testing.T) {
	t.Parallel()

	tbl := newTestTable(t, []string{"sample_ID", "collected_on", "raw_photo"},
		[]any{"S1", "2021-03-01", "p1.jpg"},
		[]any{"S2", "2021-03-02", "p2.jpg"},
	)

	t.Run("strict", func(t *testing.T) {
		t.Parallel()

		tr := newTestTransformer(t, ModeStrict)
		result, err := tr.Run(context.Background(), tbl, "VOCs")
		require.Nil(t, result)
		require.Equal(t, &VocabularyGapError{Columns: []string{"raw_photo"}}, err)
	})

	t.Run("lenient", func(t *testing.T) {
		t.Parallel()

		tr := newTestTransformer(t, ModeLenient)
		result, err := tr.Run(context.Background(), tbl, "VOCs")
		require.NoError(t, err)
		require.Equal(t, []string{"raw_photo"}, result.Report.UnrecognizedColumns)
		require.Len(t, result.Records, 2)
		for _, r := range result.Records {
			require.NotContains(t, r.Flatten(), "raw_photo")
		}
	})
}

func TestTransformer_Run_CoercionErrors(t *testing.T) {
	t.Parallel()

	tbl := newTestTable(t, []string{"sample_ID", "collected_on"},
		[]any{"S1", "2021-03-01"},
		[]any{"S2", "not a date"},
		[]any{"S3", "2021-03-03"},
		[]any{"S4", nil},
	)

	t.Run("strict", func(t *testing.T) {
		t.Parallel()

		tr := newTestTransformer(t, ModeStrict)
		result, err := tr.Run(context.Background(), tbl, "VOCs")
		require.Nil(t, result)

		var rowErrs RowErrors
		require.ErrorAs(t, err, &rowErrs)
		require.Equal(t, []int{1, 3}, rowErrs.Rows())
		require.ErrorIs(t, err, transformers.ErrInvalidDateTime)
		require.ErrorIs(t, err, transformers.ErrMissingValue)
	})

	t.Run("lenient", func(t *testing.T) {
		t.Parallel()

		tr := newTestTransformer(t, ModeLenient)
		result, err := tr.Run(context.Background(), tbl, "VOCs")
		require.NoError(t, err)
		require.Len(t, result.Records, 2)
		require.Equal(t, 0, result.Records[0].Row)
		require.Equal(t, 2, result.Records[1].Row)
		require.Len(t, result.RowErrors, 2)
		require.Equal(t, "collected_on", result.RowErrors[0].Column)
		require.Equal(t, "not a date", result.RowErrors[0].Value)
	})
}

func TestTransformer_Reshape_TransformerError(t *testing.T) {
	t.Parallel()

	tr := newTestTransformer(t, ModeStrict, WithTransformerBuilder(&mocks.TransformerBuilder{
		NewFn: func(dataType string) transformers.Transformer {
			return &mocks.Transformer{
				TransformFn: func(v any) (any, error) {
					if dataType == "float" {
						return nil, errTest
					}
					return v, nil
				},
			}
		},
	}))
	tbl := newTestTable(t, []string{"sample_ID", "co2_ppm"}, []any{"S1", 1.0})
	metadata, _, err := tr.ResolveColumns(tbl.Columns())
	require.NoError(t, err)

	records, rowErrs, err := tr.Reshape(context.Background(), tbl, metadata)
	require.ErrorIs(t, err, errTest)
	require.Nil(t, records)
	require.Nil(t, rowErrs)

	var coercionErr *RowCoercionError
	require.ErrorAs(t, err, &coercionErr)
	require.Equal(t, &RowCoercionError{Row: 0, Column: "co2_ppm", DataType: "float", Value: 1.0, Err: errTest}, coercionErr)
}

func TestTransformer_Reshape_NoResultOrFileColumns(t *testing.T) {
	t.Parallel()

	tr := newTestTransformer(t, ModeStrict)
	tbl := newTestTable(t, []string{"sample_ID"}, []any{"S1"})
	metadata, _, err := tr.ResolveColumns(tbl.Columns())
	require.NoError(t, err)

	records, _, err := tr.Reshape(context.Background(), tbl, metadata)
	require.NoError(t, err)
	require.Len(t, records, 1)

	out, err := json.Marshal(records[0])
	require.NoError(t, err)
	require.JSONEq(t, `{"sample_ID":"S1","Result":{},"files":{}}`, string(out))
}

func TestTransformer_Reshape_Workers(t *testing.T) {
	t.Parallel()

	rows := make([][]any, 0, 101)
	for i := 0; i < 101; i++ {
		rows = append(rows, []any{int64(i), float64(i) / 2})
	}
	tbl := newTestTable(t, []string{"sample_ID", "co2_ppm"}, rows...)

	sequential := newTestTransformer(t, ModeStrict)
	parallel, err := New(&Config{Workers: 8}, newTestTopology(t), newTestVocabulary(t))
	require.NoError(t, err)

	metadata, _, err := sequential.ResolveColumns(tbl.Columns())
	require.NoError(t, err)

	want, _, err := sequential.Reshape(context.Background(), tbl, metadata)
	require.NoError(t, err)
	got, _, err := parallel.Reshape(context.Background(), tbl, metadata)
	require.NoError(t, err)

	require.Len(t, got, 101)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("parallel reshape mismatch (-want +got):\n%s", diff)
	}
	for i, r := range got {
		require.Equal(t, i, r.Row)
	}
}

func TestTransformer_Reshape_ContextCanceled(t *testing.T) {
	t.Parallel()

	tr := newTestTransformer(t, ModeStrict)
	tbl := newTestTable(t, []string{"sample_ID"}, []any{"S1"}, []any{"S2"})
	metadata, _, err := tr.ResolveColumns(tbl.Columns())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = tr.Reshape(ctx, tbl, metadata)
	require.ErrorIs(t, err, context.Canceled)
}

func TestTransformer_Check(t *testing.T) {
	t.Parallel()

	tr := newTestTransformer(t, ModeStrict)

	report, err := tr.Check([]string{"co2_ppm", "raw_photo"}, "VOCs")
	require.NoError(t, err)
	require.Equal(t, Report{
		ExperimentType:        "VOCs",
		MissingRequiredFields: []string{"collected_on", "sample_ID"},
		UnrecognizedColumns:   []string{"raw_photo"},
	}, report)
	require.False(t, report.IsEmpty())

	_, err = tr.Check([]string{"sample_ID"}, "Lipids")
	require.ErrorIs(t, err, topology.ErrEmptyTopology)

	report, err = tr.Check([]string{"sample_ID", "Result", "raw_photo"}, "Isotopes")
	var reservedErr *ReservedColumnError
	require.ErrorAs(t, err, &reservedErr)
	require.Equal(t, []string{"Result"}, reservedErr.Columns)
	var gapErr *VocabularyGapError
	require.ErrorAs(t, err, &gapErr)
	require.Equal(t, []string{"raw_photo"}, report.UnrecognizedColumns)
}

// infinite numbers parse as floats but cannot be encoded, so they fail their
// row only
func TestTransformer_Run_NonFiniteNumbers(t *testing.T) {
	t.Parallel()

	tbl, err := table.ReadCSV(strings.NewReader("sample_ID,co2_ppm\na,412.5\nb,inf\nc,-Infinity\nd,400\n"))
	require.NoError(t, err)

	t.Run("strict", func(t *testing.T) {
		t.Parallel()

		tr := newTestTransformer(t, ModeStrict)
		result, err := tr.Run(context.Background(), tbl, "Isotopes")
		require.Nil(t, result)

		var rowErrs RowErrors
		require.ErrorAs(t, err, &rowErrs)
		require.Equal(t, []int{1, 2}, rowErrs.Rows())
		require.ErrorIs(t, err, ErrNonFiniteNumber)
	})

	t.Run("lenient", func(t *testing.T) {
		t.Parallel()

		tr := newTestTransformer(t, ModeLenient)
		result, err := tr.Run(context.Background(), tbl, "Isotopes")
		require.NoError(t, err)
		require.Equal(t, []int{1, 2}, result.RowErrors.Rows())
		require.Len(t, result.Records, 2)

		out, err := json.Marshal(result.Records)
		require.NoError(t, err)
		require.Equal(t, 412.5, gjson.GetBytes(out, "0.Result.co2_ppm").Float())
		require.Equal(t, "d", gjson.GetBytes(out, "1.sample_ID").String())
	})
}

// year only and compact dates are read as integers and still get a date tag
func TestTransformer_Run_DigitOnlyDates(t *testing.T) {
	t.Parallel()

	tbl, err := table.ReadCSV(strings.NewReader("sample_ID,collected_on\na,2021\nb,20210301\n"))
	require.NoError(t, err)
	value, err := tbl.Value(0, "collected_on")
	require.NoError(t, err)
	require.Equal(t, int64(2021), value)

	for _, mode := range []Mode{ModeStrict, ModeLenient} {
		t.Run(string(mode), func(t *testing.T) {
			t.Parallel()

			tr := newTestTransformer(t, mode)
			result, err := tr.Run(context.Background(), tbl, "VOCs")
			require.NoError(t, err)
			require.Empty(t, result.RowErrors)
			require.Len(t, result.Records, 2)
			require.Equal(t, transformers.Date{Value: "2021"}, result.Records[0].Sample["collected_on"])
			require.Equal(t, transformers.Date{Value: "20210301"}, result.Records[1].Sample["collected_on"])

			out, err := json.Marshal(result.Records[1])
			require.NoError(t, err)
			require.Equal(t, "20210301", gjson.GetBytes(out, "collected_on.$date").String())
		})
	}
}
