// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xataio/samplekit/internal/backoff"
	pglib "github.com/xataio/samplekit/internal/postgres"
	postgresmocks "github.com/xataio/samplekit/internal/postgres/mocks"
	loglib "github.com/xataio/samplekit/pkg/log"
	"github.com/xataio/samplekit/pkg/sink"
	"github.com/xataio/samplekit/pkg/topology"
	"github.com/xataio/samplekit/pkg/vocabulary"
)

func TestStore_InsertOrFetchTerm(t *testing.T) {
	t.Parallel()

	testTerm := vocabulary.Term{
		Name:          "sample_ID",
		DisplayName:   "Sample ID",
		Section:       vocabulary.SectionSample,
		SectionObject: "Specimen_description",
		DataType:      "string",
	}
	errTest := errors.New("oh noes")

	wantInsert := fmt.Sprintf(`INSERT INTO %s(%s) VALUES($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (term) DO NOTHING RETURNING id`, termsTable(), termColumns)
	wantSelect := fmt.Sprintf("SELECT id FROM %s WHERE term = $1", termsTable())

	tests := []struct {
		name    string
		term    vocabulary.Term
		querier *postgresmocks.Querier

		wantID       int64
		wantInserted bool
		wantErr      error
	}{
		{
			name: "ok - inserted",
			term: testTerm,
			querier: &postgresmocks.Querier{
				QueryRowFn: func(_ context.Context, dest []any, query string, args ...any) error {
					require.Equal(t, wantInsert, query)
					require.Equal(t, []any{"sample_ID", "Sample ID", "", "sample", "Specimen_description", "", "string", ""}, args)
					*(dest[0].(*int64)) = 7
					return nil
				},
			},

			wantID:       7,
			wantInserted: true,
		},
		{
			name: "ok - already exists",
			term: testTerm,
			querier: &postgresmocks.Querier{
				QueryRowFn: func(_ context.Context, dest []any, query string, args ...any) error {
					if strings.HasPrefix(query, "INSERT") {
						return pglib.ErrNoRows
					}
					require.Equal(t, wantSelect, query)
					require.Equal(t, []any{"sample_ID"}, args)
					*(dest[0].(*int64)) = 3
					return nil
				},
			},

			wantID:       3,
			wantInserted: false,
		},
		{
			name: "error - invalid term",
			term: vocabulary.Term{},
			querier: &postgresmocks.Querier{
				QueryRowFn: func(context.Context, []any, string, ...any) error {
					return errors.New("QueryRowFn: should not be called")
				},
			},

			wantErr: sink.ErrInvalidTerm,
		},
		{
			name: "error - inserting",
			term: testTerm,
			querier: &postgresmocks.Querier{
				QueryRowFn: func(context.Context, []any, string, ...any) error {
					return errTest
				},
			},

			wantErr: errTest,
		},
		{
			name: "error - fetching",
			term: testTerm,
			querier: &postgresmocks.Querier{
				QueryRowFn: func(_ context.Context, _ []any, query string, _ ...any) error {
					if strings.HasPrefix(query, "INSERT") {
						return pglib.ErrNoRows
					}
					return errTest
				},
			},

			wantErr: errTest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := NewStoreWithQuerier(tc.querier, loglib.NewNoopLogger())
			id, inserted, err := store.InsertOrFetchTerm(context.Background(), tc.term)
			require.ErrorIs(t, err, tc.wantErr)
			require.Equal(t, tc.wantID, id)
			require.Equal(t, tc.wantInserted, inserted)
		})
	}
}

func TestStore_InsertOrFetchRequirement(t *testing.T) {
	t.Parallel()

	testReq := topology.Requirement{
		Term:           "VOCs",
		ExperimentType: "VOCs",
		RequiredField:  "sample_ID",
	}

	wantInsert := fmt.Sprintf(`INSERT INTO %s(%s) VALUES($1, $2, $3, $4)
	ON CONFLICT (experiment_type, required_field) DO NOTHING RETURNING id`, requirementsTable(), topologyColumns)

	tests := []struct {
		name    string
		req     topology.Requirement
		querier *postgresmocks.Querier

		wantID       int64
		wantInserted bool
		wantErr      error
	}{
		{
			name: "ok - inserted",
			req:  testReq,
			querier: &postgresmocks.Querier{
				QueryRowFn: func(_ context.Context, dest []any, query string, args ...any) error {
					require.Equal(t, wantInsert, query)
					require.Equal(t, []any{"VOCs", "sample_ID", "VOCs", ""}, args)
					*(dest[0].(*int64)) = 1
					return nil
				},
			},

			wantID:       1,
			wantInserted: true,
		},
		{
			name: "ok - already exists",
			req:  testReq,
			querier: &postgresmocks.Querier{
				QueryRowFn: func(_ context.Context, dest []any, query string, args ...any) error {
					if strings.HasPrefix(query, "INSERT") {
						return pglib.ErrNoRows
					}
					require.Equal(t, []any{"VOCs", "sample_ID"}, args)
					*(dest[0].(*int64)) = 2
					return nil
				},
			},

			wantID: 2,
		},
		{
			name: "error - missing required field",
			req:  topology.Requirement{ExperimentType: "VOCs"},
			querier: &postgresmocks.Querier{
				QueryRowFn: func(context.Context, []any, string, ...any) error {
					return errors.New("QueryRowFn: should not be called")
				},
			},

			wantErr: sink.ErrInvalidRequirement,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := NewStoreWithQuerier(tc.querier, loglib.NewNoopLogger())
			id, inserted, err := store.InsertOrFetchRequirement(context.Background(), tc.req)
			require.ErrorIs(t, err, tc.wantErr)
			require.Equal(t, tc.wantID, id)
			require.Equal(t, tc.wantInserted, inserted)
		})
	}
}

func TestStore_Terms(t *testing.T) {
	t.Parallel()

	errTest := errors.New("oh noes")

	tests := []struct {
		name    string
		querier *postgresmocks.Querier

		wantTerms []vocabulary.Term
		wantErr   error
	}{
		{
			name: "ok",
			querier: &postgresmocks.Querier{
				QueryFn: func(_ context.Context, query string, _ ...any) (pglib.Rows, error) {
					require.Equal(t, fmt.Sprintf("SELECT COALESCE(term, ''), COALESCE(display_name, ''), COALESCE(definition, ''), COALESCE(section, ''), COALESCE(section_object, ''), COALESCE(units, ''), COALESCE(dtype, ''), COALESCE(aliases, '') FROM %s ORDER BY id", termsTable()), query)
					return &postgresmocks.Rows{
						NextFn: func(i uint) bool { return i == 1 },
						ScanFn: func(dest ...any) error {
							require.Len(t, dest, 8)
							*(dest[0].(*string)) = "DIC"
							*(dest[3].(*string)) = "result"
							*(dest[4].(*string)) = "Result"
							*(dest[6].(*string)) = "float"
							return nil
						},
					}, nil
				},
			},

			wantTerms: []vocabulary.Term{
				{Name: "DIC", Section: vocabulary.SectionResult, SectionObject: "Result", DataType: "float"},
			},
		},
		{
			name: "error - querying",
			querier: &postgresmocks.Querier{
				QueryFn: func(context.Context, string, ...any) (pglib.Rows, error) {
					return nil, errTest
				},
			},

			wantErr: errTest,
		},
		{
			name: "error - scanning",
			querier: &postgresmocks.Querier{
				QueryFn: func(context.Context, string, ...any) (pglib.Rows, error) {
					return &postgresmocks.Rows{
						NextFn: func(i uint) bool { return i == 1 },
						ScanFn: func(...any) error { return errTest },
					}, nil
				},
			},

			wantErr: errTest,
		},
		{
			name: "error - rows",
			querier: &postgresmocks.Querier{
				QueryFn: func(context.Context, string, ...any) (pglib.Rows, error) {
					return &postgresmocks.Rows{
						NextFn: func(uint) bool { return false },
						ErrFn:  func() error { return errTest },
					}, nil
				},
			},

			wantErr: errTest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := NewStoreWithQuerier(tc.querier, loglib.NewNoopLogger())
			terms, err := store.Terms(context.Background())
			require.ErrorIs(t, err, tc.wantErr)
			require.Equal(t, tc.wantTerms, terms)
		})
	}
}

func TestStore_Requirements(t *testing.T) {
	t.Parallel()

	store := NewStoreWithQuerier(&postgresmocks.Querier{
		QueryFn: func(_ context.Context, query string, _ ...any) (pglib.Rows, error) {
			require.Contains(t, query, requirementsTable())
			return &postgresmocks.Rows{
				NextFn: func(i uint) bool { return i <= 2 },
				ScanFn: func(dest ...any) error {
					*(dest[0].(*string)) = "VOCs"
					*(dest[1].(*string)) = "sample_ID"
					return nil
				},
			}, nil
		},
	}, loglib.NewNoopLogger())

	reqs, err := store.Requirements(context.Background())
	require.NoError(t, err)
	require.Equal(t, []topology.Requirement{
		{ExperimentType: "VOCs", RequiredField: "sample_ID"},
		{ExperimentType: "VOCs", RequiredField: "sample_ID"},
	}, reqs)
}

func TestBackoffConfig(t *testing.T) {
	t.Parallel()

	cfg := backoffConfig(backoff.Config{})
	require.NotNil(t, cfg.Exponential)
	require.Equal(t, uint(defaultMaxRetries), cfg.Exponential.MaxRetries)
}
