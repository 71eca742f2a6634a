// SPDX-License-Identifier: Apache-2.0

package vocabulary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xataio/samplekit/pkg/table"
)

const testVocabularyCSV = `Term,Displayed_term,Definition,Section_object,Units,Type,Aliases
sample_ID,sample ID,Unique identifier for the sample.,Specimen_description,,string,
collected_on,collected on,Collection date.,Specimen_description,,Date-Time,
co2_ppm,CO2,CO2 concentration.,Result,ppm,float,co2
raw_data,raw data,Instrument output file.,FILE,,string,
`

func TestNewCatalogFromTable(t *testing.T) {
	t.Parallel()

	tbl, err := table.ReadCSV(strings.NewReader(testVocabularyCSV), table.WithRawStrings())
	require.NoError(t, err)

	catalog, err := NewCatalogFromTable(tbl)
	require.NoError(t, err)
	require.Equal(t, 4, catalog.Len())

	term, found := catalog.Lookup("co2_ppm")
	require.True(t, found)
	require.Equal(t, Term{
		Name:          "co2_ppm",
		DisplayName:   "CO2",
		Definition:    "CO2 concentration.",
		Section:       SectionResult,
		SectionObject: "Result",
		Units:         "ppm",
		DataType:      "float",
		Aliases:       "co2",
	}, term)

	term, found = catalog.Lookup("collected_on")
	require.True(t, found)
	require.Equal(t, SectionSample, term.Section)
	require.Equal(t, "date-time", term.DataType)

	term, found = catalog.Lookup("raw_data")
	require.True(t, found)
	require.Equal(t, SectionFile, term.Section)
}

func TestCatalog_Lookup(t *testing.T) {
	t.Parallel()

	catalog, err := NewCatalog([]Term{
		NewTerm("sample_ID", "Specimen_description", "string"),
	})
	require.NoError(t, err)

	tests := []struct {
		name   string
		column string

		wantFound bool
	}{
		{
			name:      "found",
			column:    "sample_ID",
			wantFound: true,
		},
		{
			name:      "not found - different case",
			column:    "sample_id",
			wantFound: false,
		},
		{
			name:      "not found - missing",
			column:    "raw_photo",
			wantFound: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, found := catalog.Lookup(tc.column)
			require.Equal(t, tc.wantFound, found)
		})
	}
}

func TestNewCatalog_DuplicateTerms(t *testing.T) {
	t.Parallel()

	_, err := NewCatalog([]Term{
		NewTerm("b", "result", "float"),
		NewTerm("a", "result", "float"),
		NewTerm("b", "sample", "string"),
		NewTerm("a", "file", "string"),
		NewTerm("c", "file", "string"),
	})
	var dupErr *DuplicateTermsError
	require.ErrorAs(t, err, &dupErr)
	require.Equal(t, []string{"a", "b"}, dupErr.Terms)
}

func TestTermsFromTable_MissingColumns(t *testing.T) {
	t.Parallel()

	tbl, err := table.New([]string{"Term"}, [][]any{{"sample_ID"}})
	require.NoError(t, err)

	_, err = TermsFromTable(tbl)
	require.ErrorIs(t, err, table.ErrColumnNotFound)
}

func TestParseSection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Section
	}{
		{in: "result", want: SectionResult},
		{in: "Result", want: SectionResult},
		{in: " RESULT ", want: SectionResult},
		{in: "file", want: SectionFile},
		{in: "File", want: SectionFile},
		{in: "Specimen_description", want: SectionSample},
		{in: "sample", want: SectionSample},
		{in: "", want: SectionSample},
		{in: "results", want: SectionSample},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, ParseSection(tc.in))
		})
	}
}
