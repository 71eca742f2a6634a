// SPDX-License-Identifier: Apache-2.0

package vocabulary

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xataio/samplekit/pkg/table"
	"github.com/xataio/samplekit/pkg/transformers"
)

// Term is a controlled vocabulary definition for one dataset column.
type Term struct {
	Name          string
	DisplayName   string
	Definition    string
	Section       Section
	SectionObject string
	Units         string
	DataType      string
	Aliases       string
}

// Catalog indexes vocabulary terms by name. It is immutable once built and
// safe for concurrent use.
type Catalog struct {
	terms map[string]Term
}

// Vocabulary table headers.
const (
	TermColumn          = "Term"
	DisplayedTermColumn = "Displayed_term"
	DefinitionColumn    = "Definition"
	SectionObjectColumn = "Section_object"
	UnitsColumn         = "Units"
	TypeColumn          = "Type"
	AliasesColumn       = "Aliases"
)

type DuplicateTermsError struct {
	Terms []string
}

func (e *DuplicateTermsError) Error() string {
	return fmt.Sprintf("duplicate vocabulary terms: %s", strings.Join(e.Terms, ", "))
}

// NewTerm builds a term normalising the section and data type. The original
// section text is kept in SectionObject.
func NewTerm(name, sectionObject, dataType string) Term {
	return Term{
		Name:          name,
		Section:       ParseSection(sectionObject),
		SectionObject: sectionObject,
		DataType:      transformers.NormaliseDataType(dataType),
	}
}

// NewCatalog indexes the terms on input. Term names must be unique, every
// duplicated name is reported.
func NewCatalog(terms []Term) (*Catalog, error) {
	index := make(map[string]Term, len(terms))
	dups := map[string]struct{}{}
	for _, term := range terms {
		if term.Name == "" {
			continue
		}
		if _, found := index[term.Name]; found {
			dups[term.Name] = struct{}{}
			continue
		}
		term.Section = ParseSection(term.SectionObject)
		term.DataType = transformers.NormaliseDataType(term.DataType)
		index[term.Name] = term
	}

	if len(dups) > 0 {
		names := make([]string, 0, len(dups))
		for name := range dups {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, &DuplicateTermsError{Terms: names}
	}

	return &Catalog{terms: index}, nil
}

// NewCatalogFromTable reads the terms from a vocabulary table and builds the
// catalog.
func NewCatalogFromTable(t *table.Table) (*Catalog, error) {
	terms, err := TermsFromTable(t)
	if err != nil {
		return nil, err
	}
	return NewCatalog(terms)
}

// TermsFromTable converts the vocabulary table rows into terms. Term,
// Section_object and Type are mandatory columns.
func TermsFromTable(t *table.Table) ([]Term, error) {
	if err := t.RequireColumns(TermColumn, SectionObjectColumn, TypeColumn); err != nil {
		return nil, fmt.Errorf("invalid vocabulary table: %w", err)
	}

	terms := make([]Term, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		sectionObject := optionalString(t, i, SectionObjectColumn)
		terms = append(terms, Term{
			Name:          optionalString(t, i, TermColumn),
			DisplayName:   optionalString(t, i, DisplayedTermColumn),
			Definition:    optionalString(t, i, DefinitionColumn),
			Section:       ParseSection(sectionObject),
			SectionObject: sectionObject,
			Units:         optionalString(t, i, UnitsColumn),
			DataType:      transformers.NormaliseDataType(optionalString(t, i, TypeColumn)),
			Aliases:       optionalString(t, i, AliasesColumn),
		})
	}
	return terms, nil
}

// Lookup returns the term for the column name. The match is exact and case
// sensitive. Columns outside the vocabulary are not an error.
func (c *Catalog) Lookup(column string) (Term, bool) {
	term, found := c.terms[column]
	return term, found
}

// Len returns the number of terms in the catalog.
func (c *Catalog) Len() int {
	return len(c.terms)
}

func optionalString(t *table.Table, row int, column string) string {
	if !t.HasColumn(column) {
		return ""
	}
	s, _ := t.StringValue(row, column)
	return strings.TrimSpace(s)
}
