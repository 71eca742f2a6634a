// SPDX-License-Identifier: Apache-2.0

package topology

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/xataio/samplekit/pkg/table"
)

// Requirement is a single row of the topology table: one required field for
// one experiment type.
type Requirement struct {
	Term           string
	ExperimentType string
	Subtypes       string
	RequiredField  string
}

// Entry holds the required fields of an experiment type, in the order they
// were first listed and without duplicates.
type Entry struct {
	ExperimentType string
	RequiredFields []string
}

// Catalog maps experiment types to their required fields. It is immutable once
// built and safe for concurrent use.
type Catalog struct {
	entries map[string]*Entry
}

// Topology table headers.
const (
	TermColumn           = "Term"
	TypesColumn          = "Types"
	SubtypesColumn       = "Subtypes"
	RequiredFieldsColumn = "required_fields"
)

var ErrEmptyTopology = errors.New("topology has no required fields")

// UnknownExperimentTypeError is returned when the experiment type has no
// required fields in the topology.
type UnknownExperimentTypeError struct {
	ExperimentType string
}

func (e *UnknownExperimentTypeError) Error() string {
	return fmt.Sprintf("unknown experiment type %q: no required fields in topology", e.ExperimentType)
}

func (e *UnknownExperimentTypeError) Unwrap() error {
	return ErrEmptyTopology
}

// NewCatalog groups the requirements on input by experiment type. Rows with a
// blank experiment type or required field are ignored.
func NewCatalog(requirements []Requirement) (*Catalog, error) {
	entries := map[string]*Entry{}
	seen := map[string]map[string]struct{}{}
	for _, req := range requirements {
		if req.ExperimentType == "" || req.RequiredField == "" {
			continue
		}

		entry, found := entries[req.ExperimentType]
		if !found {
			entry = &Entry{ExperimentType: req.ExperimentType}
			entries[req.ExperimentType] = entry
			seen[req.ExperimentType] = map[string]struct{}{}
		}
		if _, dup := seen[req.ExperimentType][req.RequiredField]; dup {
			continue
		}
		seen[req.ExperimentType][req.RequiredField] = struct{}{}
		entry.RequiredFields = append(entry.RequiredFields, req.RequiredField)
	}

	if len(entries) == 0 {
		return nil, ErrEmptyTopology
	}

	return &Catalog{entries: entries}, nil
}

// NewCatalogFromTable reads the requirements from a topology table and builds
// the catalog.
func NewCatalogFromTable(t *table.Table) (*Catalog, error) {
	reqs, err := RequirementsFromTable(t)
	if err != nil {
		return nil, err
	}
	return NewCatalog(reqs)
}

// RequirementsFromTable converts the topology table rows into requirements.
// The Types and required_fields columns are mandatory.
func RequirementsFromTable(t *table.Table) ([]Requirement, error) {
	if err := t.RequireColumns(TypesColumn, RequiredFieldsColumn); err != nil {
		return nil, fmt.Errorf("invalid topology table: %w", err)
	}

	reqs := make([]Requirement, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		req := Requirement{
			Term:           optionalString(t, i, TermColumn),
			ExperimentType: optionalString(t, i, TypesColumn),
			Subtypes:       optionalString(t, i, SubtypesColumn),
			RequiredField:  optionalString(t, i, RequiredFieldsColumn),
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// RequiredFields returns the required fields for the experiment type. It never
// returns an empty set: types without required fields are unknown.
func (c *Catalog) RequiredFields(experimentType string) ([]string, error) {
	entry, err := c.Entry(experimentType)
	if err != nil {
		return nil, err
	}
	return entry.RequiredFields, nil
}

// Entry returns a copy of the catalog entry for the experiment type.
func (c *Catalog) Entry(experimentType string) (Entry, error) {
	entry, found := c.entries[experimentType]
	if !found {
		return Entry{}, &UnknownExperimentTypeError{ExperimentType: experimentType}
	}
	return Entry{
		ExperimentType: entry.ExperimentType,
		RequiredFields: slices.Clone(entry.RequiredFields),
	}, nil
}

// ExperimentTypes returns the sorted list of known experiment types.
func (c *Catalog) ExperimentTypes() []string {
	types := make([]string, 0, len(c.entries))
	for t := range c.entries {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func optionalString(t *table.Table, row int, column string) string {
	if !t.HasColumn(column) {
		return ""
	}
	s, _ := t.StringValue(row, column)
	return strings.TrimSpace(s)
}
