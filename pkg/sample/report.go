// SPDX-License-Identifier: Apache-2.0

package sample

import (
	"fmt"
	"strings"
)

// Report holds the validation findings of a run. It is empty on success.
type Report struct {
	ExperimentType        string   `json:"experiment_type"`
	MissingRequiredFields []string `json:"missing_required_fields"`
	UnrecognizedColumns   []string `json:"unrecognized_columns"`
}

// Result is the output of a transformation run. Records are in input row
// order; in lenient mode rows listed in RowErrors have no record.
type Result struct {
	Records   []Record
	Report    Report
	RowErrors RowErrors
}

func (r Report) IsEmpty() bool {
	return len(r.MissingRequiredFields) == 0 && len(r.UnrecognizedColumns) == 0
}

func (r Report) PrettyPrint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Experiment type: %s\n", r.ExperimentType)
	fmt.Fprintf(&b, "Missing required fields: %s\n", listOrNone(r.MissingRequiredFields))
	fmt.Fprintf(&b, "Unrecognized columns: %s", listOrNone(r.UnrecognizedColumns))
	return b.String()
}

func listOrNone(l []string) string {
	if len(l) == 0 {
		return "none"
	}
	return strings.Join(l, ", ")
}
