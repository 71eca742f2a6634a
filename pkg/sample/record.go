// SPDX-License-Identifier: Apache-2.0

package sample

import (
	"github.com/xataio/samplekit/internal/json"
	"github.com/xataio/samplekit/pkg/transformers"
)

// Record keys for the nested partitions.
const (
	ResultKey = "Result"
	FilesKey  = "files"
)

// Record is the nested shape of one table row. Sample attributes are encoded
// at the top level, result and file fields under Result and files, which are
// always present.
type Record struct {
	// Row is the index of the source row in the table.
	Row    int
	Sample map[string]any
	Result map[string]any
	Files  map[string]any
}

func newRecord(row, numColumns int) Record {
	return Record{
		Row:    row,
		Sample: make(map[string]any, numColumns),
		Result: map[string]any{},
		Files:  map[string]any{},
	}
}

// Map returns the record as it is encoded.
func (r Record) Map() map[string]any {
	m := make(map[string]any, len(r.Sample)+2)
	for k, v := range r.Sample {
		m[k] = v
	}
	m[ResultKey] = nonNil(r.Result)
	m[FilesKey] = nonNil(r.Files)
	return m
}

func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

// Flatten merges the record partitions back into a single field to value map,
// unwrapping date-time values.
func (r Record) Flatten() map[string]any {
	flat := make(map[string]any, len(r.Sample)+len(r.Result)+len(r.Files))
	for _, part := range []map[string]any{r.Sample, r.Result, r.Files} {
		for k, v := range part {
			if d, ok := v.(transformers.Date); ok {
				v = d.Value
			}
			flat[k] = v
		}
	}
	return flat
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
