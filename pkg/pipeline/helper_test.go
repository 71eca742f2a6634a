// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testVocabularyCSV = `Term,Displayed_term,Definition,Section_object,Units,Type,Aliases
sample_ID,Sample ID,,Specimen_description,,string,
collected_on,Collected on,,Specimen_description,,date-time,
depth,Depth,,Location,m,float,
DIC,DIC,,Result,umol/kg,float,
raw_data,Raw data,,file,,string,
`
	testTopologyCSV = `Term,Types,Subtypes,required_fields
VOCs,VOCs,,sample_ID
VOCs,VOCs,,collected_on
Isotopes,Isotopes,,sample_ID
`
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// newTestConfig writes the catalogs to a temporary directory and returns a
// csv sourced configuration writing to the same directory.
func newTestConfig(t *testing.T) (*Config, string) {
	t.Helper()
	dir := t.TempDir()
	return &Config{
		Catalogs: CatalogsConfig{
			VocabularyFile: writeFile(t, dir, "vocabulary.csv", testVocabularyCSV),
			TopologyFile:   writeFile(t, dir, "topology.csv", testTopologyCSV),
		},
		Export: ExportConfig{
			Outfile: filepath.Join(dir, "samples.json"),
		},
	}, dir
}
