// SPDX-License-Identifier: Apache-2.0

package vocabulary

import "strings"

// Section is the record partition a vocabulary term belongs to.
type Section string

const (
	SectionSample Section = "sample"
	SectionResult Section = "result"
	SectionFile   Section = "file"
)

// ParseSection maps a Section_object value to a section, ignoring case. Any
// value other than result or file (Specimen_description, Location, empty...)
// is a sample attribute.
func ParseSection(s string) Section {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(SectionResult):
		return SectionResult
	case string(SectionFile):
		return SectionFile
	default:
		return SectionSample
	}
}

func (s Section) String() string {
	return string(s)
}
