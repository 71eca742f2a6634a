// SPDX-License-Identifier: Apache-2.0

package transformers

import (
	"errors"
	"strings"
)

// Transformer coerces a raw table value into the representation declared by
// a vocabulary data type.
type Transformer interface {
	Transform(any) (any, error)
	Type() TransformerType
}

type TransformerType string

const (
	DateTime TransformerType = "date-time"
	Noop     TransformerType = "noop"
)

var (
	ErrUnsupportedValueType = errors.New("unsupported value type for transformer")
	ErrMissingValue         = errors.New("missing value")
	ErrInvalidDateTime      = errors.New("value is not a valid date-time")
)

// NormaliseDataType lower cases and trims a declared vocabulary data type.
func NormaliseDataType(dataType string) string {
	return strings.ToLower(strings.TrimSpace(dataType))
}
