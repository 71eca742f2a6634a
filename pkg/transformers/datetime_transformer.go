// SPDX-License-Identifier: Apache-2.0

package transformers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xataio/samplekit/internal/json"
)

// DateTag is the single key of the encoded date wrapper.
const DateTag = "$date"

// Date wraps a date-time value so that it is encoded as {"$date": value}.
type Date struct {
	Value string
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{DateTag: d.Value})
}

// DateTimeTransformer tags date-time values. The raw text is kept as is, it
// only needs to be readable with one of the supported layouts.
type DateTimeTransformer struct {
	layouts []string
}

var defaultDateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-01",
	"2006/01/02",
	"20060102",
	"2006",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"01/02/2006",
}

func NewDateTimeTransformer(layouts ...string) *DateTimeTransformer {
	if len(layouts) == 0 {
		layouts = defaultDateTimeLayouts
	}
	return &DateTimeTransformer{layouts: layouts}
}

func (dt *DateTimeTransformer) Transform(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, ErrMissingValue
	case Date:
		return v, nil
	case time.Time:
		return Date{Value: v.Format(time.RFC3339Nano)}, nil
	case string:
		return dt.transformText(v)
	// digit only dates such as 2021 or 20210301 are read as numbers
	case int64:
		return dt.transformText(strconv.FormatInt(v, 10))
	case float64:
		return dt.transformText(strconv.FormatFloat(v, 'f', -1, 64))
	default:
		return nil, fmt.Errorf("expected string or time, got %T: %w", value, ErrUnsupportedValueType)
	}
}

func (dt *DateTimeTransformer) transformText(v string) (any, error) {
	if strings.TrimSpace(v) == "" {
		return nil, ErrMissingValue
	}
	if !dt.parseable(strings.TrimSpace(v)) {
		return nil, fmt.Errorf("%q: %w", v, ErrInvalidDateTime)
	}
	return Date{Value: v}, nil
}

func (dt *DateTimeTransformer) Type() TransformerType {
	return DateTime
}

func (dt *DateTimeTransformer) parseable(s string) bool {
	for _, layout := range dt.layouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
