// SPDX-License-Identifier: Apache-2.0

package builder

import (
	"github.com/xataio/samplekit/pkg/transformers"
)

// TransformerBuilder returns the transformer for a vocabulary data type.
// Transformers are stateless, so one instance per type is shared.
type TransformerBuilder struct {
	transformers map[transformers.TransformerType]transformers.Transformer
	noop         transformers.Transformer
}

type Option func(b *TransformerBuilder)

func NewTransformerBuilder(opts ...Option) *TransformerBuilder {
	b := &TransformerBuilder{
		transformers: map[transformers.TransformerType]transformers.Transformer{
			transformers.DateTime: transformers.NewDateTimeTransformer(),
		},
		noop: transformers.NewNoopTransformer(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// WithDateTimeLayouts replaces the layouts date-time values are checked
// against.
func WithDateTimeLayouts(layouts ...string) Option {
	return func(b *TransformerBuilder) {
		b.transformers[transformers.DateTime] = transformers.NewDateTimeTransformer(layouts...)
	}
}

// New returns the transformer for the data type on input. The comparison is
// case insensitive, unknown and empty data types get a noop transformer.
func (b *TransformerBuilder) New(dataType string) transformers.Transformer {
	t, found := b.transformers[transformers.TransformerType(transformers.NormaliseDataType(dataType))]
	if !found {
		return b.noop
	}
	return t
}
