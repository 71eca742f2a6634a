// SPDX-License-Identifier: Apache-2.0

package transformers

// NoopTransformer passes values through unchanged. It serves every data type
// without a dedicated coercion, including empty and unrecognised ones.
type NoopTransformer struct{}

func NewNoopTransformer() *NoopTransformer {
	return &NoopTransformer{}
}

func (nt *NoopTransformer) Transform(value any) (any, error) {
	return value, nil
}

func (nt *NoopTransformer) Type() TransformerType {
	return Noop
}
