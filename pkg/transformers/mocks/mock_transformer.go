// SPDX-License-Identifier: Apache-2.0

package mocks

import "github.com/xataio/samplekit/pkg/transformers"

type Transformer struct {
	TransformFn func(any) (any, error)
	TypeFn      func() transformers.TransformerType
}

func (m *Transformer) Transform(val any) (any, error) {
	return m.TransformFn(val)
}

func (m *Transformer) Type() transformers.TransformerType {
	if m.TypeFn != nil {
		return m.TypeFn()
	}
	return "mock"
}

type TransformerBuilder struct {
	NewFn func(dataType string) transformers.Transformer
}

func (m *TransformerBuilder) New(dataType string) transformers.Transformer {
	return m.NewFn(dataType)
}
