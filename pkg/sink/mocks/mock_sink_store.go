// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"sync/atomic"

	"github.com/xataio/samplekit/pkg/topology"
	"github.com/xataio/samplekit/pkg/vocabulary"
)

type Store struct {
	InsertOrFetchTermFn        func(ctx context.Context, i uint, term vocabulary.Term) (int64, bool, error)
	InsertOrFetchRequirementFn func(ctx context.Context, i uint, req topology.Requirement) (int64, bool, error)
	TermsFn                    func(ctx context.Context) ([]vocabulary.Term, error)
	RequirementsFn             func(ctx context.Context) ([]topology.Requirement, error)
	CloseFn                    func() error
	termCalls                  atomic.Uint32
	requirementCalls           atomic.Uint32
}

func (m *Store) InsertOrFetchTerm(ctx context.Context, term vocabulary.Term) (int64, bool, error) {
	return m.InsertOrFetchTermFn(ctx, uint(m.termCalls.Add(1)), term)
}

func (m *Store) InsertOrFetchRequirement(ctx context.Context, req topology.Requirement) (int64, bool, error) {
	return m.InsertOrFetchRequirementFn(ctx, uint(m.requirementCalls.Add(1)), req)
}

func (m *Store) Terms(ctx context.Context) ([]vocabulary.Term, error) {
	return m.TermsFn(ctx)
}

func (m *Store) Requirements(ctx context.Context) ([]topology.Requirement, error) {
	return m.RequirementsFn(ctx)
}

func (m *Store) Close() error {
	if m.CloseFn != nil {
		return m.CloseFn()
	}
	return nil
}

func (m *Store) InsertOrFetchTermCalls() uint {
	return uint(m.termCalls.Load())
}

func (m *Store) InsertOrFetchRequirementCalls() uint {
	return uint(m.requirementCalls.Load())
}
