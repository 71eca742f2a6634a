// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"sync/atomic"

	"github.com/xataio/samplekit/internal/postgres"
)

type Querier struct {
	QueryRowFn    func(ctx context.Context, dest []any, query string, args ...any) error
	QueryFn       func(ctx context.Context, query string, args ...any) (postgres.Rows, error)
	ExecFn        func(context.Context, uint, string, ...any) (postgres.CommandTag, error)
	PingFn        func(context.Context) error
	CloseFn       func(context.Context) error
	queryRowCalls uint32
	execCalls     uint32
}

func (m *Querier) QueryRow(ctx context.Context, dest []any, query string, args ...any) error {
	atomic.AddUint32(&m.queryRowCalls, 1)
	return m.QueryRowFn(ctx, dest, query, args...)
}

func (m *Querier) Query(ctx context.Context, query string, args ...any) (postgres.Rows, error) {
	return m.QueryFn(ctx, query, args...)
}

func (m *Querier) Exec(ctx context.Context, query string, args ...any) (postgres.CommandTag, error) {
	calls := atomic.AddUint32(&m.execCalls, 1)
	return m.ExecFn(ctx, uint(calls), query, args...)
}

func (m *Querier) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn(ctx)
	}
	return nil
}

func (m *Querier) Close(ctx context.Context) error {
	if m.CloseFn != nil {
		return m.CloseFn(ctx)
	}
	return nil
}

func (m *Querier) QueryRowCalls() uint {
	return uint(atomic.LoadUint32(&m.queryRowCalls))
}

func (m *Querier) ExecCalls() uint {
	return uint(atomic.LoadUint32(&m.execCalls))
}
