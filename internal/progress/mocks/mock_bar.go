// SPDX-License-Identifier: Apache-2.0

package mocks

import "sync/atomic"

type Bar struct {
	AddFn   func(int) error
	CloseFn func() error
	total   atomic.Int64
}

func (b *Bar) Add(n int) error {
	b.total.Add(int64(n))
	if b.AddFn != nil {
		return b.AddFn(n)
	}
	return nil
}

func (b *Bar) Close() error {
	if b.CloseFn != nil {
		return b.CloseFn()
	}
	return nil
}

// Total returns the sum of all the Add calls.
func (b *Bar) Total() int {
	return int(b.total.Load())
}
