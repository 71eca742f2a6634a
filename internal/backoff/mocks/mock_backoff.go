// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"errors"

	"github.com/xataio/samplekit/internal/backoff"
)

// Backoff runs the operation until it succeeds, fails permanently or
// MaxAttempts is reached, without waiting between attempts.
type Backoff struct {
	MaxAttempts uint
}

func (m *Backoff) Retry(op backoff.Operation) error {
	return m.RetryNotify(op, nil)
}

func (m *Backoff) RetryNotify(op backoff.Operation, notify backoff.Notify) error {
	var err error
	for i := uint(0); i < max(m.MaxAttempts, 1); i++ {
		if err = op(); err == nil || errors.Is(err, backoff.ErrPermanent) {
			return err
		}
		if notify != nil {
			notify(err, 0)
		}
	}
	return err
}
