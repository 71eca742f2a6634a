// SPDX-License-Identifier: Apache-2.0

package backoff

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errTest = errors.New("oh noes")

func TestBackoff_RetryNotify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		provider Provider
		failures int
		opErr    error

		wantCalls    int
		wantNotifies int
		wantErr      error
	}{
		{
			name:      "stop - no retries",
			provider:  NewProvider(nil),
			failures:  1,
			opErr:     errTest,
			wantCalls: 1,
			wantErr:   errTest,
		},
		{
			name: "constant - succeeds after retries",
			provider: NewProvider(&Config{
				Constant: &ConstantConfig{Interval: time.Millisecond, MaxRetries: 3},
			}),
			failures:     2,
			opErr:        errTest,
			wantCalls:    3,
			wantNotifies: 2,
			wantErr:      nil,
		},
		{
			name: "exponential - max retries reached",
			provider: NewProvider(&Config{
				Exponential: &ExponentialConfig{InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, MaxRetries: 2},
			}),
			failures:     10,
			opErr:        errTest,
			wantCalls:    3,
			wantNotifies: 2,
			wantErr:      errTest,
		},
		{
			name: "permanent error",
			provider: NewProvider(&Config{
				Constant: &ConstantConfig{Interval: time.Millisecond, MaxRetries: 5},
			}),
			failures:  10,
			opErr:     fmt.Errorf("%w: %w", errTest, ErrPermanent),
			wantCalls: 1,
			wantErr:   ErrPermanent,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			calls, notifies := 0, 0
			err := tc.provider(context.Background()).RetryNotify(func() error {
				calls++
				if calls <= tc.failures {
					return tc.opErr
				}
				return nil
			}, func(error, time.Duration) {
				notifies++
			})
			require.ErrorIs(t, err, tc.wantErr)
			require.Equal(t, tc.wantCalls, calls)
			require.Equal(t, tc.wantNotifies, notifies)
		})
	}
}

func TestBackoff_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bo := NewConstantBackoff(ctx, &ConstantConfig{Interval: time.Second})
	calls := 0
	err := bo.Retry(func() error {
		calls++
		return errTest
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}
