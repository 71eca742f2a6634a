// SPDX-License-Identifier: Apache-2.0

package instrumentation

import (
	"context"

	pglib "github.com/xataio/samplekit/internal/postgres"
	"github.com/xataio/samplekit/pkg/otel"
)

// NewQuerierBuilder wraps the queriers returned by the builder on input with
// instrumentation.
func NewQuerierBuilder(b pglib.QuerierBuilder, i *otel.Instrumentation) pglib.QuerierBuilder {
	return func(ctx context.Context, url string) (pglib.Querier, error) {
		querier, err := b(ctx, url)
		if err != nil {
			return nil, err
		}
		return NewQuerier(querier, i)
	}
}
