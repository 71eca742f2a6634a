// SPDX-License-Identifier: Apache-2.0

package retrier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xataio/samplekit/internal/backoff"
	"github.com/xataio/samplekit/internal/postgres"
	loglib "github.com/xataio/samplekit/pkg/log"
)

// Querier retries the operations of the wrapped querier on transient errors,
// rebuilding the connection between attempts.
type Querier struct {
	connBuilder     connBuilder
	querier         postgres.Querier
	backoffProvider backoff.Provider
	logger          loglib.Logger
}

type connBuilder func(context.Context) (postgres.Querier, error)

func NewQuerier(ctx context.Context, cfg backoff.Config, connBuilder connBuilder, logger loglib.Logger) (*Querier, error) {
	conn, err := connBuilder(ctx)
	if err != nil {
		return nil, err
	}

	return &Querier{
		connBuilder:     connBuilder,
		querier:         conn,
		backoffProvider: backoff.NewProvider(&cfg),
		logger:          loglib.ModuleLogger(logger, "postgres_retrier"),
	}, nil
}

func (q *Querier) Query(ctx context.Context, query string, args ...any) (postgres.Rows, error) {
	var rows postgres.Rows
	err := q.withRetry(ctx, func() error {
		var err error
		rows, err = q.querier.Query(ctx, query, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (q *Querier) QueryRow(ctx context.Context, dest []any, query string, args ...any) error {
	return q.withRetry(ctx, func() error {
		return q.querier.QueryRow(ctx, dest, query, args...)
	})
}

func (q *Querier) Exec(ctx context.Context, query string, args ...any) (postgres.CommandTag, error) {
	var tag postgres.CommandTag
	err := q.withRetry(ctx, func() error {
		var err error
		tag, err = q.querier.Exec(ctx, query, args...)
		return err
	})
	if err != nil {
		return postgres.CommandTag{}, err
	}
	return tag, nil
}

func (q *Querier) Ping(ctx context.Context) error {
	return q.querier.Ping(ctx)
}

func (q *Querier) Close(ctx context.Context) error {
	return q.querier.Close(ctx)
}

func (q *Querier) withRetry(ctx context.Context, operation func() error) error {
	err := operation()
	if err == nil || !isRetriableError(err) {
		return err
	}

	// the backoff is only initialised once the operation fails
	bo := q.backoffProvider(ctx)
	err = bo.RetryNotify(func() error {
		if connErr := q.resetConn(ctx); connErr != nil {
			return fmt.Errorf("unable to reset connection: %w", connErr)
		}

		err := operation()
		if err != nil && !isRetriableError(err) {
			return fmt.Errorf("%w: %w", err, backoff.ErrPermanent)
		}
		return err
	}, func(err error, d time.Duration) {
		q.logger.Warn(err, "retrying postgres operation after error", loglib.Fields{
			"retry_delay": d,
		})
	})

	if err == nil {
		q.logger.Info("retried postgres operation succeeded")
	}
	return err
}

func (q *Querier) resetConn(ctx context.Context) error {
	conn, err := q.connBuilder(ctx)
	if err != nil {
		return err
	}
	if q.querier != nil {
		if err := q.querier.Close(ctx); err != nil {
			q.logger.Warn(err, "closing postgres connection")
		}
	}
	q.querier = conn
	return nil
}

// isRetriableError reports whether the error is transient. Errors raised by
// postgres for the query itself would fail the same way on retry.
func isRetriableError(err error) bool {
	mappedErr := postgres.MapError(err)

	var (
		doesNotExist        *postgres.ErrRelationDoesNotExist
		alreadyExists       *postgres.ErrRelationAlreadyExists
		constraintViolation *postgres.ErrConstraintViolation
		syntaxError         *postgres.ErrSyntaxError
		permissionDenied    *postgres.ErrPermissionDenied
		dataException       *postgres.ErrDataException
	)
	switch {
	case errors.Is(mappedErr, postgres.ErrNoRows),
		errors.Is(err, context.Canceled),
		errors.As(mappedErr, &doesNotExist),
		errors.As(mappedErr, &alreadyExists),
		errors.As(mappedErr, &constraintViolation),
		errors.As(mappedErr, &syntaxError),
		errors.As(mappedErr, &permissionDenied),
		errors.As(mappedErr, &dataException):
		return false
	}

	return true
}
