// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"context"
	"errors"

	"github.com/xataio/samplekit/pkg/topology"
	"github.com/xataio/samplekit/pkg/vocabulary"
)

// Store persists the vocabulary and topology catalogs. Inserts are idempotent:
// an existing entry is fetched instead of duplicated.
type Store interface {
	// InsertOrFetchTerm returns the id of the term, and whether it was
	// inserted by this call.
	InsertOrFetchTerm(ctx context.Context, term vocabulary.Term) (id int64, inserted bool, err error)
	// InsertOrFetchRequirement returns the id of the requirement, and whether
	// it was inserted by this call.
	InsertOrFetchRequirement(ctx context.Context, req topology.Requirement) (id int64, inserted bool, err error)
	// Terms returns all the stored terms in insertion order.
	Terms(ctx context.Context) ([]vocabulary.Term, error)
	// Requirements returns all the stored requirements in insertion order.
	Requirements(ctx context.Context) ([]topology.Requirement, error)
	Close() error
}

var (
	ErrInvalidTerm        = errors.New("term name is required")
	ErrInvalidRequirement = errors.New("experiment type and required field are required")
)

func ValidateTerm(term vocabulary.Term) error {
	if term.Name == "" {
		return ErrInvalidTerm
	}
	return nil
}

func ValidateRequirement(req topology.Requirement) error {
	if req.ExperimentType == "" || req.RequiredField == "" {
		return ErrInvalidRequirement
	}
	return nil
}
