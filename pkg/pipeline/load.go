// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"

	"github.com/xataio/samplekit/pkg/sink"
)

// LoadVocabulary stores the terms of the vocabulary file on input in the
// sink. Terms already stored are left untouched.
func (p *Pipeline) LoadVocabulary(ctx context.Context, file string) (*sink.LoadStats, error) {
	terms, err := p.readTerms(file)
	if err != nil {
		return nil, err
	}

	store, err := p.newSinkStore(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return p.newLoader(store, len(terms), "loading vocabulary").LoadTerms(ctx, terms)
}

// LoadTopology stores the requirements of the topology file on input in the
// sink. Requirements already stored are left untouched.
func (p *Pipeline) LoadTopology(ctx context.Context, file string) (*sink.LoadStats, error) {
	reqs, err := p.readRequirements(file)
	if err != nil {
		return nil, err
	}

	store, err := p.newSinkStore(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return p.newLoader(store, len(reqs), "loading topology").LoadRequirements(ctx, reqs)
}

func (p *Pipeline) newLoader(store sink.Store, total int, description string) *sink.Loader {
	opts := []sink.LoaderOption{sink.WithLogger(p.logger)}
	if p.newProgressBar != nil {
		opts = append(opts, sink.WithProgressBar(p.newProgressBar(total, description)))
	}
	return sink.NewLoader(store, opts...)
}
