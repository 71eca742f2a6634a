// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"

	loglib "github.com/xataio/samplekit/pkg/log"
	"github.com/xataio/samplekit/pkg/table"
	"github.com/xataio/samplekit/pkg/topology"
	"github.com/xataio/samplekit/pkg/vocabulary"
)

// Catalogs are the reference tables a sample table is checked against.
type Catalogs struct {
	Topology   *topology.Catalog
	Vocabulary *vocabulary.Catalog
}

// LoadCatalogs builds the topology and vocabulary catalogs from the
// configured source.
func (p *Pipeline) LoadCatalogs(ctx context.Context) (*Catalogs, error) {
	if err := p.config.validateCatalogs(); err != nil {
		return nil, err
	}

	var terms []vocabulary.Term
	var reqs []topology.Requirement
	var err error

	switch p.config.catalogSource() {
	case CatalogSourcePostgres:
		terms, reqs, err = p.sinkCatalogs(ctx)
	default:
		terms, reqs, err = p.csvCatalogs()
	}
	if err != nil {
		return nil, err
	}

	vocabularyCatalog, err := vocabulary.NewCatalog(terms)
	if err != nil {
		return nil, fmt.Errorf("building vocabulary catalog: %w", err)
	}
	topologyCatalog, err := topology.NewCatalog(reqs)
	if err != nil {
		return nil, fmt.Errorf("building topology catalog: %w", err)
	}

	p.logger.Debug("catalogs loaded", loglib.Fields{
		"source":           p.config.catalogSource(),
		"terms":            len(terms),
		"experiment_types": topologyCatalog.ExperimentTypes(),
	})

	return &Catalogs{
		Topology:   topologyCatalog,
		Vocabulary: vocabularyCatalog,
	}, nil
}

func (p *Pipeline) csvCatalogs() ([]vocabulary.Term, []topology.Requirement, error) {
	terms, err := p.readTerms(p.config.Catalogs.VocabularyFile)
	if err != nil {
		return nil, nil, err
	}
	reqs, err := p.readRequirements(p.config.Catalogs.TopologyFile)
	if err != nil {
		return nil, nil, err
	}
	return terms, reqs, nil
}

func (p *Pipeline) sinkCatalogs(ctx context.Context) ([]vocabulary.Term, []topology.Requirement, error) {
	store, err := p.newSinkStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer store.Close()

	terms, err := store.Terms(ctx)
	if err != nil {
		return nil, nil, err
	}
	reqs, err := store.Requirements(ctx)
	if err != nil {
		return nil, nil, err
	}
	return terms, reqs, nil
}

func (p *Pipeline) readTerms(file string) ([]vocabulary.Term, error) {
	tbl, err := p.readCatalogTable(file)
	if err != nil {
		return nil, fmt.Errorf("reading vocabulary: %w", err)
	}
	return vocabulary.TermsFromTable(tbl)
}

func (p *Pipeline) readRequirements(file string) ([]topology.Requirement, error) {
	tbl, err := p.readCatalogTable(file)
	if err != nil {
		return nil, fmt.Errorf("reading topology: %w", err)
	}
	return topology.RequirementsFromTable(tbl)
}

// readCatalogTable keeps every catalog cell as text.
func (p *Pipeline) readCatalogTable(file string) (*table.Table, error) {
	opts, err := p.config.CSV.options()
	if err != nil {
		return nil, err
	}
	return table.ReadCSVFile(file, append(opts, table.WithRawStrings())...)
}
