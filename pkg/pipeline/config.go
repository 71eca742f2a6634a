// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/xataio/samplekit/pkg/sample"
	pgsink "github.com/xataio/samplekit/pkg/sink/postgres"
	"github.com/xataio/samplekit/pkg/table"
)

type Config struct {
	Catalogs  CatalogsConfig
	CSV       CSVConfig
	Transform TransformConfig
	Export    ExportConfig
	Sink      *SinkConfig
}

type CatalogSource string

const (
	CatalogSourceCSV      CatalogSource = "csv"
	CatalogSourcePostgres CatalogSource = "postgres"
)

type CatalogsConfig struct {
	// Source defaults to csv.
	Source         CatalogSource
	VocabularyFile string
	TopologyFile   string
}

type CSVConfig struct {
	// Delimiter defaults to a comma.
	Delimiter      string
	NullValues     []string
	TrimWhitespace bool
}

type TransformConfig struct {
	sample.Config
	// DateTimeLayouts replace the default layouts date-time values are
	// checked against.
	DateTimeLayouts []string
}

type ExportConfig struct {
	// Outfile defaults to samples.json.
	Outfile string
	Pretty  bool
}

type SinkConfig struct {
	Postgres *pgsink.Config
}

const (
	DefaultOutfile        = "samples.json"
	DefaultExperimentType = "VOCs"
)

var (
	ErrUnsupportedCatalogSource = errors.New("unsupported catalog source")
	ErrInvalidDelimiter         = errors.New("csv delimiter must be a single character")
	errMissingVocabularyFile    = errors.New("vocabulary file is required for csv catalogs")
	errMissingTopologyFile      = errors.New("topology file is required for csv catalogs")
	errMissingSinkConfig        = errors.New("postgres sink URL is required")
)

// IsValid checks the settings shared by every operation. The catalog
// settings are checked when the catalogs are loaded.
func (c *Config) IsValid() error {
	switch c.catalogSource() {
	case CatalogSourceCSV, CatalogSourcePostgres:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedCatalogSource, c.Catalogs.Source)
	}

	if _, err := sample.ParseMode(string(c.Transform.Mode)); err != nil {
		return err
	}

	if _, err := c.CSV.options(); err != nil {
		return err
	}

	return nil
}

func (c *Config) validateCatalogs() error {
	switch c.catalogSource() {
	case CatalogSourcePostgres:
		if c.SinkURL() == "" {
			return errMissingSinkConfig
		}
	default:
		if c.Catalogs.VocabularyFile == "" {
			return errMissingVocabularyFile
		}
		if c.Catalogs.TopologyFile == "" {
			return errMissingTopologyFile
		}
	}
	return nil
}

// SinkURL returns the postgres sink URL, if configured.
func (c *Config) SinkURL() string {
	if c.Sink == nil || c.Sink.Postgres == nil {
		return ""
	}
	return c.Sink.Postgres.URL
}

func (c *Config) catalogSource() CatalogSource {
	if c.Catalogs.Source == "" {
		return CatalogSourceCSV
	}
	return c.Catalogs.Source
}

func (c *Config) outfile() string {
	if c.Export.Outfile == "" {
		return DefaultOutfile
	}
	return c.Export.Outfile
}

func (c *CSVConfig) options() ([]table.Option, error) {
	opts := []table.Option{}
	if c.Delimiter != "" {
		if utf8.RuneCountInString(c.Delimiter) != 1 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDelimiter, c.Delimiter)
		}
		r, _ := utf8.DecodeRuneInString(c.Delimiter)
		opts = append(opts, table.WithDelimiter(r))
	}
	if len(c.NullValues) > 0 {
		opts = append(opts, table.WithNullValues(c.NullValues...))
	}
	if c.TrimWhitespace {
		opts = append(opts, table.WithTrimWhitespace())
	}
	return opts, nil
}
