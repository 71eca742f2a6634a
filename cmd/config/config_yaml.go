// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"time"

	"github.com/xataio/samplekit/internal/backoff"
	"github.com/xataio/samplekit/pkg/otel"
	"github.com/xataio/samplekit/pkg/pipeline"
	"github.com/xataio/samplekit/pkg/sample"
	pgsink "github.com/xataio/samplekit/pkg/sink/postgres"
)

type YAMLConfig struct {
	Catalogs        CatalogsConfig        `mapstructure:"catalogs" yaml:"catalogs"`
	CSV             CSVConfig             `mapstructure:"csv" yaml:"csv"`
	Transform       TransformConfig       `mapstructure:"transform" yaml:"transform"`
	Export          ExportConfig          `mapstructure:"export" yaml:"export"`
	Sink            SinkConfig            `mapstructure:"sink" yaml:"sink"`
	Instrumentation InstrumentationConfig `mapstructure:"instrumentation" yaml:"instrumentation"`
}

type CatalogsConfig struct {
	Source         string `mapstructure:"source" yaml:"source"`
	VocabularyFile string `mapstructure:"vocabulary_file" yaml:"vocabulary_file"`
	TopologyFile   string `mapstructure:"topology_file" yaml:"topology_file"`
}

type CSVConfig struct {
	Delimiter      string   `mapstructure:"delimiter" yaml:"delimiter"`
	NullValues     []string `mapstructure:"null_values" yaml:"null_values"`
	TrimWhitespace bool     `mapstructure:"trim_whitespace" yaml:"trim_whitespace"`
}

type TransformConfig struct {
	Mode            string   `mapstructure:"mode" yaml:"mode"`
	Workers         int      `mapstructure:"workers" yaml:"workers"`
	DateTimeLayouts []string `mapstructure:"datetime_layouts" yaml:"datetime_layouts"`
}

type ExportConfig struct {
	Outfile string `mapstructure:"outfile" yaml:"outfile"`
	Pretty  bool   `mapstructure:"pretty" yaml:"pretty"`
}

type SinkConfig struct {
	Postgres *PostgresSinkConfig `mapstructure:"postgres" yaml:"postgres"`
}

type PostgresSinkConfig struct {
	URL     string         `mapstructure:"url" yaml:"url"`
	Backoff *BackoffConfig `mapstructure:"backoff" yaml:"backoff"`
}

type BackoffConfig struct {
	Exponential *ExponentialBackoffConfig `mapstructure:"exponential" yaml:"exponential"`
	Constant    *ConstantBackoffConfig    `mapstructure:"constant" yaml:"constant"`
}

type ExponentialBackoffConfig struct {
	MaxRetries      int `mapstructure:"max_retries" yaml:"max_retries"`
	InitialInterval int `mapstructure:"initial_interval" yaml:"initial_interval"`
	MaxInterval     int `mapstructure:"max_interval" yaml:"max_interval"`
}

type ConstantBackoffConfig struct {
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
	Interval   int `mapstructure:"interval" yaml:"interval"`
}

type InstrumentationConfig struct {
	Metrics *MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Traces  *TracesConfig  `mapstructure:"traces" yaml:"traces"`
}

type MetricsConfig struct {
	Endpoint           string `mapstructure:"endpoint" yaml:"endpoint"`
	CollectionInterval int    `mapstructure:"collection_interval" yaml:"collection_interval"`
}

type TracesConfig struct {
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio" yaml:"sample_ratio"`
}

var (
	errInvalidSampleRatio = errors.New("sample_ratio must be between 0 and 1")
	errNegativeWorkers    = errors.New("transform workers must not be negative")
)

func (c *YAMLConfig) toPipelineConfig() (*pipeline.Config, error) {
	if c.Transform.Workers < 0 {
		return nil, errNegativeWorkers
	}

	cfg := &pipeline.Config{
		Catalogs: pipeline.CatalogsConfig{
			Source:         pipeline.CatalogSource(c.Catalogs.Source),
			VocabularyFile: c.Catalogs.VocabularyFile,
			TopologyFile:   c.Catalogs.TopologyFile,
		},
		CSV: pipeline.CSVConfig{
			Delimiter:      c.CSV.Delimiter,
			NullValues:     c.CSV.NullValues,
			TrimWhitespace: c.CSV.TrimWhitespace,
		},
		Transform: pipeline.TransformConfig{
			Config: sample.Config{
				Mode:    sample.Mode(c.Transform.Mode),
				Workers: c.Transform.Workers,
			},
			DateTimeLayouts: c.Transform.DateTimeLayouts,
		},
		Export: pipeline.ExportConfig{
			Outfile: c.Export.Outfile,
			Pretty:  c.Export.Pretty,
		},
		Sink: c.Sink.parseSinkConfig(),
	}

	if err := cfg.IsValid(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c SinkConfig) parseSinkConfig() *pipeline.SinkConfig {
	if c.Postgres == nil {
		return nil
	}
	return &pipeline.SinkConfig{
		Postgres: &pgsink.Config{
			URL:     c.Postgres.URL,
			Backoff: c.Postgres.Backoff.parseBackoffConfig(),
		},
	}
}

func (bo *BackoffConfig) parseBackoffConfig() backoff.Config {
	if bo == nil {
		return backoff.Config{}
	}
	return backoff.Config{
		Exponential: bo.parseExponentialBackoffConfig(),
		Constant:    bo.parseConstantBackoffConfig(),
	}
}

func (bo *BackoffConfig) parseExponentialBackoffConfig() *backoff.ExponentialConfig {
	if bo.Exponential == nil {
		return nil
	}
	return &backoff.ExponentialConfig{
		InitialInterval: time.Duration(bo.Exponential.InitialInterval) * time.Millisecond,
		MaxInterval:     time.Duration(bo.Exponential.MaxInterval) * time.Millisecond,
		MaxRetries:      uint(bo.Exponential.MaxRetries),
	}
}

func (bo *BackoffConfig) parseConstantBackoffConfig() *backoff.ConstantConfig {
	if bo.Constant == nil {
		return nil
	}
	return &backoff.ConstantConfig{
		Interval:   time.Duration(bo.Constant.Interval) * time.Millisecond,
		MaxRetries: uint(bo.Constant.MaxRetries),
	}
}

func (c InstrumentationConfig) toOtelConfig() (*otel.Config, error) {
	cfg := &otel.Config{}
	if c.Metrics != nil {
		cfg.Metrics = &otel.MetricsConfig{
			Endpoint:           c.Metrics.Endpoint,
			CollectionInterval: time.Duration(c.Metrics.CollectionInterval) * time.Second,
		}
	}

	if c.Traces != nil {
		if c.Traces.SampleRatio < 0 || c.Traces.SampleRatio > 1 {
			return nil, errInvalidSampleRatio
		}
		cfg.Traces = &otel.TracesConfig{
			Endpoint:    c.Traces.Endpoint,
			SampleRatio: c.Traces.SampleRatio,
		}
	}

	return cfg, nil
}
