// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/xataio/samplekit/internal/backoff"
	"github.com/xataio/samplekit/pkg/otel"
	"github.com/xataio/samplekit/pkg/pipeline"
	"github.com/xataio/samplekit/pkg/sample"
	pgsink "github.com/xataio/samplekit/pkg/sink/postgres"
)

func envConfigToPipelineConfig() (*pipeline.Config, error) {
	workers := viper.GetInt("SAMPLEKIT_TRANSFORM_WORKERS")
	if workers < 0 {
		return nil, errNegativeWorkers
	}

	cfg := &pipeline.Config{
		Catalogs: pipeline.CatalogsConfig{
			Source:         pipeline.CatalogSource(viper.GetString("SAMPLEKIT_CATALOGS_SOURCE")),
			VocabularyFile: viper.GetString("SAMPLEKIT_VOCABULARY_FILE"),
			TopologyFile:   viper.GetString("SAMPLEKIT_TOPOLOGY_FILE"),
		},
		CSV: pipeline.CSVConfig{
			Delimiter:      viper.GetString("SAMPLEKIT_CSV_DELIMITER"),
			NullValues:     viper.GetStringSlice("SAMPLEKIT_CSV_NULL_VALUES"),
			TrimWhitespace: viper.GetBool("SAMPLEKIT_CSV_TRIM_WHITESPACE"),
		},
		Transform: pipeline.TransformConfig{
			Config: sample.Config{
				Mode:    sample.Mode(viper.GetString("SAMPLEKIT_TRANSFORM_MODE")),
				Workers: workers,
			},
			DateTimeLayouts: viper.GetStringSlice("SAMPLEKIT_TRANSFORM_DATETIME_LAYOUTS"),
		},
		Export: pipeline.ExportConfig{
			Outfile: viper.GetString("SAMPLEKIT_EXPORT_OUTFILE"),
			Pretty:  viper.GetBool("SAMPLEKIT_EXPORT_PRETTY"),
		},
		Sink: parseSinkConfig(),
	}

	if err := cfg.IsValid(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseSinkConfig() *pipeline.SinkConfig {
	pgURL := viper.GetString("SAMPLEKIT_SINK_POSTGRES_URL")
	if pgURL == "" {
		return nil
	}
	return &pipeline.SinkConfig{
		Postgres: &pgsink.Config{
			URL:     pgURL,
			Backoff: parseBackoffConfig("SAMPLEKIT_SINK_POSTGRES"),
		},
	}
}

func parseBackoffConfig(prefix string) backoff.Config {
	return backoff.Config{
		Exponential: parseExponentialBackoffConfig(prefix),
		Constant:    parseConstantBackoffConfig(prefix),
	}
}

func parseExponentialBackoffConfig(prefix string) *backoff.ExponentialConfig {
	initialInterval := viper.GetDuration(fmt.Sprintf("%s_EXP_BACKOFF_INITIAL_INTERVAL", prefix))
	maxInterval := viper.GetDuration(fmt.Sprintf("%s_EXP_BACKOFF_MAX_INTERVAL", prefix))
	maxRetries := viper.GetUint(fmt.Sprintf("%s_EXP_BACKOFF_MAX_RETRIES", prefix))
	if initialInterval == 0 && maxInterval == 0 && maxRetries == 0 {
		return nil
	}
	return &backoff.ExponentialConfig{
		InitialInterval: initialInterval,
		MaxInterval:     maxInterval,
		MaxRetries:      maxRetries,
	}
}

func parseConstantBackoffConfig(prefix string) *backoff.ConstantConfig {
	interval := viper.GetDuration(fmt.Sprintf("%s_BACKOFF_INTERVAL", prefix))
	maxRetries := viper.GetUint(fmt.Sprintf("%s_BACKOFF_MAX_RETRIES", prefix))
	if interval == 0 && maxRetries == 0 {
		return nil
	}
	return &backoff.ConstantConfig{
		Interval:   interval,
		MaxRetries: maxRetries,
	}
}

func envToOtelConfig() (*otel.Config, error) {
	cfg := &otel.Config{}

	if endpoint := viper.GetString("SAMPLEKIT_METRICS_ENDPOINT"); endpoint != "" {
		cfg.Metrics = &otel.MetricsConfig{
			Endpoint:           endpoint,
			CollectionInterval: viper.GetDuration("SAMPLEKIT_METRICS_COLLECTION_INTERVAL"),
		}
	}

	if endpoint := viper.GetString("SAMPLEKIT_TRACES_ENDPOINT"); endpoint != "" {
		sampleRatio := viper.GetFloat64("SAMPLEKIT_TRACES_SAMPLE_RATIO")
		if sampleRatio < 0 || sampleRatio > 1 {
			return nil, errInvalidSampleRatio
		}
		cfg.Traces = &otel.TracesConfig{
			Endpoint:    endpoint,
			SampleRatio: sampleRatio,
		}
	}

	return cfg, nil
}
