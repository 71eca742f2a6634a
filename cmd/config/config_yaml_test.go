// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/xataio/samplekit/pkg/otel"
	"github.com/xataio/samplekit/pkg/pipeline"
	"github.com/xataio/samplekit/pkg/sample"
)

func TestYAMLConfig_toPipelineConfig(t *testing.T) {
	require.NoError(t, LoadFile("test/test_config.yaml"))

	var config YAMLConfig
	err := viper.Unmarshal(&config)
	require.NoError(t, err)

	pipelineConfig, err := config.toPipelineConfig()
	require.NoError(t, err)

	validateTestPipelineConfig(t, pipelineConfig)

	otelConfig, err := config.Instrumentation.toOtelConfig()
	require.NoError(t, err)
	validateTestOtelConfig(t, otelConfig)
}

func TestYAMLConfig_toPipelineConfig_ErrorCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  YAMLConfig
		wantErr error
	}{
		{
			name: "err - invalid catalog source",
			config: YAMLConfig{
				Catalogs: CatalogsConfig{Source: "excel"},
			},

			wantErr: pipeline.ErrUnsupportedCatalogSource,
		},
		{
			name: "err - invalid mode",
			config: YAMLConfig{
				Transform: TransformConfig{Mode: "relaxed"},
			},

			wantErr: sample.ErrUnsupportedMode,
		},
		{
			name: "err - negative workers",
			config: YAMLConfig{
				Transform: TransformConfig{Workers: -1},
			},

			wantErr: errNegativeWorkers,
		},
		{
			name: "err - invalid delimiter",
			config: YAMLConfig{
				CSV: CSVConfig{Delimiter: "ab"},
			},

			wantErr: pipeline.ErrInvalidDelimiter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := tt.config.toPipelineConfig()
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSinkConfig_parseSinkConfig(t *testing.T) {
	t.Parallel()

	require.Nil(t, SinkConfig{}.parseSinkConfig())

	cfg := SinkConfig{Postgres: &PostgresSinkConfig{URL: "postgres://localhost"}}.parseSinkConfig()
	require.NotNil(t, cfg)
	require.Equal(t, "postgres://localhost", cfg.Postgres.URL)
	require.Nil(t, cfg.Postgres.Backoff.Exponential)
	require.Nil(t, cfg.Postgres.Backoff.Constant)
}

func TestInstrumentationConfig_toOtelConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config InstrumentationConfig

		wantConfig *otel.Config
		wantErr    error
	}{
		{
			name: "valid config",
			config: InstrumentationConfig{
				Metrics: &MetricsConfig{
					Endpoint:           "http://localhost:8080/metrics",
					CollectionInterval: 10,
				},
				Traces: &TracesConfig{
					Endpoint:    "http://localhost:8080/traces",
					SampleRatio: 0.5,
				},
			},
			wantConfig: &otel.Config{
				Metrics: &otel.MetricsConfig{
					Endpoint:           "http://localhost:8080/metrics",
					CollectionInterval: time.Second * 10,
				},
				Traces: &otel.TracesConfig{
					Endpoint:    "http://localhost:8080/traces",
					SampleRatio: 0.5,
				},
			},
			wantErr: nil,
		},
		{
			name:       "empty config",
			config:     InstrumentationConfig{},
			wantConfig: &otel.Config{},
		},
		{
			name: "err - invalid trace sample ratio",
			config: InstrumentationConfig{
				Traces: &TracesConfig{
					SampleRatio: 1.5,
				},
			},
			wantConfig: nil,
			wantErr:    errInvalidSampleRatio,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := tt.config.toOtelConfig()
			require.Equal(t, tt.wantConfig, cfg)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
