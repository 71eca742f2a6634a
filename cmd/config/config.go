// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/xataio/samplekit/pkg/otel"
	"github.com/xataio/samplekit/pkg/pipeline"
)

var errUnsupportedConfigType = errors.New("unsupported config file type, must be .yaml, .yml or .env")

func Load() error {
	return LoadFile(viper.GetString("config"))
}

func LoadFile(file string) error {
	if file == "" {
		return nil
	}

	ext := filepath.Ext(file)
	switch ext {
	case ".yaml", ".yml", ".env":
	default:
		return fmt.Errorf("%w: %q", errUnsupportedConfigType, file)
	}

	viper.SetConfigFile(file)
	viper.SetConfigType(ext[1:])
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

func ParsePipelineConfig() (*pipeline.Config, error) {
	if isYAMLConfig() {
		yamlCfg := YAMLConfig{}
		if err := viper.Unmarshal(&yamlCfg); err != nil {
			return nil, err
		}
		return yamlCfg.toPipelineConfig()
	}
	return envConfigToPipelineConfig()
}

func ParseInstrumentationConfig() (*otel.Config, error) {
	if isYAMLConfig() {
		yamlCfg := YAMLConfig{}
		if err := viper.Unmarshal(&yamlCfg); err != nil {
			return nil, err
		}
		return yamlCfg.Instrumentation.toOtelConfig()
	}
	return envToOtelConfig()
}

// SinkURL returns the postgres sink URL from the loaded configuration or the
// bound flags.
func SinkURL() string {
	switch {
	case viper.GetString("sink.postgres.url") != "":
		// yaml config
		return viper.GetString("sink.postgres.url")
	case viper.GetString("SAMPLEKIT_SINK_POSTGRES_URL") != "":
		// env config
		return viper.GetString("SAMPLEKIT_SINK_POSTGRES_URL")
	default:
		// CLI argument
		return viper.GetString("postgres-url")
	}
}

func isYAMLConfig() bool {
	switch filepath.Ext(viper.GetViper().ConfigFileUsed()) {
	case ".yml", ".yaml":
		return true
	default:
		return false
	}
}
