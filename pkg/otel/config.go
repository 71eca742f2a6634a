// SPDX-License-Identifier: Apache-2.0

package otel

import "time"

// Config enables the OTLP exporters for samplekit runs. A nil section leaves
// that signal on a noop provider.
type Config struct {
	Metrics *MetricsConfig
	Traces  *TracesConfig
}

// MetricsConfig configures the export of the sink querier latency histogram.
type MetricsConfig struct {
	// Endpoint is the OTLP gRPC collector address.
	Endpoint string
	// CollectionInterval defaults to one minute. A single export run is
	// usually shorter, the final collection happens on provider close.
	CollectionInterval time.Duration
}

// TracesConfig configures the export of the pipeline, sink store and querier
// spans.
type TracesConfig struct {
	// Endpoint is the OTLP gRPC collector address.
	Endpoint string
	// SampleRatio is the fraction of export and load runs traced, between 0
	// and 1.
	SampleRatio float64
}

const defaultCollectionInterval = time.Minute

func (c *MetricsConfig) collectionInterval() time.Duration {
	if c.CollectionInterval != 0 {
		return c.CollectionInterval
	}
	return defaultCollectionInterval
}
