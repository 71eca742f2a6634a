// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xataio/samplekit/pkg/export"
	loglib "github.com/xataio/samplekit/pkg/log"
	"github.com/xataio/samplekit/pkg/otel"
	"github.com/xataio/samplekit/pkg/sample"
	"github.com/xataio/samplekit/pkg/table"
	"github.com/xataio/samplekit/pkg/transformers/builder"
)

// ExportResult summarises an export run.
type ExportResult struct {
	RunID      string        `json:"run_id"`
	Outfile    string        `json:"outfile"`
	Records    int           `json:"records"`
	FailedRows []int         `json:"failed_rows"`
	Report     sample.Report `json:"report"`
	Duration   time.Duration `json:"duration"`
}

// Export validates the samples file for the experiment type on input and
// writes its records as a JSON array to the configured outfile. Nothing is
// written when validation fails.
func (p *Pipeline) Export(ctx context.Context, samplesFile, experimentType string) (res *ExportResult, err error) {
	runID := p.newRunID()
	start := p.clock.Now()
	logger := p.logger.WithFields(loglib.Fields{"run_id": runID})

	ctx, span := p.startSpan(ctx, "pipeline.Export", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.String("experiment_type", experimentType),
	))
	defer func() { otel.CloseSpan(span, err) }()

	transformer, tbl, err := p.prepare(ctx, logger, samplesFile)
	if err != nil {
		return nil, err
	}

	result, err := transformer.Run(ctx, tbl, experimentType)
	if err != nil {
		return nil, err
	}

	writerOpts := []export.Option{export.WithLogger(logger)}
	if p.config.Export.Pretty {
		writerOpts = append(writerOpts, export.WithPrettyPrint())
	}
	outfile := p.config.outfile()
	if err := export.NewJSONWriter(writerOpts...).WriteFile(outfile, result.Records); err != nil {
		return nil, fmt.Errorf("writing %s: %w", outfile, err)
	}

	res = &ExportResult{
		RunID:      runID,
		Outfile:    outfile,
		Records:    len(result.Records),
		FailedRows: result.RowErrors.Rows(),
		Report:     result.Report,
		Duration:   p.clock.Since(start),
	}

	logger.Info("samples exported", loglib.Fields{
		"outfile":     outfile,
		"records":     res.Records,
		"failed_rows": len(res.FailedRows),
		"duration":    res.Duration.String(),
	})

	return res, nil
}

// Validate runs the required field and vocabulary checks on the samples file
// without reshaping any row, and returns every finding in the report.
func (p *Pipeline) Validate(ctx context.Context, samplesFile, experimentType string) (report *sample.Report, err error) {
	ctx, span := p.startSpan(ctx, "pipeline.Validate", trace.WithAttributes(
		attribute.String("experiment_type", experimentType),
	))
	defer func() { otel.CloseSpan(span, err) }()

	transformer, tbl, err := p.prepare(ctx, p.logger, samplesFile)
	if err != nil {
		return nil, err
	}

	r, err := transformer.Check(tbl.Columns(), experimentType)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *Pipeline) prepare(ctx context.Context, logger loglib.Logger, samplesFile string) (*sample.Transformer, *table.Table, error) {
	catalogs, err := p.LoadCatalogs(ctx)
	if err != nil {
		return nil, nil, err
	}

	opts, err := p.config.CSV.options()
	if err != nil {
		return nil, nil, err
	}
	tbl, err := table.ReadCSVFile(samplesFile, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("reading samples: %w", err)
	}

	transformerOpts := []sample.Option{sample.WithLogger(logger)}
	if layouts := p.config.Transform.DateTimeLayouts; len(layouts) > 0 {
		transformerOpts = append(transformerOpts, sample.WithTransformerBuilder(builder.NewTransformerBuilder(builder.WithDateTimeLayouts(layouts...))))
	}

	transformer, err := sample.New(&p.config.Transform.Config, catalogs.Topology, catalogs.Vocabulary, transformerOpts...)
	if err != nil {
		return nil, nil, err
	}
	return transformer, tbl, nil
}
