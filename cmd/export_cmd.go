// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var exportCmd = &cobra.Command{
	Use:    "export",
	Short:  "Validates a samples CSV file against the catalogs and exports its rows as nested JSON records",
	PreRun: exportFlagBinding,
	RunE:   withProfiling(withSignalWatcher(runExport)),
	Example: `
	samplekit export --file samples.csv --vocabulary cv.csv --topology topology.csv
	samplekit export --file samples.csv --type Isotopes --outfile isotopes.json --pretty
	samplekit export --file samples.csv --mode lenient --workers 4 -c config.yaml
	samplekit export --file samples.csv --catalogs-source postgres --postgres-url <sink-postgres-url>`,
}

func runExport(ctx context.Context, cmd *cobra.Command) error {
	sp, _ := pterm.DefaultSpinner.WithText("exporting samples...").Start()

	p, closeFn, err := newPipeline()
	if err != nil {
		sp.Fail(err.Error())
		return err
	}
	defer closeFn()

	file := cmd.Flags().Lookup("file").Value.String()
	experimentType := cmd.Flags().Lookup("type").Value.String()

	res, err := p.Export(ctx, file, experimentType)
	if err != nil {
		sp.Fail(err.Error())
		return err
	}

	msg := fmt.Sprintf("exported %d records to %s", res.Records, res.Outfile)
	if len(res.FailedRows) > 0 {
		sp.Warning(fmt.Sprintf("%s, skipped %d rows with invalid values", msg, len(res.FailedRows)))
	} else {
		sp.Success(msg)
	}

	if len(res.Report.UnrecognizedColumns) > 0 {
		pterm.Warning.Printfln("columns not in vocabulary were left out: %v", res.Report.UnrecognizedColumns)
	}

	return nil
}

func exportFlagBinding(cmd *cobra.Command, _ []string) {
	catalogFlagBinding(cmd)

	// to be able to overwrite configuration with flags when yaml config file is
	// provided
	viper.BindPFlag("export.outfile", cmd.Flags().Lookup("outfile"))
	viper.BindPFlag("export.pretty", cmd.Flags().Lookup("pretty"))
	viper.BindPFlag("transform.mode", cmd.Flags().Lookup("mode"))
	viper.BindPFlag("transform.workers", cmd.Flags().Lookup("workers"))

	// to be able to overwrite configuration with flags when env config file is
	// provided or when no configuration is provided
	viper.BindPFlag("SAMPLEKIT_EXPORT_OUTFILE", cmd.Flags().Lookup("outfile"))
	viper.BindPFlag("SAMPLEKIT_EXPORT_PRETTY", cmd.Flags().Lookup("pretty"))
	viper.BindPFlag("SAMPLEKIT_TRANSFORM_MODE", cmd.Flags().Lookup("mode"))
	viper.BindPFlag("SAMPLEKIT_TRANSFORM_WORKERS", cmd.Flags().Lookup("workers"))
}

func catalogFlagBinding(cmd *cobra.Command) {
	// to be able to overwrite configuration with flags when yaml config file is
	// provided
	viper.BindPFlag("catalogs.source", cmd.Flags().Lookup("catalogs-source"))
	viper.BindPFlag("catalogs.vocabulary_file", cmd.Flags().Lookup("vocabulary"))
	viper.BindPFlag("catalogs.topology_file", cmd.Flags().Lookup("topology"))
	viper.BindPFlag("csv.delimiter", cmd.Flags().Lookup("csv-delimiter"))
	viper.BindPFlag("sink.postgres.url", cmd.Flags().Lookup("postgres-url"))

	// to be able to overwrite configuration with flags when env config file is
	// provided or when no configuration is provided
	viper.BindPFlag("SAMPLEKIT_CATALOGS_SOURCE", cmd.Flags().Lookup("catalogs-source"))
	viper.BindPFlag("SAMPLEKIT_VOCABULARY_FILE", cmd.Flags().Lookup("vocabulary"))
	viper.BindPFlag("SAMPLEKIT_TOPOLOGY_FILE", cmd.Flags().Lookup("topology"))
	viper.BindPFlag("SAMPLEKIT_CSV_DELIMITER", cmd.Flags().Lookup("csv-delimiter"))
	viper.BindPFlag("SAMPLEKIT_SINK_POSTGRES_URL", cmd.Flags().Lookup("postgres-url"))
}
