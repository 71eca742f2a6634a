// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xataio/samplekit/internal/progress"
	"github.com/xataio/samplekit/pkg/pipeline"
	"github.com/xataio/samplekit/pkg/sink"
)

// parent command for catalog loading subcommands
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load the vocabulary and topology catalogs into the samplekit sink",
}

var loadVocabularyCmd = &cobra.Command{
	Use:    "vocabulary",
	Short:  "Loads the terms of a vocabulary CSV file into the sink. Terms already loaded are left untouched",
	PreRun: loadFlagBinding,
	RunE: withSignalWatcher(func(ctx context.Context, cmd *cobra.Command) error {
		return runLoad(ctx, cmd, "vocabulary", (*pipeline.Pipeline).LoadVocabulary)
	}),
	Example: `
	samplekit load vocabulary --file cv.csv --postgres-url <sink-postgres-url>
	samplekit load vocabulary --file cv.csv -c config.yaml`,
}

var loadTopologyCmd = &cobra.Command{
	Use:    "topology",
	Short:  "Loads the required fields of a topology CSV file into the sink. Requirements already loaded are left untouched",
	PreRun: loadFlagBinding,
	RunE: withSignalWatcher(func(ctx context.Context, cmd *cobra.Command) error {
		return runLoad(ctx, cmd, "topology", (*pipeline.Pipeline).LoadTopology)
	}),
	Example: `
	samplekit load topology --file topology.csv --postgres-url <sink-postgres-url>
	samplekit load topology --file topology.csv -c config.env`,
}

type loadFn func(p *pipeline.Pipeline, ctx context.Context, file string) (*sink.LoadStats, error)

func runLoad(ctx context.Context, cmd *cobra.Command, catalog string, load loadFn) error {
	p, closeFn, err := newPipeline(pipeline.WithProgressBar(func(total int, description string) progress.Bar {
		return progress.NewRowsBar(total, description)
	}))
	if err != nil {
		pterm.Error.Println(err.Error())
		return err
	}
	defer closeFn()

	stats, err := load(p, ctx, cmd.Flags().Lookup("file").Value.String())
	if err != nil {
		pterm.Error.Printfln("loading %s: %v", catalog, err)
		return err
	}

	msg := fmt.Sprintf("%s loaded: %d inserted, %d already present", catalog, stats.Inserted, stats.Existing)
	if stats.Skipped > 0 {
		pterm.Warning.Printfln("%s, %d invalid rows skipped", msg, stats.Skipped)
		return nil
	}
	pterm.Success.Println(msg)
	return nil
}

func loadFlagBinding(cmd *cobra.Command, args []string) {
	sinkFlagBinding(cmd, args)

	viper.BindPFlag("csv.delimiter", cmd.Flags().Lookup("csv-delimiter"))
	viper.BindPFlag("SAMPLEKIT_CSV_DELIMITER", cmd.Flags().Lookup("csv-delimiter"))
}
