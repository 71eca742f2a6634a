// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xataio/samplekit/pkg/pipeline"
)

var initCmd = &cobra.Command{
	Use:    "init",
	Short:  "Initialises the samplekit sink, creating the vocabulary and topology tables under the samplekit schema",
	PreRun: sinkFlagBinding,
	RunE: func(cmd *cobra.Command, args []string) error {
		sp, _ := pterm.DefaultSpinner.WithText("initialising samplekit...").Start()

		if err := pipeline.Init(context.Background(), sinkConfig()); err != nil {
			sp.Fail(err.Error())
			return err
		}

		sp.Success("samplekit initialisation complete")
		return nil
	},
	Example: `
	samplekit init --postgres-url <sink-postgres-url>
	samplekit init -c config.yaml
	samplekit init -c config.env`,
}

var destroyCmd = &cobra.Command{
	Use:    "destroy",
	Short:  "It destroys the samplekit sink, removing the vocabulary and topology tables along with the samplekit schema",
	PreRun: sinkFlagBinding,
	RunE: func(cmd *cobra.Command, args []string) error {
		sp, _ := pterm.DefaultSpinner.WithText("destroying samplekit...").Start()

		if err := pipeline.Destroy(context.Background(), sinkConfig()); err != nil {
			sp.Fail(err.Error())
			return err
		}

		sp.Success("samplekit destroy complete")
		return nil
	},
	Example: `
	samplekit destroy --postgres-url <sink-postgres-url>
	samplekit destroy -c config.yaml
	samplekit destroy -c config.env`,
}

func sinkFlagBinding(cmd *cobra.Command, _ []string) {
	// to be able to overwrite configuration with flags when yaml config file is
	// provided
	viper.BindPFlag("sink.postgres.url", cmd.Flags().Lookup("postgres-url"))

	// to be able to overwrite configuration with flags when env config file is
	// provided or when no configuration is provided
	viper.BindPFlag("SAMPLEKIT_SINK_POSTGRES_URL", cmd.Flags().Lookup("postgres-url"))
	viper.BindPFlag("postgres-url", cmd.Flags().Lookup("postgres-url"))
}
