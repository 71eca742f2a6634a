// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/xataio/samplekit/cmd/config"
	"github.com/xataio/samplekit/internal/json"
	"github.com/xataio/samplekit/pkg/pipeline"
	pgsink "github.com/xataio/samplekit/pkg/sink/postgres"
)

var statusCmd = &cobra.Command{
	Use:    "status",
	Short:  "Checks whether the samplekit sink has been initialised",
	PreRun: sinkFlagBinding,
	RunE: func(cmd *cobra.Command, args []string) error {
		sp, _ := pterm.DefaultSpinner.WithText("checking samplekit status...").Start()

		status, err := pipeline.Status(context.Background(), sinkConfig())
		if err != nil {
			sp.Fail(err.Error())
			return err
		}

		if status.IsInitialised() {
			sp.Success("samplekit status check encountered no issues")
		} else {
			sp.Warning("samplekit status check identified issues: ", strings.Join(status.Errors, "; "))
		}

		err = print(cmd, status)
		if err != nil {
			sp.Fail("failed to format samplekit status")
			return err
		}

		return nil
	},
	Example: `
	samplekit status --postgres-url <sink-postgres-url>
	samplekit status -c config.yaml --json
	`,
}

type printer interface {
	PrettyPrint() string
}

func print(cmd *cobra.Command, p printer) error {
	str := p.PrettyPrint()
	if cmd.Flags().Lookup("json").Value.String() == trueStr {
		jsonData, err := json.MarshalIndent(p, "", "\t")
		if err != nil {
			return err
		}
		str = string(jsonData)
	}

	fmt.Println(str) //nolint:forbidigo
	return nil
}

// sinkConfig returns a configuration with the sink URL only, for the
// commands that don't run the pipeline.
func sinkConfig() *pipeline.Config {
	return &pipeline.Config{
		Sink: &pipeline.SinkConfig{
			Postgres: &pgsink.Config{URL: config.SinkURL()},
		},
	}
}
