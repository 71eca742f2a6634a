// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:    "validate",
	Short:  "Checks a samples CSV file for missing required fields and columns not in the vocabulary, without exporting it",
	PreRun: validateFlagBinding,
	RunE:   withSignalWatcher(runValidate),
	Example: `
	samplekit validate --file samples.csv --vocabulary cv.csv --topology topology.csv
	samplekit validate --file samples.csv --type Isotopes -c config.env
	samplekit validate --file samples.csv -c config.yaml --json
	`,
}

func runValidate(ctx context.Context, cmd *cobra.Command) error {
	sp, _ := pterm.DefaultSpinner.WithText("validating samples...").Start()

	p, closeFn, err := newPipeline()
	if err != nil {
		sp.Fail(err.Error())
		return err
	}
	defer closeFn()

	file := cmd.Flags().Lookup("file").Value.String()
	experimentType := cmd.Flags().Lookup("type").Value.String()

	report, err := p.Validate(ctx, file, experimentType)
	if err != nil {
		sp.Fail(err.Error())
		return err
	}

	if report.IsEmpty() {
		sp.Success("samples are valid for experiment type ", experimentType)
	} else {
		issues := []string{}
		if len(report.MissingRequiredFields) > 0 {
			issues = append(issues, "missing required fields")
		}
		if len(report.UnrecognizedColumns) > 0 {
			issues = append(issues, "unrecognized columns")
		}
		sp.Warning("samples validation identified issues: ", strings.Join(issues, ", "))
	}

	if err := print(cmd, report); err != nil {
		sp.Fail("failed to format validation report")
		return err
	}

	return nil
}

func validateFlagBinding(cmd *cobra.Command, _ []string) {
	catalogFlagBinding(cmd)
}
