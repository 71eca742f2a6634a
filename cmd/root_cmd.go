// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xataio/samplekit/cmd/config"
	"github.com/xataio/samplekit/internal/log/zerolog"
	"github.com/xataio/samplekit/internal/profiling"
	loglib "github.com/xataio/samplekit/pkg/log"
	"github.com/xataio/samplekit/pkg/otel"
	"github.com/xataio/samplekit/pkg/pipeline"
)

// Version is the samplekit version
var (
	Version = "development"
	Env     string
)

func Prepare() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "samplekit",
		Short:        "Validates sample tables against the experiment topology and vocabulary, and exports them as nested JSON records",
		SilenceUsage: true,
		Version:      version(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(); err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			return nil
		},
	}

	viper.AutomaticEnv()

	// Flag definition

	// root cmd
	rootCmd.PersistentFlags().StringP("config", "c", "", ".env or .yaml config file to use with samplekit if any")
	rootCmd.PersistentFlags().String("log-level", "info", "log level for the application. One of trace, debug, info, warn, error, fatal, panic")

	// export cmd
	exportCmd.Flags().StringP("file", "f", "", "Samples CSV file to export")
	exportCmd.Flags().StringP("type", "t", pipeline.DefaultExperimentType, "Experiment type the samples belong to")
	exportCmd.Flags().StringP("outfile", "o", pipeline.DefaultOutfile, "JSON file the records are written to")
	exportCmd.Flags().Bool("pretty", false, "Whether to indent the JSON output")
	exportCmd.Flags().String("mode", "", "Transformation mode. One of strict, lenient. Defaults to strict")
	exportCmd.Flags().Int("workers", 0, "Number of workers reshaping the sample rows. Defaults to 1")
	exportCmd.Flags().Bool("profile", false, "Whether to produce CPU and memory profile files")
	catalogFlags(exportCmd)
	exportCmd.MarkFlagRequired("file")

	// validate cmd
	validateCmd.Flags().StringP("file", "f", "", "Samples CSV file to validate")
	validateCmd.Flags().StringP("type", "t", pipeline.DefaultExperimentType, "Experiment type the samples belong to")
	validateCmd.Flags().Bool("json", false, "Output the validation report in JSON format")
	catalogFlags(validateCmd)
	validateCmd.MarkFlagRequired("file")

	// load cmd
	for _, c := range []*cobra.Command{loadVocabularyCmd, loadTopologyCmd} {
		c.Flags().StringP("file", "f", "", "Catalog CSV file to load")
		c.Flags().String("postgres-url", "", "Postgres URL of the samplekit sink")
		c.Flags().String("csv-delimiter", "", "Field delimiter of the CSV files. Defaults to a comma")
		c.MarkFlagRequired("file")
	}
	loadCmd.AddCommand(loadVocabularyCmd)
	loadCmd.AddCommand(loadTopologyCmd)

	// init, destroy and status cmds
	initCmd.Flags().String("postgres-url", "", "Postgres URL where the samplekit sink will be initialised")
	destroyCmd.Flags().String("postgres-url", "", "Postgres URL where the samplekit sink will be destroyed")
	statusCmd.Flags().String("postgres-url", "", "Postgres URL where the samplekit sink has been initialised")
	statusCmd.Flags().Bool("json", false, "Output the status in JSON format")

	// Flag binding for root cmd
	rootFlagBinding(rootCmd)

	// register subcommands
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(destroyCmd)
	rootCmd.AddCommand(statusCmd)
	return rootCmd
}

// Execute executes the root command.
func Execute() error {
	cmd := Prepare()
	return cmd.Execute()
}

func catalogFlags(cmd *cobra.Command) {
	cmd.Flags().String("vocabulary", "", "Vocabulary CSV file")
	cmd.Flags().String("topology", "", "Topology CSV file")
	cmd.Flags().String("catalogs-source", "", "Where the catalogs are read from. One of csv, postgres. Defaults to csv")
	cmd.Flags().String("postgres-url", "", "Postgres URL of the samplekit sink, used when the catalogs source is postgres")
	cmd.Flags().String("csv-delimiter", "", "Field delimiter of the CSV files. Defaults to a comma")
}

func withSignalWatcher(fn func(ctx context.Context, cmd *cobra.Command) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(),
			syscall.SIGHUP,
			syscall.SIGINT,
			syscall.SIGTERM,
			syscall.SIGQUIT)
		defer cancel()
		return fn(ctx, cmd)
	}
}

func withProfiling(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		if cmd.Flags().Lookup("profile").Value.String() != trueStr {
			return fn(cmd, args)
		}

		stop, err := profiling.Start(profiling.DefaultCPUProfile, profiling.DefaultMemoryProfile)
		if err != nil {
			return err
		}
		defer func() {
			if stopErr := stop(); stopErr != nil && err == nil {
				err = stopErr
			}
		}()

		return fn(cmd, args)
	}
}

func rootFlagBinding(cmd *cobra.Command) {
	viper.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("SAMPLEKIT_LOG_LEVEL", cmd.PersistentFlags().Lookup("log-level"))
}

func version() string {
	if Env != "" {
		return Env + " (" + Version + ")"
	}
	return Version
}

func newLogger() loglib.Logger {
	logger := zerolog.NewLogger(&zerolog.Config{
		LogLevel: viper.GetString("SAMPLEKIT_LOG_LEVEL"),
	})
	zerolog.SetGlobalLogger(logger)
	return zerolog.NewStdLogger(logger)
}

func newInstrumentationProvider() (otel.InstrumentationProvider, error) {
	cfg, err := config.ParseInstrumentationConfig()
	if err != nil {
		return nil, fmt.Errorf("parsing instrumentation config: %w", err)
	}

	p, err := otel.NewInstrumentationProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialisating instrumentation provider: %w", err)
	}
	return p, nil
}

// newPipeline parses the configuration and builds the pipeline with logging
// and instrumentation. The returned close function releases the
// instrumentation provider.
func newPipeline(opts ...pipeline.Option) (*pipeline.Pipeline, func() error, error) {
	pipelineConfig, err := config.ParsePipelineConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("parsing pipeline config: %w", err)
	}

	provider, err := newInstrumentationProvider()
	if err != nil {
		return nil, nil, err
	}

	opts = append([]pipeline.Option{
		pipeline.WithLogger(newLogger()),
		pipeline.WithInstrumentation(provider.NewInstrumentation("samplekit")),
	}, opts...)

	p, err := pipeline.New(pipelineConfig, opts...)
	if err != nil {
		provider.Close()
		return nil, nil, err
	}
	return p, provider.Close, nil
}

const trueStr = "true"
