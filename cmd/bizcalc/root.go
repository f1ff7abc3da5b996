package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iwvelando/bizcalc/internal/baseline"
	"github.com/iwvelando/bizcalc/internal/calculator"
	"github.com/iwvelando/bizcalc/internal/config"
	"github.com/iwvelando/bizcalc/internal/logging"
	"github.com/iwvelando/bizcalc/pkg/constants"
	"github.com/iwvelando/bizcalc/pkg/output"
	"github.com/iwvelando/bizcalc/pkg/report"
	"github.com/iwvelando/bizcalc/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries what every subcommand needs once the configuration is loaded.
type app struct {
	configFile   string
	envFile      string
	logLevel     string
	outputFormat string
	outFile      string

	conf     *config.Configuration
	logger   *zap.Logger
	store    *baseline.Store
	registry *calculator.Registry
}

// NewRootCommand builds the bizcalc command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "bizcalc",
		Short:        "Business and financial calculators sharing one set of baseline parameters.",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "path to configuration file (default "+constants.DefaultConfigFile+" when present)")
	flags.StringVar(&a.envFile, "env-file", ".env", "path to a .env file with BIZCALC_ overrides")
	flags.StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flags.StringVarP(&a.outputFormat, "output-format", "o", "", "output format override: pretty, csv, json, xlsx")
	flags.StringVar(&a.outFile, "out", "", "write output to this file instead of stdout (required for xlsx)")

	cmd.AddCommand(
		newListCommand(a),
		newRunCommand(a),
		newMenuCommand(a),
		newBaselineCommand(a),
		newServeCommand(a),
		newVersionCommand(),
	)
	return cmd
}

func (a *app) init() error {
	if err := config.LoadEnvFile(a.envFile); err != nil {
		return err
	}

	conf, err := config.LoadConfiguration(a.configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.conf = conf

	logger, err := logging.New(conf.Logging, a.logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	if a.outputFormat == "" {
		a.outputFormat = conf.Output.Format
	}
	if err := validation.ValidateOutputFormat(a.outputFormat); err != nil {
		return err
	}

	store, err := baseline.NewStore(conf.Baseline)
	if err != nil {
		return err
	}
	a.store = store
	a.registry = calculator.NewRegistry(logger)
	return nil
}

// writeReport renders rep to --out or to the command's stdout.
func (a *app) writeReport(cmd *cobra.Command, rep report.Report) error {
	return a.writeOutput(cmd, func(w io.Writer) error {
		return output.Write(w, rep, a.outputFormat)
	})
}

func (a *app) writeOutput(cmd *cobra.Command, write func(io.Writer) error) error {
	if a.outFile == "" {
		if a.outputFormat == constants.OutputFormatXLSX {
			return fmt.Errorf("xlsx output requires --out")
		}
		return write(cmd.OutOrStdout())
	}

	if dir := filepath.Dir(a.outFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(a.outFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	a.logger.Info("output written",
		zap.String("op", "main"),
		zap.String("file", a.outFile),
		zap.String("format", a.outputFormat),
	)
	return nil
}
