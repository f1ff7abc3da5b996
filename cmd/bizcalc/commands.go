package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/iwvelando/bizcalc/internal/baseline"
	"github.com/iwvelando/bizcalc/internal/config"
	"github.com/iwvelando/bizcalc/internal/menu"
	"github.com/iwvelando/bizcalc/internal/metrics"
	"github.com/iwvelando/bizcalc/internal/server"
	"github.com/iwvelando/bizcalc/pkg/report"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available calculators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, c := range a.registry.All() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name(), c.Title(), c.Description())
			}
			return w.Flush()
		},
	}
}

func newRunCommand(a *app) *cobra.Command {
	var (
		inputFile string
		sets      []string
		params    []string
	)

	cmd := &cobra.Command{
		Use:   "run <calculator>",
		Short: "Run one calculator and print its report",
		Long: `Run one calculator. Inputs start from defaults derived from the baseline,
then the --input file is applied, then every --set key=value.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, err := a.registry.Lookup(args[0])
			if err != nil {
				return err
			}

			if len(params) > 0 {
				overrides, err := parseBaselineOverrides(params)
				if err != nil {
					return err
				}
				if _, err := a.store.Update(overrides); err != nil {
					return err
				}
			}

			inputs := map[string]any{}
			if inputFile != "" {
				loaded, err := calc.LoadInputs(inputFile)
				if err != nil {
					return err
				}
				inputs = loaded
			}
			for _, set := range sets {
				key, value, err := parseAssignment(set)
				if err != nil {
					return err
				}
				inputs[key] = value
			}

			rep, err := calc.Run(a.store.Get(), inputs)
			if err != nil {
				return err
			}
			a.logger.Debug("calculation finished",
				zap.String("op", "main"),
				zap.String("calculator", calc.Name()),
				zap.Int("metrics", len(rep.Metrics)),
			)
			return a.writeReport(cmd, rep)
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "YAML or JSON file with calculator inputs")
	cmd.Flags().StringArrayVarP(&sets, "set", "s", nil, "override one input, key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "override one baseline parameter for this run, key=value (repeatable)")
	return cmd
}

func newMenuCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Start the interactive calculator menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := menu.New(cmd.InOrStdin(), cmd.OutOrStdout(), a.registry, a.store, a.logger, a.outputFormat)
			return m.Run()
		},
	}
}

func newBaselineCommand(a *app) *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Show the baseline parameters after configuration and environment overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := a.store.Get()
			if asYAML {
				data, err := config.MarshalBaseline(p)
				if err != nil {
					return err
				}
				return a.writeOutput(cmd, func(w io.Writer) error {
					_, err := w.Write(data)
					return err
				})
			}
			return a.writeReport(cmd, baselineReport(p))
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the baseline as a YAML configuration block")
	return cmd
}

func newServeCommand(a *app) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web UI and the calculator API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if address == "" {
				address = a.conf.Server.Address
			}

			handler, err := server.NewHandler(server.Options{
				Logger:        a.logger,
				Registry:      a.registry,
				Store:         a.store,
				Metrics:       metrics.New(),
				MaxUploadSize: a.conf.Server.UploadSizeBytes(),
				Version:       version,
			})
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
			defer cancel()
			return server.Run(ctx, a.logger, address, handler)
		},
	}
	cmd.Flags().StringVarP(&address, "address", "a", "", "listen address (overrides server.address)")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the bizcalc version",
		Args:  cobra.NoArgs,
		// The version needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

var baselineUnits = map[string]report.Unit{
	"pricePerUnit":        report.UnitCurrency,
	"variableCostPerUnit": report.UnitCurrency,
	"fixedCosts":          report.UnitCurrency,
	"annualUnits":         report.UnitUnits,
	"annualRevenue":       report.UnitCurrency,
	"cogs":                report.UnitCurrency,
	"wacc":                report.UnitPercent,
	"taxRate":             report.UnitPercent,
	"daysInYear":          report.UnitDays,
}

func baselineReport(p baseline.Params) report.Report {
	rep := report.New("baseline", "Baseline Parameters")
	values := p.Map()
	for _, key := range baseline.Keys() {
		rep.Add(key, baseline.Labels[key], values[key], baselineUnits[key])
	}
	return *rep
}

// parseAssignment splits key=value and decodes value as a YAML scalar so
// numbers and booleans keep their types.
func parseAssignment(s string) (string, any, error) {
	key, raw, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", nil, fmt.Errorf("invalid assignment %q, expected key=value", s)
	}
	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return "", nil, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return key, value, nil
}

func parseBaselineOverrides(assignments []string) (map[string]float64, error) {
	overrides := make(map[string]float64, len(assignments))
	for _, s := range assignments {
		key, value, err := parseAssignment(s)
		if err != nil {
			return nil, err
		}
		switch v := value.(type) {
		case int:
			overrides[key] = float64(v)
		case float64:
			overrides[key] = v
		default:
			return nil, fmt.Errorf("baseline parameter %s must be a number", key)
		}
	}
	return overrides, nil
}

