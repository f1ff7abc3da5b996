// Package menu implements the interactive, line-oriented calculator menu.
package menu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iwvelando/bizcalc/internal/baseline"
	"github.com/iwvelando/bizcalc/internal/calculator"
	"github.com/iwvelando/bizcalc/pkg/constants"
	"github.com/iwvelando/bizcalc/pkg/output"
	"go.uber.org/zap"
)

// Menu drives calculators from a reader and writes prompts and reports to a
// writer.
type Menu struct {
	in       *bufio.Reader
	out      io.Writer
	registry *calculator.Registry
	store    *baseline.Store
	logger   *zap.Logger
	format   string
}

// New creates a menu. Reports are printed in format, which falls back to
// pretty for formats that cannot be shown on a terminal.
func New(in io.Reader, out io.Writer, registry *calculator.Registry, store *baseline.Store, logger *zap.Logger, format string) *Menu {
	if logger == nil {
		logger = zap.NewNop()
	}
	if format == "" || format == constants.OutputFormatXLSX {
		format = constants.OutputFormatPretty
	}
	return &Menu{
		in:       bufio.NewReader(in),
		out:      out,
		registry: registry,
		store:    store,
		logger:   logger,
		format:   format,
	}
}

// Run loops until the user quits or the input ends.
func (m *Menu) Run() error {
	calcs := m.registry.All()
	for {
		m.printf("\nbizcalc\n")
		for i, c := range calcs {
			m.printf("%2d) %s\n", i+1, c.Title())
		}
		m.printf(" b) Edit baseline parameters\n q) Quit\n")

		choice, err := m.prompt("Select: ")
		if err != nil {
			return ignoreEOF(err)
		}

		switch strings.ToLower(choice) {
		case "q", "quit", "exit":
			return nil
		case "b":
			if err := m.editBaseline(); err != nil {
				return ignoreEOF(err)
			}
			continue
		}

		n, err := strconv.Atoi(choice)
		if err != nil || n < 1 || n > len(calcs) {
			m.printf("Invalid selection %q\n", choice)
			continue
		}
		if err := m.runCalculator(calcs[n-1]); err != nil {
			return ignoreEOF(err)
		}
	}
}

func (m *Menu) runCalculator(c calculator.Calculator) error {
	m.printf("\n%s: %s\n", c.Title(), c.Description())

	var inputs map[string]any
	if c.RequiresFile() {
		path, err := m.prompt("Path to input file (blank for the example): ")
		if err != nil {
			return err
		}
		if path != "" {
			inputs, err = c.LoadInputs(path)
			if err != nil {
				m.printf("Error: %v\n", err)
				return nil
			}
		}
	} else {
		var err error
		inputs, err = m.promptFields(c.Fields(m.store.Get()))
		if err != nil {
			return err
		}
	}

	rep, err := c.Run(m.store.Get(), inputs)
	if err != nil {
		m.logger.Debug("calculation failed",
			zap.String("op", "menu.runCalculator"),
			zap.String("calculator", c.Name()),
			zap.Error(err),
		)
		m.printf("Error: %v\n", err)
		return nil
	}

	m.printf("\n")
	if err := output.Write(m.out, rep, m.format); err != nil {
		m.printf("Error: %v\n", err)
	}
	return nil
}

// promptFields asks for each field; blank answers keep the default.
func (m *Menu) promptFields(fields []calculator.Field) (map[string]any, error) {
	inputs := map[string]any{}
	for _, f := range fields {
		for {
			answer, err := m.prompt(fmt.Sprintf("%s [%s]: ", f.Label, formatDefault(f.Default)))
			if err != nil {
				return nil, err
			}
			if answer == "" {
				break
			}
			value, err := parseValue(f.Kind, answer)
			if err != nil {
				m.printf("%v\n", err)
				continue
			}
			inputs[f.Key] = value
			break
		}
	}
	return inputs, nil
}

func (m *Menu) editBaseline() error {
	for {
		p := m.store.Get()
		values := p.Map()
		keys := baseline.Keys()

		m.printf("\nBaseline parameters\n")
		for i, key := range keys {
			m.printf("%2d) %-24s %s\n", i+1, baseline.Labels[key], formatDefault(values[key]))
		}
		m.printf(" r) Reset to configured values\n")

		choice, err := m.prompt("Parameter to change (blank to return): ")
		if err != nil {
			return err
		}
		if choice == "" {
			return nil
		}
		if strings.EqualFold(choice, "r") {
			m.store.Reset()
			continue
		}

		n, err := strconv.Atoi(choice)
		if err != nil || n < 1 || n > len(keys) {
			m.printf("Invalid selection %q\n", choice)
			continue
		}
		key := keys[n-1]

		answer, err := m.prompt(fmt.Sprintf("%s [%s]: ", baseline.Labels[key], formatDefault(values[key])))
		if err != nil {
			return err
		}
		if answer == "" {
			continue
		}
		value, err := strconv.ParseFloat(answer, 64)
		if err != nil {
			m.printf("%q is not a number\n", answer)
			continue
		}
		if _, err := m.store.Update(map[string]float64{key: value}); err != nil {
			m.printf("Error: %v\n", err)
			continue
		}
		m.logger.Debug("baseline updated",
			zap.String("op", "menu.editBaseline"),
			zap.String("key", key),
			zap.Float64("value", value),
		)
	}
}

func (m *Menu) prompt(text string) (string, error) {
	m.printf("%s", text)
	line, err := m.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (m *Menu) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(m.out, format, args...)
}

func parseValue(kind calculator.FieldKind, answer string) (any, error) {
	switch kind {
	case calculator.KindBool:
		switch strings.ToLower(answer) {
		case "y", "yes", "true", "1":
			return true, nil
		case "n", "no", "false", "0":
			return false, nil
		}
		return nil, fmt.Errorf("%q is not yes or no", answer)
	case calculator.KindInteger:
		n, err := strconv.Atoi(answer)
		if err != nil {
			return nil, fmt.Errorf("%q is not a whole number", answer)
		}
		return n, nil
	default:
		v, err := strconv.ParseFloat(strings.ReplaceAll(answer, ",", ""), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", answer)
		}
		return v, nil
	}
}

func formatDefault(v any) string {
	switch d := v.(type) {
	case float64:
		return strconv.FormatFloat(d, 'f', -1, 64)
	case bool:
		if d {
			return "y"
		}
		return "n"
	default:
		return fmt.Sprint(d)
	}
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
