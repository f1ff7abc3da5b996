package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/bizcalc/internal/calculator"
	"github.com/iwvelando/bizcalc/pkg/output"
	"github.com/iwvelando/bizcalc/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// execute runs the command tree in an empty working directory so no local
// bizcalc.yaml or .env leaks into the result.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	{
		wd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(t.TempDir()))
		t.Cleanup(func() { _ = os.Chdir(wd) })
	}

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func decodeReport(t *testing.T, data string) report.Report {
	t.Helper()
	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(data), &rep), data)
	return rep
}

func TestListCommand(t *testing.T) {
	out, err := execute(t, "", "list")
	require.NoError(t, err)
	for _, name := range []string{"breakeven", "ccc", "clv", "credit", "qspm", "eoq", "leasing", "pricing"} {
		assert.Contains(t, out, name)
	}
}

func TestRunCommand(t *testing.T) {
	out, err := execute(t, "", "run", "breakeven", "-o", "json", "--set", "fixedCosts=50000")
	require.NoError(t, err)

	m, ok := decodeReport(t, out).Metric("breakEvenUnits")
	require.True(t, ok)
	assert.Equal(t, 2500.0, m.Value)
}

func TestRunCommandBaselineOverride(t *testing.T) {
	out, err := execute(t, "", "run", "BreakEven", "-o", "json", "--param", "pricePerUnit=40")
	require.NoError(t, err)

	m, _ := decodeReport(t, out).Metric("breakEvenUnits")
	assert.Equal(t, 10000.0, m.Value)
}

func TestRunCommandInputFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "breakeven.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fixedCosts: 50000\npricePerUnit: 60\n"), 0644))

	// --set is applied after the file.
	out, err := execute(t, "", "run", "breakeven", "-o", "json", "--input", path, "--set", "pricePerUnit=40")
	require.NoError(t, err)

	m, _ := decodeReport(t, out).Metric("breakEvenUnits")
	assert.Equal(t, 5000.0, m.Value)
}

func TestRunCommandErrors(t *testing.T) {
	_, err := execute(t, "", "run", "npv")
	assert.True(t, errors.Is(err, calculator.ErrUnknownCalculator))

	_, err = execute(t, "", "run", "breakeven", "--set", "fixedCosts")
	assert.ErrorContains(t, err, "expected key=value")

	_, err = execute(t, "", "run", "breakeven", "--set", "pricePerUnit=10")
	var inputErr *calculator.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "pricePerUnit", inputErr.Field)

	_, err = execute(t, "", "run", "breakeven", "--param", "margin=5")
	assert.Error(t, err)

	_, err = execute(t, "", "run", "breakeven", "-o", "yaml")
	assert.Error(t, err)
}

func TestRunCommandXlsx(t *testing.T) {
	_, err := execute(t, "", "run", "pricing", "-o", "xlsx")
	assert.ErrorContains(t, err, "requires --out")

	path := filepath.Join(t.TempDir(), "reports", "pricing.xlsx")
	_, err = execute(t, "", "run", "pricing", "-o", "xlsx", "--out", path)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), output.SummarySheet)
}

func TestRunCommandUsesConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bizcalc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("baseline:\n  fixedCosts: 50000\noutput:\n  format: json\n"), 0644))

	out, err := execute(t, "", "--config", path, "run", "breakeven")
	require.NoError(t, err)

	m, _ := decodeReport(t, out).Metric("breakEvenUnits")
	assert.Equal(t, 2500.0, m.Value)
}

func TestBaselineCommand(t *testing.T) {
	out, err := execute(t, "", "baseline")
	require.NoError(t, err)
	assert.Contains(t, out, "Baseline Parameters")
	assert.Contains(t, out, "Price per unit")

	out, err = execute(t, "", "baseline", "--yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "pricePerUnit: 50")
}

func TestMenuCommand(t *testing.T) {
	out, err := execute(t, "q\n", "menu")
	require.NoError(t, err)
	assert.Contains(t, out, "Break-even analysis")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}

func TestParseAssignment(t *testing.T) {
	key, value, err := parseAssignment("termMonths=36")
	require.NoError(t, err)
	assert.Equal(t, "termMonths", key)
	assert.Equal(t, 36, value)

	_, value, err = parseAssignment("leasePaymentsInAdvance=false")
	require.NoError(t, err)
	assert.Equal(t, false, value)

	_, value, err = parseAssignment("rate=7.5")
	require.NoError(t, err)
	assert.Equal(t, 7.5, value)

	_, _, err = parseAssignment("=3")
	assert.Error(t, err)
}
