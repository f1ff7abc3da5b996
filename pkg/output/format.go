// Package output renders calculator reports as text, CSV, JSON or XLSX.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/iwvelando/bizcalc/pkg/constants"
	"github.com/iwvelando/bizcalc/pkg/report"
	"github.com/iwvelando/bizcalc/pkg/validation"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Write renders rep in the given output format.
func Write(w io.Writer, rep report.Report, format string) error {
	if err := validation.ValidateOutputFormat(format); err != nil {
		return err
	}
	switch format {
	case constants.OutputFormatCSV:
		return CsvFormat(w, rep)
	case constants.OutputFormatJSON:
		return JSONFormat(w, rep)
	case constants.OutputFormatXLSX:
		return XlsxFormat(w, rep)
	default:
		return PrettyFormat(w, rep)
	}
}

// ContentType returns the MIME type for an output format.
func ContentType(format string) string {
	switch format {
	case constants.OutputFormatCSV:
		return "text/csv; charset=utf-8"
	case constants.OutputFormatJSON:
		return "application/json"
	case constants.OutputFormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/plain; charset=utf-8"
	}
}

// FileExtension returns the file extension for an output format.
func FileExtension(format string) string {
	if format == constants.OutputFormatPretty {
		return "txt"
	}
	return format
}

// PrettyFormat outputs a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, rep report.Report) error {
	p := message.NewPrinter(language.English)

	if _, err := fmt.Fprintf(w, "--- %s (%s) ---\n", rep.Title, rep.Calculator); err != nil {
		return err
	}

	labelWidth := 0
	for _, m := range rep.Metrics {
		if len(m.Label) > labelWidth {
			labelWidth = len(m.Label)
		}
	}
	for _, m := range rep.Metrics {
		if _, err := fmt.Fprintf(w, "%-*s | %s\n", labelWidth, m.Label, m.Formatted()); err != nil {
			return err
		}
	}

	if len(rep.Summary) > 0 {
		fmt.Fprintln(w)
		for _, line := range rep.Summary {
			fmt.Fprintf(w, "* %s\n", line)
		}
	}

	if rep.Table != nil && len(rep.Table.Rows) > 0 {
		fmt.Fprintln(w)
		writePrettyTable(w, p, rep.Table)
	}
	return nil
}

func writePrettyTable(w io.Writer, p *message.Printer, table *report.Table) {
	cells := make([][]string, len(table.Rows))
	widths := make([]int, len(table.Columns))
	for j, col := range table.Columns {
		widths[j] = len(col)
	}
	for i, row := range table.Rows {
		cells[i] = make([]string, len(row))
		for j, v := range row {
			cells[i][j] = p.Sprintf("%.2f", v)
			if len(cells[i][j]) > widths[j] {
				widths[j] = len(cells[i][j])
			}
		}
	}

	header := make([]string, len(table.Columns))
	rule := make([]string, len(table.Columns))
	for j, col := range table.Columns {
		header[j] = fmt.Sprintf("%-*s", widths[j], col)
		rule[j] = strings.Repeat("_", widths[j])
	}
	fmt.Fprintln(w, strings.Join(header, " | "))
	fmt.Fprintln(w, strings.Join(rule, " | "))
	for _, row := range cells {
		padded := make([]string, len(row))
		for j, cell := range row {
			padded[j] = fmt.Sprintf("%*s", widths[j], cell)
		}
		fmt.Fprintln(w, strings.Join(padded, " | "))
	}
}

// CsvFormat writes the metrics as key,label,value,unit rows followed by a
// blank line and the table, if any.
func CsvFormat(w io.Writer, rep report.Report) error {
	metrics := roundedMetrics(rep.Metrics)
	if err := gocsv.MarshalCSV(metrics, gocsv.NewSafeCSVWriter(csv.NewWriter(w))); err != nil {
		return fmt.Errorf("error writing CSV metrics: %w", err)
	}
	if rep.Table == nil || len(rep.Table.Rows) == 0 {
		return nil
	}

	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(rep.Table.Columns); err != nil {
		return fmt.Errorf("error writing CSV table: %w", err)
	}
	for _, row := range rep.Table.Rows {
		record := make([]string, len(row))
		for j, v := range row {
			record[j] = formatCell(v)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("error writing CSV table: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// JSONFormat writes the report as indented JSON with rounded metrics.
func JSONFormat(w io.Writer, rep report.Report) error {
	rep.Metrics = roundedMetrics(rep.Metrics)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("error writing JSON report: %w", err)
	}
	return nil
}

func roundedMetrics(metrics []report.Metric) []report.Metric {
	out := make([]report.Metric, len(metrics))
	for i, m := range metrics {
		m.Value = m.Rounded()
		out[i] = m
	}
	return out
}

func formatCell(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
