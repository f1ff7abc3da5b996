package output

import (
	"fmt"
	"io"

	"github.com/iwvelando/bizcalc/pkg/report"
	"github.com/xuri/excelize/v2"
)

// Sheet names used by XlsxFormat.
const (
	SummarySheet = "Summary"
	TableSheet   = "Table"
	DataSheet    = "Data"
)

// XlsxFormat writes a workbook with a Summary sheet of metrics and notes, a
// Table sheet when the report has a table and a Data sheet holding the chart
// series with a native line chart.
func XlsxFormat(w io.Writer, rep report.Report) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if err := writeSummarySheet(f, rep); err != nil {
		return err
	}
	if rep.Table != nil && len(rep.Table.Rows) > 0 {
		if err := writeTableSheet(f, rep.Table); err != nil {
			return err
		}
	}
	if rep.Chart != nil && len(rep.Chart.X) > 0 {
		if err := writeChartSheet(f, rep.Chart); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, rep report.Report) error {
	rows := [][]interface{}{
		{rep.Title},
		{"Metric", "Value", "Unit"},
	}
	for _, m := range rep.Metrics {
		rows = append(rows, []interface{}{m.Label, m.Rounded(), string(m.Unit)})
	}
	if len(rep.Summary) > 0 {
		rows = append(rows, []interface{}{})
		for _, line := range rep.Summary {
			rows = append(rows, []interface{}{line})
		}
	}
	return writeRows(f, SummarySheet, rows)
}

func writeTableSheet(f *excelize.File, table *report.Table) error {
	if _, err := f.NewSheet(TableSheet); err != nil {
		return fmt.Errorf("failed to create table sheet: %w", err)
	}
	rows := make([][]interface{}, 0, len(table.Rows)+1)
	header := make([]interface{}, len(table.Columns))
	for j, col := range table.Columns {
		header[j] = col
	}
	rows = append(rows, header)
	for _, row := range table.Rows {
		rows = append(rows, floatRow(row))
	}
	return writeRows(f, TableSheet, rows)
}

func writeChartSheet(f *excelize.File, chart *report.Chart) error {
	if _, err := f.NewSheet(DataSheet); err != nil {
		return fmt.Errorf("failed to create data sheet: %w", err)
	}

	header := []interface{}{chart.XLabel}
	for _, s := range chart.Series {
		header = append(header, s.Name)
	}
	rows := [][]interface{}{header}
	for i, x := range chart.X {
		row := []interface{}{x}
		for _, s := range chart.Series {
			row = append(row, s.Values[i])
		}
		rows = append(rows, row)
	}
	if err := writeRows(f, DataSheet, rows); err != nil {
		return err
	}

	lastRow := len(chart.X) + 1
	categories := fmt.Sprintf("%s!$A$2:$A$%d", DataSheet, lastRow)
	series := make([]excelize.ChartSeries, 0, len(chart.Series))
	for j := range chart.Series {
		col, err := excelize.ColumnNumberToName(j + 2)
		if err != nil {
			return err
		}
		series = append(series, excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", DataSheet, col),
			Categories: categories,
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", DataSheet, col, col, lastRow),
		})
	}

	anchor, err := excelize.CoordinatesToCellName(len(chart.Series)+3, 2)
	if err != nil {
		return err
	}
	if err := f.AddChart(DataSheet, anchor, &excelize.Chart{
		Type:   excelize.Line,
		Series: series,
		Title:  []excelize.RichTextRun{{Text: chart.Title}},
		XAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: chart.XLabel}}},
		YAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: chart.YLabel}}},
		Legend: excelize.ChartLegend{Position: "bottom"},
	}); err != nil {
		return fmt.Errorf("failed to add chart: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func floatRow(row []float64) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}
