package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iwvelando/bizcalc/pkg/report"
	"github.com/xuri/excelize/v2"
)

func sampleReport() report.Report {
	rep := report.New("sample", "Sample report")
	rep.Add("revenue", "Revenue", 1234567.891, report.UnitCurrency).
		Add("margin", "Margin", 12.5, report.UnitPercent).
		Add("cycle", "Cycle", 45.25, report.UnitDays)
	rep.Note("Looks healthy.")
	rep.Table = &report.Table{
		Columns: []string{"month", "payment"},
		Rows:    [][]float64{{1, 1000}, {2, 2500.5}},
	}
	rep.Chart = &report.Chart{
		Title:  "Payments",
		XLabel: "Month",
		YLabel: "Amount",
		X:      []float64{1, 2},
		Series: []report.Series{{Name: "Payment", Values: []float64{1000, 2500.5}}},
	}
	return *rep
}

func TestPrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := PrettyFormat(&buf, sampleReport()); err != nil {
		t.Fatalf("PrettyFormat returned error: %v", err)
	}
	output := buf.String()

	expected := []string{
		"--- Sample report (sample) ---",
		"Revenue | $1,234,567.89",
		"Margin  | 12.50%",
		"Cycle   | 45.3 days",
		"* Looks healthy.",
		"month | payment",
		"2,500.50",
	}
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("PrettyFormat output missing %q, got:\n%s", want, output)
		}
	}
}

func TestCsvFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := CsvFormat(&buf, sampleReport()); err != nil {
		t.Fatalf("CsvFormat returned error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	if lines[0] != "key,label,value,unit" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[1] != "revenue,Revenue,1234567.89,currency" {
		t.Errorf("unexpected first metric row %q", lines[1])
	}
	if lines[4] != "" {
		t.Errorf("expected blank separator line, got %q", lines[4])
	}
	if lines[5] != "month,payment" || lines[7] != "2.00,2500.50" {
		t.Errorf("unexpected table rows %q", lines[5:])
	}
}

func TestCsvFormatWithoutTable(t *testing.T) {
	rep := sampleReport()
	rep.Table = nil

	var buf bytes.Buffer
	if err := CsvFormat(&buf, rep); err != nil {
		t.Fatalf("CsvFormat returned error: %v", err)
	}
	if got := len(strings.Split(strings.TrimSpace(buf.String()), "\n")); got != 4 {
		t.Errorf("expected 4 lines, got %d", got)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := JSONFormat(&buf, sampleReport()); err != nil {
		t.Fatalf("JSONFormat returned error: %v", err)
	}

	var decoded report.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Calculator != "sample" {
		t.Errorf("expected calculator sample, got %s", decoded.Calculator)
	}
	if decoded.Metrics[0].Value != 1234567.89 {
		t.Errorf("expected rounded revenue, got %v", decoded.Metrics[0].Value)
	}
	if decoded.Chart == nil || len(decoded.Chart.Series) != 1 {
		t.Errorf("expected chart to survive encoding")
	}
}

func TestXlsxFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := XlsxFormat(&buf, sampleReport()); err != nil {
		t.Fatalf("XlsxFormat returned error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) != 3 || sheets[0] != SummarySheet || sheets[1] != TableSheet || sheets[2] != DataSheet {
		t.Fatalf("unexpected sheets %v", sheets)
	}

	label, err := f.GetCellValue(SummarySheet, "A3")
	if err != nil || label != "Revenue" {
		t.Errorf("expected Revenue in A3, got %q (%v)", label, err)
	}

	rows, err := f.GetRows(DataSheet)
	if err != nil {
		t.Fatalf("failed to read data sheet: %v", err)
	}
	if len(rows) != 3 || rows[0][0] != "Month" || rows[0][1] != "Payment" {
		t.Errorf("unexpected data rows %v", rows)
	}
}

func TestWriteRejectsUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleReport(), "yaml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWriteDispatch(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"pretty", "--- Sample report"},
		{"csv", "key,label,value,unit"},
		{"json", `"calculator": "sample"`},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, sampleReport(), tt.format); err != nil {
				t.Fatalf("Write returned error: %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("expected %q in output, got:\n%s", tt.want, buf.String())
			}
		})
	}
}

func TestContentTypeAndExtension(t *testing.T) {
	if FileExtension("pretty") != "txt" || FileExtension("xlsx") != "xlsx" {
		t.Error("unexpected file extensions")
	}
	if !strings.HasPrefix(ContentType("csv"), "text/csv") {
		t.Errorf("unexpected csv content type %s", ContentType("csv"))
	}
}
