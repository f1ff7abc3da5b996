// Package report defines the calculator-agnostic result model rendered by the
// output package, the HTTP API and the interactive menu.
package report

import (
	"fmt"

	"github.com/iwvelando/bizcalc/pkg/format"
	"github.com/iwvelando/bizcalc/pkg/mathutil"
)

// Unit describes how a metric value should be rendered.
type Unit string

// Supported metric units.
const (
	UnitCurrency Unit = "currency"
	UnitPercent  Unit = "percent"
	UnitDays     Unit = "days"
	UnitMonths   Unit = "months"
	UnitUnits    Unit = "units"
	UnitRatio    Unit = "ratio"
	UnitScore    Unit = "score"
	UnitNumber   Unit = "number"
)

// Report is the rendered result of one calculator run.
type Report struct {
	Calculator string   `json:"calculator"`
	Title      string   `json:"title"`
	Summary    []string `json:"summary,omitempty"`
	Metrics    []Metric `json:"metrics"`
	Table      *Table   `json:"table,omitempty"`
	Chart      *Chart   `json:"chart,omitempty"`
}

// Metric is a single labelled value.
type Metric struct {
	Key   string  `json:"key" csv:"key"`
	Label string  `json:"label" csv:"label"`
	Value float64 `json:"value" csv:"value"`
	Unit  Unit    `json:"unit" csv:"unit"`
}

// Table holds tabular numeric output such as schedules or scenario grids.
type Table struct {
	Columns []string    `json:"columns"`
	Rows    [][]float64 `json:"rows"`
}

// Chart holds one or more series sharing the same x axis.
type Chart struct {
	Title  string    `json:"title"`
	XLabel string    `json:"xLabel"`
	YLabel string    `json:"yLabel"`
	X      []float64 `json:"x"`
	Series []Series  `json:"series"`
}

// Series is a named set of y values aligned with Chart.X.
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// New starts a report for the named calculator.
func New(calculator, title string) *Report {
	return &Report{Calculator: calculator, Title: title}
}

// Add appends a metric and returns the report for chaining.
func (r *Report) Add(key, label string, value float64, unit Unit) *Report {
	r.Metrics = append(r.Metrics, Metric{Key: key, Label: label, Value: value, Unit: unit})
	return r
}

// Note appends a summary line.
func (r *Report) Note(format string, args ...interface{}) *Report {
	r.Summary = append(r.Summary, fmt.Sprintf(format, args...))
	return r
}

// Metric returns the metric with the given key.
func (r Report) Metric(key string) (Metric, bool) {
	for _, m := range r.Metrics {
		if m.Key == key {
			return m, true
		}
	}
	return Metric{}, false
}

// Formatted renders the metric value according to its unit.
func (m Metric) Formatted() string {
	switch m.Unit {
	case UnitCurrency:
		return format.Currency(m.Value)
	case UnitPercent:
		return format.Percent(m.Value)
	case UnitDays:
		return format.Days(m.Value)
	case UnitMonths:
		return format.Months(m.Value)
	case UnitUnits:
		return format.Units(m.Value)
	case UnitRatio:
		return format.Ratio(m.Value)
	case UnitScore:
		return format.Number(m.Value, 3)
	default:
		return format.Number(m.Value, 2)
	}
}

// Rounded returns the value rounded for serialization: currency to cents,
// everything else to four decimals.
func (m Metric) Rounded() float64 {
	if m.Unit == UnitCurrency {
		return mathutil.Round(m.Value)
	}
	return mathutil.RoundTo(m.Value, 4)
}

// Validate checks that table rows and chart series line up with their headers.
func (r Report) Validate() error {
	if r.Table != nil {
		for i, row := range r.Table.Rows {
			if len(row) != len(r.Table.Columns) {
				return fmt.Errorf("table row %d has %d values, expected %d", i, len(row), len(r.Table.Columns))
			}
		}
	}
	if r.Chart != nil {
		for _, s := range r.Chart.Series {
			if len(s.Values) != len(r.Chart.X) {
				return fmt.Errorf("chart series %q has %d values, expected %d", s.Name, len(s.Values), len(r.Chart.X))
			}
		}
	}
	return nil
}
