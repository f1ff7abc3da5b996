// Package ccc computes the cash conversion cycle from working-capital
// balances and the cost of financing it.
package ccc

import (
	"github.com/iwvelando/bizcalc/internal/baseline"
	"github.com/iwvelando/bizcalc/pkg/mathutil"
	"github.com/iwvelando/bizcalc/pkg/report"
	"github.com/iwvelando/bizcalc/pkg/validation"
)

// Name identifies the calculator.
const Name = "ccc"

// Assessment thresholds in days.
const (
	EfficientDays = 30
	ModerateDays  = 90
)

// Input holds annual flows and average working-capital balances.
type Input struct {
	AnnualRevenue      float64 `json:"annualRevenue" yaml:"annualRevenue" validate:"gte=0" label:"Annual revenue"`
	COGS               float64 `json:"cogs" yaml:"cogs" validate:"gte=0" label:"Cost of goods sold"`
	AverageInventory   float64 `json:"averageInventory" yaml:"averageInventory" validate:"gte=0" label:"Average inventory"`
	AverageReceivables float64 `json:"averageReceivables" yaml:"averageReceivables" validate:"gte=0" label:"Average receivables"`
	AveragePayables    float64 `json:"averagePayables" yaml:"averagePayables" validate:"gte=0" label:"Average payables"`
	DaysInYear         float64 `json:"daysInYear" yaml:"daysInYear" validate:"daycount" label:"Days in year"`
	WACC               float64 `json:"wacc" yaml:"wacc" validate:"gte=0,lte=100" label:"Financing rate (%)"`
}

// Result holds the cycle components.
type Result struct {
	Input         Input
	DIO           float64
	DSO           float64
	DPO           float64
	CCC           float64
	CashTiedUp    float64
	FinancingCost float64
	Assessment    string
}

// DefaultInput seeds flows from the baseline and assumes balances typical of
// a 45/30/30-day business.
func DefaultInput(p baseline.Params) Input {
	days := p.DaysInYear
	return Input{
		AnnualRevenue:      p.AnnualRevenue,
		COGS:               p.COGS,
		AverageInventory:   p.COGS / days * 45,
		AverageReceivables: p.AnnualRevenue / days * 30,
		AveragePayables:    p.COGS / days * 30,
		DaysInYear:         days,
		WACC:               p.WACC,
	}
}

// Calculate computes DIO, DSO, DPO and the cash conversion cycle.
func Calculate(in Input) (Result, error) {
	if err := validation.Struct(in); err != nil {
		return Result{}, err
	}
	if in.AnnualRevenue <= 0 {
		return Result{}, validation.NewFieldError("annualRevenue", "must be greater than 0")
	}
	if in.COGS <= 0 {
		return Result{}, validation.NewFieldError("cogs", "must be greater than 0")
	}

	res := Result{
		Input: in,
		DIO:   in.AverageInventory / in.COGS * in.DaysInYear,
		DSO:   in.AverageReceivables / in.AnnualRevenue * in.DaysInYear,
		DPO:   in.AveragePayables / in.COGS * in.DaysInYear,
	}
	res.CCC = res.DIO + res.DSO - res.DPO
	res.CashTiedUp = in.AnnualRevenue / in.DaysInYear * res.CCC
	res.FinancingCost = mathutil.ApplyPercentage(res.CashTiedUp, in.WACC)
	res.Assessment = Assess(res.CCC)
	return res, nil
}

// Assess classifies a cycle length in days.
func Assess(days float64) string {
	switch {
	case days < 0:
		return "negative"
	case days <= EfficientDays:
		return "efficient"
	case days <= ModerateDays:
		return "moderate"
	default:
		return "long"
	}
}

// Report renders the result.
func (r Result) Report() report.Report {
	rep := report.New(Name, "Cash conversion cycle")
	rep.Add("dio", "Days inventory outstanding", r.DIO, report.UnitDays).
		Add("dso", "Days sales outstanding", r.DSO, report.UnitDays).
		Add("dpo", "Days payables outstanding", r.DPO, report.UnitDays).
		Add("ccc", "Cash conversion cycle", r.CCC, report.UnitDays).
		Add("cashTiedUp", "Cash tied up in the cycle", r.CashTiedUp, report.UnitCurrency).
		Add("financingCost", "Annual financing cost", r.FinancingCost, report.UnitCurrency)

	switch r.Assessment {
	case "negative":
		rep.Note("Negative cycle: suppliers finance operations before customers pay.")
	case "efficient":
		rep.Note("Efficient cycle of %.1f days.", r.CCC)
	case "moderate":
		rep.Note("Moderate cycle of %.1f days; look at inventory and collections.", r.CCC)
	default:
		rep.Note("Long cycle of %.1f days ties up significant working capital.", r.CCC)
	}

	rep.Chart = &report.Chart{
		Title:  "Cycle components",
		XLabel: "Component (1=DIO, 2=DSO, 3=DPO, 4=CCC)",
		YLabel: "Days",
		X:      []float64{1, 2, 3, 4},
		Series: []report.Series{
			{Name: "Days", Values: []float64{r.DIO, r.DSO, r.DPO, r.CCC}},
		},
	}
	return *rep
}
