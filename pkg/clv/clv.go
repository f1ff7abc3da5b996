// Package clv computes customer lifetime value as the net present value of
// retained per-customer profit.
package clv

import (
	"github.com/iwvelando/bizcalc/internal/baseline"
	"github.com/iwvelando/bizcalc/pkg/constants"
	"github.com/iwvelando/bizcalc/pkg/mathutil"
	"github.com/iwvelando/bizcalc/pkg/report"
	"github.com/iwvelando/bizcalc/pkg/validation"
)

// Name identifies the calculator.
const Name = "clv"

// Verdict thresholds for the CLV to acquisition cost ratio.
const (
	HealthyRatio  = 3.0
	MarginalRatio = 1.0
)

// Input describes one average customer.
type Input struct {
	AverageOrderValue float64 `json:"averageOrderValue" yaml:"averageOrderValue" validate:"gte=0" label:"Average order value"`
	PurchasesPerYear  float64 `json:"purchasesPerYear" yaml:"purchasesPerYear" validate:"gte=0" label:"Purchases per year"`
	GrossMargin       float64 `json:"grossMargin" yaml:"grossMargin" validate:"gte=0,lte=100" label:"Gross margin (%)"`
	RetentionRate     float64 `json:"retentionRate" yaml:"retentionRate" validate:"gte=0,lt=100" label:"Annual retention (%)"`
	DiscountRate      float64 `json:"discountRate" yaml:"discountRate" validate:"gte=0,lte=100" label:"Discount rate (%)"`
	Years             int     `json:"years" yaml:"years" validate:"gte=1,lte=50" label:"Horizon (years)"`
	AcquisitionCost   float64 `json:"acquisitionCost" yaml:"acquisitionCost" validate:"gte=0" label:"Customer acquisition cost"`
}

// YearValue is one row of the lifetime schedule.
type YearValue struct {
	Year             int
	SurvivalRate     float64
	ExpectedProfit   float64
	DiscountedProfit float64
	CumulativeCLV    float64
}

// Result holds the lifetime value figures.
type Result struct {
	Input         Input
	AnnualProfit  float64
	CLV           float64
	PerpetuityCLV float64
	NetCLV        float64
	Ratio         float64
	HasRatio      bool
	PaybackMonths float64
	HasPayback    bool
	Verdict       string
	Schedule      []YearValue
}

// DefaultInput seeds margin and discount rate from the baseline.
func DefaultInput(p baseline.Params) Input {
	margin := 0.0
	if p.PricePerUnit > 0 {
		margin = mathutil.CalculatePercentage(p.PricePerUnit-p.VariableCostPerUnit, p.PricePerUnit)
	}
	if margin < 0 {
		margin = 0
	}
	return Input{
		AverageOrderValue: p.PricePerUnit,
		PurchasesPerYear:  4,
		GrossMargin:       margin,
		RetentionRate:     70,
		DiscountRate:      p.WACC,
		Years:             5,
		AcquisitionCost:   100,
	}
}

// Calculate discounts each year's retained profit at the end of the year:
// CLV = sum over t of p * r^(t-1) / (1+d)^t.
func Calculate(in Input) (Result, error) {
	if err := validation.Struct(in); err != nil {
		return Result{}, err
	}

	r := mathutil.Fraction(in.RetentionRate)
	d := mathutil.Fraction(in.DiscountRate)

	res := Result{
		Input:        in,
		AnnualProfit: in.AverageOrderValue * in.PurchasesPerYear * mathutil.Fraction(in.GrossMargin),
		Schedule:     make([]YearValue, 0, in.Years),
	}

	survival := 1.0
	for year := 1; year <= in.Years; year++ {
		expected := res.AnnualProfit * survival
		discounted := expected * mathutil.DiscountFactor(d, float64(year))
		res.CLV += discounted
		res.Schedule = append(res.Schedule, YearValue{
			Year:             year,
			SurvivalRate:     survival,
			ExpectedProfit:   expected,
			DiscountedProfit: discounted,
			CumulativeCLV:    res.CLV,
		})
		survival *= r
	}

	// Retention is capped below 100%, so 1+d-r is always positive.
	res.PerpetuityCLV = res.AnnualProfit * (1 + d) / (1 + d - r)
	res.NetCLV = res.CLV - in.AcquisitionCost

	if in.AcquisitionCost > 0 {
		res.Ratio = res.CLV / in.AcquisitionCost
		res.HasRatio = true
	}
	if res.AnnualProfit > 0 {
		res.PaybackMonths = in.AcquisitionCost / (res.AnnualProfit / constants.MonthsPerYear)
		res.HasPayback = true
	}
	res.Verdict = verdict(res)
	return res, nil
}

func verdict(res Result) string {
	if !res.HasRatio {
		if res.CLV > 0 {
			return "healthy"
		}
		return "unprofitable"
	}
	switch {
	case res.Ratio >= HealthyRatio:
		return "healthy"
	case res.Ratio >= MarginalRatio:
		return "marginal"
	default:
		return "unprofitable"
	}
}

// Report renders the result.
func (r Result) Report() report.Report {
	rep := report.New(Name, "Customer lifetime value")
	rep.Add("annualProfit", "Annual profit per customer", r.AnnualProfit, report.UnitCurrency).
		Add("clv", "Customer lifetime value", r.CLV, report.UnitCurrency).
		Add("perpetuityClv", "Lifetime value (no horizon)", r.PerpetuityCLV, report.UnitCurrency).
		Add("netClv", "Lifetime value net of acquisition cost", r.NetCLV, report.UnitCurrency)
	if r.HasRatio {
		rep.Add("clvToCac", "CLV to acquisition cost", r.Ratio, report.UnitRatio)
	}
	if r.HasPayback {
		rep.Add("paybackMonths", "Acquisition cost payback", r.PaybackMonths, report.UnitMonths)
	}

	switch r.Verdict {
	case "healthy":
		rep.Note("Healthy: customers return well over their acquisition cost.")
	case "marginal":
		rep.Note("Marginal: lifetime value only modestly exceeds acquisition cost.")
	default:
		rep.Note("Unprofitable: customers are worth less than they cost to acquire.")
	}

	table := &report.Table{Columns: []string{"year", "survival", "expectedProfit", "discountedProfit", "cumulativeClv"}}
	chart := &report.Chart{
		Title:  "Cumulative customer value",
		XLabel: "Year",
		YLabel: "Amount",
	}
	discounted := make([]float64, 0, len(r.Schedule))
	cumulative := make([]float64, 0, len(r.Schedule))
	for _, y := range r.Schedule {
		table.Rows = append(table.Rows, []float64{float64(y.Year), y.SurvivalRate, y.ExpectedProfit, y.DiscountedProfit, y.CumulativeCLV})
		chart.X = append(chart.X, float64(y.Year))
		discounted = append(discounted, y.DiscountedProfit)
		cumulative = append(cumulative, y.CumulativeCLV)
	}
	chart.Series = []report.Series{
		{Name: "Discounted profit", Values: discounted},
		{Name: "Cumulative CLV", Values: cumulative},
	}
	rep.Table = table
	rep.Chart = chart
	return *rep
}
