// Package breakeven computes break-even volume, margin of safety and
// operating leverage from a single-product cost structure.
package breakeven

import (
	"math"

	"github.com/iwvelando/bizcalc/internal/baseline"
	"github.com/iwvelando/bizcalc/pkg/mathutil"
	"github.com/iwvelando/bizcalc/pkg/report"
	"github.com/iwvelando/bizcalc/pkg/validation"
)

// Name identifies the calculator.
const Name = "breakeven"

// chartSteps is the number of volume points in the cost-volume-profit chart.
const chartSteps = 20

// Input holds the cost structure to analyse.
type Input struct {
	FixedCosts          float64 `json:"fixedCosts" yaml:"fixedCosts" validate:"gte=0" label:"Fixed costs"`
	PricePerUnit        float64 `json:"pricePerUnit" yaml:"pricePerUnit" validate:"gt=0" label:"Price per unit"`
	VariableCostPerUnit float64 `json:"variableCostPerUnit" yaml:"variableCostPerUnit" validate:"gte=0" label:"Variable cost per unit"`
	TargetProfit        float64 `json:"targetProfit" yaml:"targetProfit" label:"Target profit"`
	ExpectedUnits       float64 `json:"expectedUnits" yaml:"expectedUnits" validate:"gte=0" label:"Expected unit sales"`
}

// Result holds the break-even figures.
type Result struct {
	Input                Input
	ContributionMargin   float64
	ContributionRatio    float64
	BreakEvenUnits       float64
	BreakEvenUnitsWhole  float64
	BreakEvenRevenue     float64
	TargetUnits          float64
	TargetRevenue        float64
	MarginOfSafetyUnits  float64
	MarginOfSafetyPct    float64
	ExpectedProfit       float64
	OperatingLeverage    float64
	HasOperatingLeverage bool
}

// DefaultInput seeds the input from the shared baseline.
func DefaultInput(p baseline.Params) Input {
	return Input{
		FixedCosts:          p.FixedCosts,
		PricePerUnit:        p.PricePerUnit,
		VariableCostPerUnit: p.VariableCostPerUnit,
		ExpectedUnits:       p.AnnualUnits,
	}
}

// Calculate computes the break-even point. The price must exceed the
// variable cost, otherwise no volume ever covers fixed costs.
func Calculate(in Input) (Result, error) {
	if err := validation.Struct(in); err != nil {
		return Result{}, err
	}

	cm := in.PricePerUnit - in.VariableCostPerUnit
	if cm <= 0 {
		return Result{}, validation.NewFieldError("pricePerUnit",
			"must exceed variableCostPerUnit (%.2f) to break even", in.VariableCostPerUnit)
	}

	res := Result{
		Input:              in,
		ContributionMargin: cm,
		ContributionRatio:  cm / in.PricePerUnit,
		BreakEvenUnits:     in.FixedCosts / cm,
	}
	res.BreakEvenUnitsWhole = math.Ceil(res.BreakEvenUnits - 1e-9)
	res.BreakEvenRevenue = res.BreakEvenUnits * in.PricePerUnit
	res.TargetUnits = (in.FixedCosts + in.TargetProfit) / cm
	if res.TargetUnits < 0 {
		res.TargetUnits = 0
	}
	res.TargetRevenue = res.TargetUnits * in.PricePerUnit

	res.MarginOfSafetyUnits = in.ExpectedUnits - res.BreakEvenUnits
	if in.ExpectedUnits > 0 {
		res.MarginOfSafetyPct = mathutil.CalculatePercentage(res.MarginOfSafetyUnits, in.ExpectedUnits)
	}
	res.ExpectedProfit = cm*in.ExpectedUnits - in.FixedCosts
	if res.ExpectedProfit > 0 {
		res.OperatingLeverage = cm * in.ExpectedUnits / res.ExpectedProfit
		res.HasOperatingLeverage = true
	}
	return res, nil
}

// Report renders the result.
func (r Result) Report() report.Report {
	rep := report.New(Name, "Break-even analysis")
	rep.Add("contributionMargin", "Contribution margin per unit", r.ContributionMargin, report.UnitCurrency).
		Add("contributionRatio", "Contribution margin ratio", mathutil.Percent(r.ContributionRatio), report.UnitPercent).
		Add("breakEvenUnits", "Break-even volume", r.BreakEvenUnits, report.UnitUnits).
		Add("breakEvenUnitsWhole", "Break-even volume (whole units)", r.BreakEvenUnitsWhole, report.UnitUnits).
		Add("breakEvenRevenue", "Break-even revenue", r.BreakEvenRevenue, report.UnitCurrency)

	if r.Input.TargetProfit != 0 {
		rep.Add("targetUnits", "Volume for target profit", r.TargetUnits, report.UnitUnits).
			Add("targetRevenue", "Revenue for target profit", r.TargetRevenue, report.UnitCurrency)
	}

	rep.Add("expectedProfit", "Operating profit at expected volume", r.ExpectedProfit, report.UnitCurrency).
		Add("marginOfSafetyUnits", "Margin of safety", r.MarginOfSafetyUnits, report.UnitUnits).
		Add("marginOfSafetyPct", "Margin of safety (%)", r.MarginOfSafetyPct, report.UnitPercent)
	if r.HasOperatingLeverage {
		rep.Add("operatingLeverage", "Degree of operating leverage", r.OperatingLeverage, report.UnitRatio)
	}

	switch {
	case r.Input.ExpectedUnits == 0:
		rep.Note("No expected volume given; margin of safety is not meaningful.")
	case r.MarginOfSafetyUnits >= 0:
		rep.Note("Expected volume clears break-even by %.0f units.", r.MarginOfSafetyUnits)
	default:
		rep.Note("Expected volume falls %.0f units short of break-even.", -r.MarginOfSafetyUnits)
	}

	rep.Chart = r.chart()
	return *rep
}

// chart spans 0 to twice the break-even volume.
func (r Result) chart() *report.Chart {
	maxUnits := 2 * r.BreakEvenUnits
	if maxUnits == 0 {
		maxUnits = 1
	}

	volumes := mathutil.Linspace(0, maxUnits, chartSteps+1)
	revenue := make([]float64, len(volumes))
	totalCost := make([]float64, len(volumes))
	fixed := make([]float64, len(volumes))
	for i, v := range volumes {
		revenue[i] = v * r.Input.PricePerUnit
		totalCost[i] = r.Input.FixedCosts + v*r.Input.VariableCostPerUnit
		fixed[i] = r.Input.FixedCosts
	}

	return &report.Chart{
		Title:  "Cost-volume-profit",
		XLabel: "Units sold",
		YLabel: "Amount",
		X:      volumes,
		Series: []report.Series{
			{Name: "Revenue", Values: revenue},
			{Name: "Total cost", Values: totalCost},
			{Name: "Fixed cost", Values: fixed},
		},
	}
}
