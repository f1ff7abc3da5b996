// Package pricing shows how profit responds to price changes under a
// constant price elasticity of demand.
package pricing

import (
	"fmt"
	"math"

	"github.com/iwvelando/bizcalc/internal/baseline"
	"github.com/iwvelando/bizcalc/pkg/mathutil"
	"github.com/iwvelando/bizcalc/pkg/report"
	"github.com/iwvelando/bizcalc/pkg/validation"
)

// Name identifies the calculator.
const Name = "pricing"

// MaxScenarios caps the number of price changes evaluated in one run.
const MaxScenarios = 200

// Input describes the current price point and the range of changes to try.
// All changes are in percent.
type Input struct {
	PricePerUnit        float64 `json:"pricePerUnit" yaml:"pricePerUnit" validate:"gt=0" label:"Price per unit"`
	VariableCostPerUnit float64 `json:"variableCostPerUnit" yaml:"variableCostPerUnit" validate:"gte=0" label:"Variable cost per unit"`
	FixedCosts          float64 `json:"fixedCosts" yaml:"fixedCosts" validate:"gte=0" label:"Fixed costs"`
	BaseUnits           float64 `json:"baseUnits" yaml:"baseUnits" validate:"gte=0" label:"Current unit sales"`
	Elasticity          float64 `json:"elasticity" yaml:"elasticity" validate:"finite" label:"Price elasticity of demand"`
	MinChange           float64 `json:"minChange" yaml:"minChange" validate:"gte=-100" label:"Smallest price change (%)"`
	MaxChange           float64 `json:"maxChange" yaml:"maxChange" validate:"finite" label:"Largest price change (%)"`
	Step                float64 `json:"step" yaml:"step" validate:"gt=0" label:"Step (%)"`
}

// Scenario is the outcome of a single price change.
type Scenario struct {
	Change               float64
	Price                float64
	Units                float64
	Revenue              float64
	Contribution         float64
	Profit               float64
	ProfitChange         float64
	RequiredVolumeChange float64
	HasRequiredVolume    bool
}

// Result holds the baseline and every scenario.
type Result struct {
	Input             Input
	ContributionRatio float64
	BaseProfit        float64
	Scenarios         []Scenario
	Best              int
}

// DefaultInput seeds prices, costs and volume from the baseline.
func DefaultInput(p baseline.Params) Input {
	return Input{
		PricePerUnit:        p.PricePerUnit,
		VariableCostPerUnit: p.VariableCostPerUnit,
		FixedCosts:          p.FixedCosts,
		BaseUnits:           p.AnnualUnits,
		Elasticity:          -1.5,
		MinChange:           -20,
		MaxChange:           20,
		Step:                5,
	}
}

// Calculate evaluates each price change c from MinChange to MaxChange.
// Volume moves by elasticity*c and never drops below zero.
func Calculate(in Input) (Result, error) {
	if err := validation.Struct(in); err != nil {
		return Result{}, err
	}
	if in.MinChange > in.MaxChange {
		return Result{}, validation.NewFieldError("minChange", "must not exceed maxChange (%.2f)", in.MaxChange)
	}
	steps := math.Floor((in.MaxChange-in.MinChange)/in.Step + 1e-9)
	if math.IsInf(steps, 0) || math.IsNaN(steps) || steps+1 > MaxScenarios {
		return Result{}, validation.NewFieldError("step",
			"produces %.0f scenarios, at most %d are allowed", steps+1, MaxScenarios)
	}
	count := int(steps) + 1

	cm := in.PricePerUnit - in.VariableCostPerUnit
	res := Result{
		Input:             in,
		ContributionRatio: cm / in.PricePerUnit,
		BaseProfit:        cm*in.BaseUnits - in.FixedCosts,
		Scenarios:         make([]Scenario, 0, count),
	}

	for i := 0; i < count; i++ {
		change := mathutil.RoundTo(in.MinChange+float64(i)*in.Step, 6)
		c := mathutil.Fraction(change)

		s := Scenario{
			Change: change,
			Price:  in.PricePerUnit * (1 + c),
			Units:  math.Max(0, in.BaseUnits*(1+in.Elasticity*c)),
		}
		s.Revenue = s.Price * s.Units
		s.Contribution = (s.Price - in.VariableCostPerUnit) * s.Units
		s.Profit = s.Contribution - in.FixedCosts
		s.ProfitChange = s.Profit - res.BaseProfit
		if denominator := res.ContributionRatio + c; denominator > 0 {
			s.RequiredVolumeChange = mathutil.Percent(-c / denominator)
			s.HasRequiredVolume = true
		}

		if len(res.Scenarios) > 0 && s.Profit > res.Scenarios[res.Best].Profit {
			res.Best = i
		}
		res.Scenarios = append(res.Scenarios, s)
	}
	return res, nil
}

// BestScenario returns the most profitable price change.
func (r Result) BestScenario() Scenario {
	return r.Scenarios[r.Best]
}

// Report renders the result.
func (r Result) Report() report.Report {
	best := r.BestScenario()
	rep := report.New(Name, "Pricing sensitivity")
	rep.Add("contributionRatio", "Contribution margin ratio", mathutil.Percent(r.ContributionRatio), report.UnitPercent).
		Add("baseProfit", "Profit at current price", r.BaseProfit, report.UnitCurrency).
		Add("bestChange", "Most profitable price change", best.Change, report.UnitPercent).
		Add("bestPrice", "Most profitable price", best.Price, report.UnitCurrency).
		Add("bestProfit", "Profit at that price", best.Profit, report.UnitCurrency).
		Add("bestProfitChange", "Profit gain over current price", best.ProfitChange, report.UnitCurrency)

	for i, s := range r.Scenarios {
		if !s.HasRequiredVolume {
			continue
		}
		rep.Add(fmt.Sprintf("requiredVolumeChange.%d", i),
			fmt.Sprintf("Volume change to hold contribution at %+.1f%%", s.Change),
			s.RequiredVolumeChange, report.UnitPercent)
	}

	switch {
	case best.Change > 0:
		rep.Note("Raising the price by %.1f%% maximizes profit.", best.Change)
	case best.Change < 0:
		rep.Note("Cutting the price by %.1f%% maximizes profit.", -best.Change)
	default:
		rep.Note("The current price is the most profitable in the range tested.")
	}
	if r.ContributionRatio <= 0 {
		rep.Note("Price does not cover variable cost; every sale loses money.")
	}

	table := &report.Table{Columns: []string{"change", "price", "units", "revenue", "contribution", "profit", "profitChange"}}
	changes := make([]float64, len(r.Scenarios))
	profit := make([]float64, len(r.Scenarios))
	revenue := make([]float64, len(r.Scenarios))
	for i, s := range r.Scenarios {
		table.Rows = append(table.Rows, []float64{s.Change, s.Price, s.Units, s.Revenue, s.Contribution, s.Profit, s.ProfitChange})
		changes[i] = s.Change
		profit[i] = s.Profit
		revenue[i] = s.Revenue
	}
	rep.Table = table
	rep.Chart = &report.Chart{
		Title:  "Profit and revenue by price change",
		XLabel: "Price change (%)",
		YLabel: "Amount",
		X:      changes,
		Series: []report.Series{
			{Name: "Profit", Values: profit},
			{Name: "Revenue", Values: revenue},
		},
	}
	return *rep
}
