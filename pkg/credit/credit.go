// Package credit evaluates a proposed cash-discount credit policy against the
// current policy with the discounted-NPV receivables model.
package credit

import (
	"math"

	"github.com/iwvelando/bizcalc/internal/baseline"
	"github.com/iwvelando/bizcalc/pkg/mathutil"
	"github.com/iwvelando/bizcalc/pkg/report"
	"github.com/iwvelando/bizcalc/pkg/validation"
)

// Name identifies the calculator.
const Name = "credit"

// Input describes the current policy and the proposed discount terms
// (for example "2/10 net 30": Discount 2, DiscountDays 10, NetDays 30).
type Input struct {
	DailySales            float64 `json:"dailySales" yaml:"dailySales" validate:"gte=0" label:"Current daily sales"`
	SalesChange           float64 `json:"salesChange" yaml:"salesChange" validate:"gt=-100" label:"Sales change under new policy (%)"`
	VariableCostRatio     float64 `json:"variableCostRatio" yaml:"variableCostRatio" validate:"gte=0,lte=100" label:"Variable cost ratio (%)"`
	CurrentCollectionDays float64 `json:"currentCollectionDays" yaml:"currentCollectionDays" validate:"gte=0" label:"Current collection period (days)"`
	CurrentBadDebt        float64 `json:"currentBadDebt" yaml:"currentBadDebt" validate:"gte=0,lte=100" label:"Current bad debt (%)"`
	Discount              float64 `json:"discount" yaml:"discount" validate:"gte=0,lt=100" label:"Cash discount (%)"`
	DiscountDays          float64 `json:"discountDays" yaml:"discountDays" validate:"gte=0" label:"Discount period (days)"`
	NetDays               float64 `json:"netDays" yaml:"netDays" validate:"gte=0" label:"Net period (days)"`
	TakeUpRate            float64 `json:"takeUpRate" yaml:"takeUpRate" validate:"gte=0,lte=100" label:"Customers taking discount (%)"`
	NewBadDebt            float64 `json:"newBadDebt" yaml:"newBadDebt" validate:"gte=0,lte=100" label:"New bad debt (%)"`
	AnnualRate            float64 `json:"annualRate" yaml:"annualRate" validate:"gte=0,lte=100" label:"Required return (%)"`
	DaysInYear            float64 `json:"daysInYear" yaml:"daysInYear" validate:"daycount" label:"Days in year"`
}

// Result compares the daily NPV of both policies.
type Result struct {
	Input                 Input
	DailyRate             float64
	CurrentNPV            float64
	NewDailySales         float64
	NewNPV                float64
	DailyGain             float64
	PerpetuityGain        float64
	HasPerpetuity         bool
	Adopt                 bool
	NewCollectionDays     float64
	CurrentReceivables    float64
	NewReceivables        float64
	CostOfForgoneDiscount float64
	HasForgoneCost        bool
}

// DefaultInput seeds sales, cost ratio and required return from the baseline
// and proposes 2/10 net 30 terms.
func DefaultInput(p baseline.Params) Input {
	ratio := 0.0
	if p.PricePerUnit > 0 {
		ratio = mathutil.CalculatePercentage(p.VariableCostPerUnit, p.PricePerUnit)
	}
	if ratio > 100 {
		ratio = 100
	}
	return Input{
		DailySales:            p.AnnualRevenue / p.DaysInYear,
		SalesChange:           5,
		VariableCostRatio:     ratio,
		CurrentCollectionDays: 45,
		CurrentBadDebt:        2,
		Discount:              2,
		DiscountDays:          10,
		NetDays:               30,
		TakeUpRate:            50,
		NewBadDebt:            1.5,
		AnnualRate:            p.WACC,
		DaysInYear:            p.DaysInYear,
	}
}

// Calculate compares
//
//	NPV0 = S0(1-b0)/(1+k)^t0 - vS0
//	NPV1 = S1 p (1-d)/(1+k)^td + S1 (1-p)(1-b1)/(1+k)^tn - vS1
//
// with k the daily required return.
func Calculate(in Input) (Result, error) {
	if err := validation.Struct(in); err != nil {
		return Result{}, err
	}
	if in.DailySales <= 0 {
		return Result{}, validation.NewFieldError("dailySales", "must be greater than 0")
	}
	if in.DiscountDays > in.NetDays {
		return Result{}, validation.NewFieldError("discountDays", "must not exceed netDays (%.0f)", in.NetDays)
	}

	k := mathutil.Fraction(in.AnnualRate) / in.DaysInYear
	v := mathutil.Fraction(in.VariableCostRatio)
	p := mathutil.Fraction(in.TakeUpRate)
	d := mathutil.Fraction(in.Discount)
	b0 := mathutil.Fraction(in.CurrentBadDebt)
	b1 := mathutil.Fraction(in.NewBadDebt)

	s0 := in.DailySales
	s1 := s0 * (1 + mathutil.Fraction(in.SalesChange))

	res := Result{
		Input:         in,
		DailyRate:     k,
		NewDailySales: s1,
	}
	res.CurrentNPV = s0*(1-b0)*mathutil.DiscountFactor(k, in.CurrentCollectionDays) - v*s0
	res.NewNPV = s1*p*(1-d)*mathutil.DiscountFactor(k, in.DiscountDays) +
		s1*(1-p)*(1-b1)*mathutil.DiscountFactor(k, in.NetDays) - v*s1
	res.DailyGain = res.NewNPV - res.CurrentNPV
	if k > 0 {
		res.PerpetuityGain = res.DailyGain / k
		res.HasPerpetuity = true
	}
	res.Adopt = res.DailyGain > 0

	res.NewCollectionDays = p*in.DiscountDays + (1-p)*in.NetDays
	res.CurrentReceivables = s0 * in.CurrentCollectionDays * v
	res.NewReceivables = s1 * res.NewCollectionDays * v

	if in.NetDays > in.DiscountDays {
		res.CostOfForgoneDiscount = mathutil.Percent(d / (1 - d) * in.DaysInYear / (in.NetDays - in.DiscountDays))
		res.HasForgoneCost = true
	}
	return res, nil
}

// Report renders the result.
func (r Result) Report() report.Report {
	rep := report.New(Name, "Credit policy evaluation")
	rep.Add("currentNpv", "Daily NPV, current policy", r.CurrentNPV, report.UnitCurrency).
		Add("newNpv", "Daily NPV, proposed policy", r.NewNPV, report.UnitCurrency).
		Add("dailyGain", "Daily NPV gain", r.DailyGain, report.UnitCurrency)
	if r.HasPerpetuity {
		rep.Add("perpetuityGain", "Value of switching (perpetuity)", r.PerpetuityGain, report.UnitCurrency)
	}
	rep.Add("newCollectionDays", "New average collection period", r.NewCollectionDays, report.UnitDays).
		Add("currentReceivables", "Receivables investment, current", r.CurrentReceivables, report.UnitCurrency).
		Add("newReceivables", "Receivables investment, proposed", r.NewReceivables, report.UnitCurrency)
	if r.HasForgoneCost {
		rep.Add("costOfForgoneDiscount", "Annualized cost of forgoing the discount", r.CostOfForgoneDiscount, report.UnitPercent)
	}

	if r.Adopt {
		rep.Note("Adopt the proposed terms: daily NPV improves by %.2f.", r.DailyGain)
	} else {
		rep.Note("Keep the current policy: proposed terms lower daily NPV by %.2f.", math.Abs(r.DailyGain))
	}

	rep.Chart = r.takeUpChart()
	return *rep
}

// takeUpChart plots the proposed-policy NPV against the share of customers
// taking the discount, with the current policy as a flat reference.
func (r Result) takeUpChart() *report.Chart {
	rates := mathutil.Linspace(0, 100, 11)
	proposed := make([]float64, len(rates))
	current := make([]float64, len(rates))
	for i, rate := range rates {
		in := r.Input
		in.TakeUpRate = rate
		if res, err := Calculate(in); err == nil {
			proposed[i] = res.NewNPV
		}
		current[i] = r.CurrentNPV
	}
	return &report.Chart{
		Title:  "Daily NPV by discount take-up",
		XLabel: "Customers taking discount (%)",
		YLabel: "Daily NPV",
		X:      rates,
		Series: []report.Series{
			{Name: "Proposed policy", Values: proposed},
			{Name: "Current policy", Values: current},
		},
	}
}
