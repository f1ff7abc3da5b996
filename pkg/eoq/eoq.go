// Package eoq computes the economic order quantity and the inventory costs
// around it.
package eoq

import (
	"math"

	"github.com/iwvelando/bizcalc/internal/baseline"
	"github.com/iwvelando/bizcalc/pkg/mathutil"
	"github.com/iwvelando/bizcalc/pkg/report"
	"github.com/iwvelando/bizcalc/pkg/validation"
)

// Name identifies the calculator.
const Name = "eoq"

const curvePoints = 25

// Input describes demand and inventory cost drivers.
type Input struct {
	AnnualDemand float64 `json:"annualDemand" yaml:"annualDemand" validate:"gte=0" label:"Annual demand (units)"`
	OrderingCost float64 `json:"orderingCost" yaml:"orderingCost" validate:"gte=0" label:"Cost per order"`
	UnitCost     float64 `json:"unitCost" yaml:"unitCost" validate:"gte=0" label:"Unit purchase cost"`
	HoldingRate  float64 `json:"holdingRate" yaml:"holdingRate" validate:"gte=0,lte=100" label:"Holding rate (% of unit cost)"`
	HoldingCost  float64 `json:"holdingCost" yaml:"holdingCost" validate:"gte=0" label:"Holding cost per unit (overrides rate)"`
	LeadTimeDays float64 `json:"leadTimeDays" yaml:"leadTimeDays" validate:"gte=0" label:"Lead time (days)"`
	SafetyStock  float64 `json:"safetyStock" yaml:"safetyStock" validate:"gte=0" label:"Safety stock (units)"`
	DaysInYear   float64 `json:"daysInYear" yaml:"daysInYear" validate:"daycount" label:"Days in year"`
}

// Result holds the order policy and annual costs.
type Result struct {
	Input              Input
	HoldingCostPerUnit float64
	EOQ                float64
	OrdersPerYear      float64
	CycleDays          float64
	OrderingCostTotal  float64
	HoldingCostTotal   float64
	InventoryCost      float64
	TotalCost          float64
	ReorderPoint       float64
}

// DefaultInput seeds demand, unit cost and the holding rate from the baseline.
func DefaultInput(p baseline.Params) Input {
	return Input{
		AnnualDemand: p.AnnualUnits,
		OrderingCost: 75,
		UnitCost:     p.VariableCostPerUnit,
		HoldingRate:  math.Min(p.WACC+10, 100),
		LeadTimeDays: 7,
		DaysInYear:   p.DaysInYear,
	}
}

// Calculate computes Q* = sqrt(2DS/H).
func Calculate(in Input) (Result, error) {
	if err := validation.Struct(in); err != nil {
		return Result{}, err
	}
	if in.AnnualDemand <= 0 {
		return Result{}, validation.NewFieldError("annualDemand", "must be greater than 0")
	}
	if in.OrderingCost <= 0 {
		return Result{}, validation.NewFieldError("orderingCost", "must be greater than 0")
	}

	h := in.HoldingCost
	if h <= 0 {
		h = mathutil.ApplyPercentage(in.UnitCost, in.HoldingRate)
	}
	if h <= 0 {
		return Result{}, validation.NewFieldError("holdingCost", "must be greater than 0 (set holdingCost or unitCost and holdingRate)")
	}

	q := math.Sqrt(2 * in.AnnualDemand * in.OrderingCost / h)
	res := Result{
		Input:              in,
		HoldingCostPerUnit: h,
		EOQ:                q,
		OrdersPerYear:      in.AnnualDemand / q,
	}
	res.CycleDays = in.DaysInYear / res.OrdersPerYear
	res.OrderingCostTotal, res.HoldingCostTotal = costs(in, h, q)
	res.InventoryCost = res.OrderingCostTotal + res.HoldingCostTotal
	res.TotalCost = res.InventoryCost + in.AnnualDemand*in.UnitCost
	res.ReorderPoint = in.AnnualDemand/in.DaysInYear*in.LeadTimeDays + in.SafetyStock
	return res, nil
}

func costs(in Input, h, q float64) (ordering, holding float64) {
	return in.AnnualDemand / q * in.OrderingCost, (q/2 + in.SafetyStock) * h
}

// Report renders the result.
func (r Result) Report() report.Report {
	rep := report.New(Name, "Economic order quantity")
	rep.Add("eoq", "Economic order quantity", r.EOQ, report.UnitUnits).
		Add("ordersPerYear", "Orders per year", r.OrdersPerYear, report.UnitNumber).
		Add("cycleDays", "Days between orders", r.CycleDays, report.UnitDays).
		Add("reorderPoint", "Reorder point", r.ReorderPoint, report.UnitUnits).
		Add("holdingCostPerUnit", "Holding cost per unit per year", r.HoldingCostPerUnit, report.UnitCurrency).
		Add("orderingCost", "Annual ordering cost", r.OrderingCostTotal, report.UnitCurrency).
		Add("holdingCost", "Annual holding cost", r.HoldingCostTotal, report.UnitCurrency).
		Add("inventoryCost", "Annual inventory cost", r.InventoryCost, report.UnitCurrency).
		Add("totalCost", "Annual cost including purchases", r.TotalCost, report.UnitCurrency)
	rep.Note("Order %.0f units about every %.0f days; reorder at %.0f units on hand.",
		math.Round(r.EOQ), r.CycleDays, math.Ceil(r.ReorderPoint))

	quantities := mathutil.Linspace(0.25*r.EOQ, 2.5*r.EOQ, curvePoints)
	ordering := make([]float64, len(quantities))
	holding := make([]float64, len(quantities))
	total := make([]float64, len(quantities))
	for i, q := range quantities {
		ordering[i], holding[i] = costs(r.Input, r.HoldingCostPerUnit, q)
		total[i] = ordering[i] + holding[i]
	}
	rep.Chart = &report.Chart{
		Title:  "Inventory cost by order quantity",
		XLabel: "Order quantity",
		YLabel: "Annual cost",
		X:      quantities,
		Series: []report.Series{
			{Name: "Total", Values: total},
			{Name: "Ordering", Values: ordering},
			{Name: "Holding", Values: holding},
		},
	}
	return *rep
}
