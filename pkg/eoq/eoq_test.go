package eoq

import (
	"testing"

	"github.com/iwvelando/bizcalc/internal/baseline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateTextbookCase(t *testing.T) {
	in := Input{
		AnnualDemand: 1000,
		OrderingCost: 10,
		HoldingCost:  0.5,
		UnitCost:     2,
		LeadTimeDays: 5,
		SafetyStock:  10,
		DaysInYear:   365,
	}

	res, err := Calculate(in)
	require.NoError(t, err)

	assert.InDelta(t, 200, res.EOQ, 1e-9)
	assert.InDelta(t, 5, res.OrdersPerYear, 1e-9)
	assert.InDelta(t, 73, res.CycleDays, 1e-9)
	assert.InDelta(t, 50, res.OrderingCostTotal, 1e-9)
	assert.InDelta(t, 55, res.HoldingCostTotal, 1e-9)
	assert.InDelta(t, 105, res.InventoryCost, 1e-9)
	assert.InDelta(t, 2105, res.TotalCost, 1e-9)
	assert.InDelta(t, 1000.0/365*5+10, res.ReorderPoint, 1e-9)
}

func TestHoldingRateFallback(t *testing.T) {
	in := DefaultInput(baseline.Defaults())
	assert.Equal(t, 20.0, in.HoldingRate)

	res, err := Calculate(in)
	require.NoError(t, err)
	assert.InDelta(t, 6, res.HoldingCostPerUnit, 1e-9)
	assert.InDelta(t, 500, res.EOQ, 1e-9)
}

func TestEOQMinimizesInventoryCost(t *testing.T) {
	res, err := Calculate(DefaultInput(baseline.Defaults()))
	require.NoError(t, err)

	rep := res.Report()
	require.NoError(t, rep.Validate())
	require.NotNil(t, rep.Chart)

	total := rep.Chart.Series[0].Values
	for i, v := range total {
		assert.GreaterOrEqual(t, v+1e-9, res.InventoryCost, "point %d", i)
	}
}

func TestCalculateRejectsDegenerateInputs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
		field  string
	}{
		{"Zero demand", func(in *Input) { in.AnnualDemand = 0 }, "annualDemand"},
		{"Zero ordering cost", func(in *Input) { in.OrderingCost = 0 }, "orderingCost"},
		{"No holding cost", func(in *Input) { in.HoldingRate = 0 }, "holdingCost"},
		{"Bad day count", func(in *Input) { in.DaysInYear = 0 }, "daysInYear"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := DefaultInput(baseline.Defaults())
			tt.mutate(&in)
			_, err := Calculate(in)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}
