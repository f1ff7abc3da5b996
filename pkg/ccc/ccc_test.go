package ccc

import (
	"testing"

	"github.com/iwvelando/bizcalc/internal/baseline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateDefaults(t *testing.T) {
	res, err := Calculate(DefaultInput(baseline.Defaults()))
	require.NoError(t, err)

	assert.InDelta(t, 45, res.DIO, 1e-9)
	assert.InDelta(t, 30, res.DSO, 1e-9)
	assert.InDelta(t, 30, res.DPO, 1e-9)
	assert.InDelta(t, 45, res.CCC, 1e-9)
	assert.InDelta(t, 500000.0/365*45, res.CashTiedUp, 1e-6)
	assert.InDelta(t, 500000.0/365*45*0.10, res.FinancingCost, 1e-6)
	assert.Equal(t, "moderate", res.Assessment)
}

func TestCalculateNegativeCycle(t *testing.T) {
	in := Input{
		AnnualRevenue:      3650,
		COGS:               3650,
		AverageInventory:   50,
		AverageReceivables: 20,
		AveragePayables:    300,
		DaysInYear:         365,
		WACC:               10,
	}

	res, err := Calculate(in)
	require.NoError(t, err)
	assert.InDelta(t, 5, res.DIO, 1e-9)
	assert.InDelta(t, 2, res.DSO, 1e-9)
	assert.InDelta(t, 30, res.DPO, 1e-9)
	assert.InDelta(t, -23, res.CCC, 1e-9)
	assert.InDelta(t, -230, res.CashTiedUp, 1e-9)
	assert.Equal(t, "negative", res.Assessment)

	rep := res.Report()
	require.NoError(t, rep.Validate())
	assert.Contains(t, rep.Summary[0], "suppliers finance operations")
}

func TestAssess(t *testing.T) {
	tests := []struct {
		days     float64
		expected string
	}{
		{-1, "negative"},
		{0, "efficient"},
		{30, "efficient"},
		{30.1, "moderate"},
		{90, "moderate"},
		{91, "long"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Assess(tt.days), "days=%v", tt.days)
	}
}

func TestCalculateRejectsZeroFlows(t *testing.T) {
	in := DefaultInput(baseline.Defaults())
	in.AnnualRevenue = 0
	_, err := Calculate(in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "annualRevenue")

	in = DefaultInput(baseline.Defaults())
	in.COGS = 0
	_, err = Calculate(in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cogs")

	in = DefaultInput(baseline.Defaults())
	in.DaysInYear = 100
	_, err = Calculate(in)
	assert.Error(t, err)
}
