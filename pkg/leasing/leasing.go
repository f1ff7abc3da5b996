// Package leasing compares the after-tax present value cost of buying an
// asset with a loan against leasing it.
package leasing

import (
	"fmt"

	"github.com/iwvelando/bizcalc/internal/baseline"
	"github.com/iwvelando/bizcalc/pkg/constants"
	"github.com/iwvelando/bizcalc/pkg/loans"
	"github.com/iwvelando/bizcalc/pkg/mathutil"
	"github.com/iwvelando/bizcalc/pkg/report"
	"github.com/iwvelando/bizcalc/pkg/validation"
	"go.uber.org/zap"
)

// Name identifies the calculator.
const Name = "leasing"

// Recommendations.
const (
	RecommendBuy   = "buy"
	RecommendLease = "lease"
)

// Input describes both financing options. A zero DiscountRate means the
// after-tax loan rate.
type Input struct {
	AssetCost              float64 `json:"assetCost" yaml:"assetCost" validate:"gt=0" label:"Asset cost"`
	DownPayment            float64 `json:"downPayment" yaml:"downPayment" validate:"gte=0" label:"Down payment"`
	LoanRate               float64 `json:"loanRate" yaml:"loanRate" validate:"gte=0,lte=100" label:"Loan rate (%)"`
	TermMonths             int     `json:"termMonths" yaml:"termMonths" validate:"gte=1,lte=600" label:"Term (months)"`
	ExtraPrincipal         float64 `json:"extraPrincipal" yaml:"extraPrincipal" validate:"gte=0" label:"Extra monthly principal"`
	ResidualValue          float64 `json:"residualValue" yaml:"residualValue" validate:"gte=0" label:"Residual value at end of term"`
	LeasePayment           float64 `json:"leasePayment" yaml:"leasePayment" validate:"gte=0" label:"Monthly lease payment"`
	LeaseUpfront           float64 `json:"leaseUpfront" yaml:"leaseUpfront" validate:"gte=0" label:"Lease fees at signing"`
	LeasePaymentsInAdvance bool    `json:"leasePaymentsInAdvance" yaml:"leasePaymentsInAdvance" label:"Lease paid in advance"`
	TaxRate                float64 `json:"taxRate" yaml:"taxRate" validate:"gte=0,lt=100" label:"Tax rate (%)"`
	DiscountRate           float64 `json:"discountRate" yaml:"discountRate" validate:"gte=0,lte=100" label:"Discount rate (%, 0 = after-tax loan rate)"`
}

// Result holds both present value costs.
type Result struct {
	Input                 Input
	DiscountRate          float64
	MonthlyLoanPayment    float64
	TotalLoanPayments     float64
	TotalInterest         float64
	PayoffMonth           int
	MonthlyDepreciation   float64
	PVBorrow              float64
	PVLease               float64
	NetAdvantageToLeasing float64
	Recommendation        string
	Schedule              []loans.Payment
	CumulativeBorrow      []float64
	CumulativeLease       []float64
}

// DefaultInput seeds the tax rate from the baseline and prices a typical
// five-year equipment deal.
func DefaultInput(p baseline.Params) Input {
	return Input{
		AssetCost:              50000,
		DownPayment:            10000,
		LoanRate:               7,
		TermMonths:             60,
		ResidualValue:          15000,
		LeasePayment:           750,
		LeaseUpfront:           1000,
		LeasePaymentsInAdvance: true,
		TaxRate:                p.TaxRate,
	}
}

// Calculate runs the comparison without logging.
func Calculate(in Input) (Result, error) {
	return CalculateWithLogger(zap.NewNop(), in)
}

// CalculateWithLogger discounts monthly after-tax cash flows of both options.
// Borrowing pays the down payment now, then loan payments less the tax shield
// on interest and straight-line depreciation, and recovers the residual value
// at the end of the term. Leasing pays after-tax fees and lease payments.
func CalculateWithLogger(logger *zap.Logger, in Input) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := validation.Struct(in); err != nil {
		return Result{}, err
	}
	if in.DownPayment > in.AssetCost {
		return Result{}, validation.NewFieldError("downPayment", "must not exceed assetCost (%.2f)", in.AssetCost)
	}
	if in.ResidualValue > in.AssetCost {
		return Result{}, validation.NewFieldError("residualValue", "must not exceed assetCost (%.2f)", in.AssetCost)
	}

	generator := loans.NewAmortizationScheduleGenerator(logger)
	schedule, err := generator.GenerateSchedule(loans.LoanConfig{
		Name:                  "asset purchase",
		Principal:             in.AssetCost,
		DownPayment:           in.DownPayment,
		InterestRate:          in.LoanRate,
		Term:                  in.TermMonths,
		ExtraMonthlyPrincipal: in.ExtraPrincipal,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to build loan schedule: %w", err)
	}

	tax := mathutil.Fraction(in.TaxRate)
	res := Result{
		Input:               in,
		DiscountRate:        in.DiscountRate,
		MonthlyLoanPayment:  loans.CalculateMonthlyPayment(in.AssetCost, in.DownPayment, in.LoanRate, in.TermMonths),
		MonthlyDepreciation: (in.AssetCost - in.ResidualValue) / float64(in.TermMonths),
		Schedule:            schedule,
		PayoffMonth:         len(schedule),
	}
	if res.DiscountRate == 0 {
		res.DiscountRate = in.LoanRate * (1 - tax)
	}
	res.TotalLoanPayments, res.TotalInterest = loans.Totals(schedule)
	monthlyRate := res.DiscountRate / (constants.PercentageMultiplier * constants.MonthsPerYear)

	res.CumulativeBorrow = make([]float64, in.TermMonths+1)
	res.CumulativeLease = make([]float64, in.TermMonths+1)

	borrow := in.DownPayment
	lease := in.LeaseUpfront * (1 - tax)
	if in.LeasePaymentsInAdvance {
		lease += in.LeasePayment * (1 - tax)
	}
	res.CumulativeBorrow[0] = borrow
	res.CumulativeLease[0] = lease

	for month := 1; month <= in.TermMonths; month++ {
		df := mathutil.DiscountFactor(monthlyRate, float64(month))

		var payment, interest float64
		if month <= len(schedule) {
			payment = schedule[month-1].Payment
			interest = schedule[month-1].Interest
		}
		borrow += (payment - tax*(interest+res.MonthlyDepreciation)) * df
		if month == in.TermMonths {
			borrow -= in.ResidualValue * df
		}

		if in.LeasePaymentsInAdvance {
			if month < in.TermMonths {
				lease += in.LeasePayment * (1 - tax) * df
			}
		} else {
			lease += in.LeasePayment * (1 - tax) * df
		}

		res.CumulativeBorrow[month] = borrow
		res.CumulativeLease[month] = lease
	}

	res.PVBorrow = borrow
	res.PVLease = lease
	res.NetAdvantageToLeasing = res.PVBorrow - res.PVLease
	res.Recommendation = RecommendBuy
	if res.NetAdvantageToLeasing > 0 {
		res.Recommendation = RecommendLease
	}

	logger.Debug("compared loan and lease",
		zap.String("op", "leasing.Calculate"),
		zap.Float64("pvBorrow", res.PVBorrow),
		zap.Float64("pvLease", res.PVLease),
		zap.String("recommendation", res.Recommendation),
	)
	return res, nil
}

// Report renders the result.
func (r Result) Report() report.Report {
	rep := report.New(Name, "Loan vs lease")
	rep.Add("monthlyLoanPayment", "Monthly loan payment", r.MonthlyLoanPayment, report.UnitCurrency).
		Add("totalLoanPayments", "Total loan payments", r.TotalLoanPayments, report.UnitCurrency).
		Add("totalInterest", "Total interest", r.TotalInterest, report.UnitCurrency).
		Add("payoffMonth", "Loan paid off in", float64(r.PayoffMonth), report.UnitMonths).
		Add("monthlyDepreciation", "Monthly depreciation", r.MonthlyDepreciation, report.UnitCurrency).
		Add("discountRate", "Discount rate", r.DiscountRate, report.UnitPercent).
		Add("pvBorrow", "PV cost of buying", r.PVBorrow, report.UnitCurrency).
		Add("pvLease", "PV cost of leasing", r.PVLease, report.UnitCurrency).
		Add("netAdvantageToLeasing", "Net advantage to leasing", r.NetAdvantageToLeasing, report.UnitCurrency)

	if r.Recommendation == RecommendLease {
		rep.Note("Lease: it costs %.2f less in present value terms.", r.NetAdvantageToLeasing)
	} else {
		rep.Note("Buy with the loan: it costs %.2f less in present value terms.", -r.NetAdvantageToLeasing)
	}

	table := &report.Table{Columns: []string{"month", "payment", "principal", "interest", "remainingPrincipal"}}
	for _, p := range r.Schedule {
		table.Rows = append(table.Rows, []float64{float64(p.Month), p.Payment, p.Principal, p.Interest, p.RemainingPrincipal})
	}
	rep.Table = table

	months := make([]float64, len(r.CumulativeBorrow))
	for i := range months {
		months[i] = float64(i)
	}
	rep.Chart = &report.Chart{
		Title:  "Cumulative present value cost",
		XLabel: "Month",
		YLabel: "PV cost",
		X:      months,
		Series: []report.Series{
			{Name: "Buy", Values: r.CumulativeBorrow},
			{Name: "Lease", Values: r.CumulativeLease},
		},
	}
	return *rep
}
