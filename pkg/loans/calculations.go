// Package loans provides loan amortization utilities.
package loans

import (
	"fmt"
	"math"

	"github.com/iwvelando/bizcalc/pkg/constants"
	"github.com/iwvelando/bizcalc/pkg/mathutil"
	"go.uber.org/zap"
)

// Payment holds the values for a given payment.
type Payment struct {
	Month              int
	Payment            float64
	Principal          float64
	Interest           float64
	RemainingPrincipal float64
}

// CalculateMonthlyPayment calculates the monthly payment for a loan using the standard amortization formula.
func CalculateMonthlyPayment(principal, downPayment, annualInterestRate float64, termMonths int) float64 {
	if termMonths <= 0 {
		return 0
	}
	if annualInterestRate == 0 {
		// For zero interest, simply divide the principal by term
		return (principal - downPayment) / float64(termMonths)
	}

	periodicInterestRate := annualInterestRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
	power := math.Pow((1.00 + periodicInterestRate), float64(termMonths))
	discountFactor := (power - 1.00) / power
	return (principal - downPayment) * periodicInterestRate / discountFactor
}

// CalculateInterestPayment calculates the interest portion of a payment.
func CalculateInterestPayment(remainingPrincipal, annualInterestRate float64) float64 {
	return remainingPrincipal * annualInterestRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
}

// LoanConfig represents loan configuration parameters.
type LoanConfig struct {
	Name                  string
	Principal             float64
	DownPayment           float64
	InterestRate          float64
	Term                  int
	ExtraMonthlyPrincipal float64
}

// AmortizationScheduleGenerator provides utilities for generating loan amortization schedules
type AmortizationScheduleGenerator struct {
	logger *zap.Logger
}

// NewAmortizationScheduleGenerator creates a new generator instance
func NewAmortizationScheduleGenerator(logger *zap.Logger) *AmortizationScheduleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AmortizationScheduleGenerator{logger: logger}
}

// GenerateSchedule creates a month-by-month amortization schedule. Month 1 is
// the first payment; the down payment is not part of the schedule. The
// schedule ends early when extra principal retires the loan before the term.
func (g *AmortizationScheduleGenerator) GenerateSchedule(loan LoanConfig) ([]Payment, error) {
	if loan.Term <= 0 {
		return nil, fmt.Errorf("loan %s: term must be positive, got %d", loan.Name, loan.Term)
	}
	financed := loan.Principal - loan.DownPayment
	if financed < 0 {
		return nil, fmt.Errorf("loan %s: down payment %.2f exceeds principal %.2f", loan.Name, loan.DownPayment, loan.Principal)
	}

	monthlyPayment := CalculateMonthlyPayment(loan.Principal, loan.DownPayment, loan.InterestRate, loan.Term)
	schedule := make([]Payment, 0, loan.Term)
	balance := financed

	for month := 1; month <= loan.Term && balance > 0; month++ {
		var current Payment
		current.Month = month
		current.Interest = CalculateInterestPayment(balance, loan.InterestRate)
		scheduledPrincipal := monthlyPayment - current.Interest

		extraPrincipal := CalculateExtraPrincipalWithOverpaymentPrevention(
			g.logger, loan.ExtraMonthlyPrincipal, month, balance-scheduledPrincipal, loan.Name)

		current.Principal = scheduledPrincipal + extraPrincipal
		current.Payment = monthlyPayment + extraPrincipal

		if month == loan.Term || mathutil.Round(balance-current.Principal) == 0 {
			// We will get machine error otherwise so absorb the residue into the
			// final payment.
			current.Principal = balance
			current.Payment = balance + current.Interest
			current.RemainingPrincipal = 0.00
			schedule = append(schedule, current)
			if month < loan.Term {
				g.logger.Debug(fmt.Sprintf("loan %s retired early in month %d of %d", loan.Name, month, loan.Term),
					zap.String("op", "loans.GenerateSchedule"),
				)
			}
			break
		}

		current.RemainingPrincipal = balance - current.Principal
		balance = current.RemainingPrincipal
		schedule = append(schedule, current)
	}

	return schedule, nil
}

// CalculateExtraPrincipalWithOverpaymentPrevention caps an extra principal
// payment to the balance left after the scheduled principal.
func CalculateExtraPrincipalWithOverpaymentPrevention(
	logger *zap.Logger, extra float64, month int, remainingAfterScheduled float64, loanName string,
) float64 {
	if extra <= 0 {
		return 0
	}
	if remainingAfterScheduled < 0 {
		remainingAfterScheduled = 0
	}
	if extra > remainingAfterScheduled {
		if logger != nil {
			logger.Debug("Capping extra principal payment to prevent overpayment",
				zap.Int("month", month),
				zap.String("loan", loanName),
				zap.Float64("requested", extra),
				zap.Float64("capped_to_balance", remainingAfterScheduled))
		}
		return remainingAfterScheduled
	}
	return extra
}

// Totals sums payments and interest over a schedule.
func Totals(schedule []Payment) (payments, interest float64) {
	for _, p := range schedule {
		payments += p.Payment
		interest += p.Interest
	}
	return payments, interest
}
