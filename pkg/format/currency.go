// Package format renders numbers for human-readable output.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	formatted := formatPositive(math.Abs(amount), 2)
	if amount < 0 && formatted != "0.00" {
		return "-$" + formatted
	}
	return "$" + formatted
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	return Number(amount, 2)
}

// Number returns a value with thousands separators and the given number of decimals.
func Number(amount float64, places int32) string {
	formatted := formatPositive(math.Abs(amount), places)
	if amount < 0 && strings.Trim(formatted, "0.,") != "" {
		return "-" + formatted
	}
	return formatted
}

// Percent renders a percentage value (12.5 -> "12.50%").
func Percent(value float64) string {
	return Number(value, 2) + "%"
}

// Days renders a day count with one decimal ("45.3 days").
func Days(value float64) string {
	return Number(value, 1) + " days"
}

// Months renders a month count with one decimal ("14.2 months").
func Months(value float64) string {
	return Number(value, 1) + " months"
}

// Units renders a unit quantity with two decimals ("5,000.00 units").
func Units(value float64) string {
	return Number(value, 2) + " units"
}

// Ratio renders a multiple ("3.25x").
func Ratio(value float64) string {
	return Number(value, 2) + "x"
}

func formatPositive(value float64, places int32) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Sprintf("%v", value)
	}
	formatted := decimal.NewFromFloat(value).StringFixed(places)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	if len(parts) == 2 {
		return intPart + "." + parts[1]
	}
	return intPart
}
