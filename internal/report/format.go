package report

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// HumanDateLayout is the date form printed on statements.
const HumanDateLayout = "Jan 02, 2006"

// roundCents rounds a dollar or kWh figure to 2 places. Only presentation
// code calls this; totals are summed unrounded first.
func roundCents(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value).Round(2)
}

// formatCents renders value with exactly 2 decimals.
func formatCents(value float64) string {
	return roundCents(value).StringFixed(2)
}

// centsValue is the rounded figure as a float for spreadsheet cells.
func centsValue(value float64) float64 {
	return roundCents(value).InexactFloat64()
}

// formatRate renders a rate the way the operator entered it.
func formatRate(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// formatRateDifference renders the per-kWh subsidy to at most 5 places.
func formatRateDifference(value float64) string {
	return decimal.NewFromFloat(value).Round(5).String()
}

// formatFloat renders a full-precision value for data tables.
func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
