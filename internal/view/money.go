package view

import "github.com/shopspring/decimal"

// FormatTotal renders a total with two decimals, e.g. 15.5 -> "15.50".
func FormatTotal(total float64) string {
	return decimal.NewFromFloat(total).StringFixed(2)
}
