package utils

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ParseAmount reads a required currency amount sent as a JSON number or
// string and rounds it to cents. field names the input in the error.
func ParseAmount(field string, raw decimal.NullDecimal) (decimal.Decimal, error) {
	if !raw.Valid {
		return decimal.Zero, fmt.Errorf("%s is required", field)
	}
	return raw.Decimal.Round(2), nil
}

// FormatAmount renders an amount with two decimals and the currency code.
func FormatAmount(amount decimal.Decimal, currency string) string {
	return amount.StringFixed(2) + " " + currency
}
