package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an amount in major currency units as it crosses the API
// boundary. Storage and arithmetic use int64 minor units only.
type Money struct {
	Currency string
	Amount   decimal.Decimal
}

// MinorUnits converts the amount into minor units under the given exponent.
// Amounts with more fractional digits than the currency supports are
// rejected rather than rounded.
func (m Money) MinorUnits(exponent int32) (int64, error) {
	scaled := m.Amount.Shift(exponent)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("amount %s has more than %d decimal places: %w",
			m.Amount.String(), exponent, ErrAmountScale)
	}
	if !scaled.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %s out of range", m.Amount.String())
	}
	return scaled.IntPart(), nil
}

// MoneyFromMinorUnits is the inverse of MinorUnits.
func MoneyFromMinorUnits(code string, minor int64, exponent int32) Money {
	return Money{
		Currency: code,
		Amount:   decimal.New(minor, -exponent),
	}
}
