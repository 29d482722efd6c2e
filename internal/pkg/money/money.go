// Package money validates ISO-4217 amounts and rounds them to the currency's
// minor unit.
package money

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Stored amounts are decimal(20,4): at most 16 integer digits and 4 decimals.
const (
	MaxScale         = 4
	MaxIntegerDigits = 16
)

// maxAmount is the first value that no longer fits the amount columns.
var maxAmount = decimal.New(1, MaxIntegerDigits)

var (
	ErrInvalidCurrency = errors.New("Currency must be an ISO-4217 code")
	ErrInvalidAmount   = errors.New("Amount must be a positive number in the currency's minor units")
)

// NormalizeCurrency upper-cases and validates an ISO-4217 code.
func NormalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", ErrInvalidCurrency
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", ErrInvalidCurrency
	}
	return unit.String(), nil
}

// MinorUnits returns the number of decimal places of the currency's standard
// rounding (2 for EUR, 0 for JPY).
func MinorUnits(code string) (int32, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return 0, ErrInvalidCurrency
	}
	scale, _ := currency.Standard.Rounding(unit)
	if scale > MaxScale {
		return 0, ErrInvalidCurrency
	}
	return int32(scale), nil
}

// ValidateAmount requires 0 < amount < 10^16 with no more fractional digits
// than the currency allows.
func ValidateAmount(amount decimal.Decimal, code string) error {
	scale, err := MinorUnits(code)
	if err != nil {
		return err
	}
	if !amount.IsPositive() || amount.GreaterThanOrEqual(maxAmount) {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(scale)) {
		return ErrInvalidAmount
	}
	return nil
}

// Round rounds amount half away from zero to the currency's minor unit.
func Round(amount decimal.Decimal, code string) (decimal.Decimal, error) {
	scale, err := MinorUnits(code)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Round(scale), nil
}

// ToMinor converts amount to an integer count of minor units (cents).
func ToMinor(amount decimal.Decimal, code string) (int64, error) {
	scale, err := MinorUnits(code)
	if err != nil {
		return 0, err
	}
	minor := amount.Shift(scale).Round(0)
	if minor.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || minor.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}
