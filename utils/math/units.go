package math

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ParseUnits converts a decimal string such as "1.5" into an integer amount
// with the given number of decimals. Amounts finer than one unit are rejected.
func ParseUnits(value string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	scaled := d.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("amount %q has more than %d decimals", value, decimals)
	}
	return scaled.BigInt(), nil
}

// FormatUnits renders an integer amount with the given number of decimals,
// without trailing zeros
func FormatUnits(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -decimals).String()
}

// FormatUnitsFixed renders an integer amount rounded to places decimal places
func FormatUnitsFixed(amount *big.Int, decimals, places int32) string {
	if amount == nil {
		amount = new(big.Int)
	}
	return decimal.NewFromBigInt(amount, -decimals).StringFixed(places)
}

// ToFloat converts an integer amount to an approximate float of whole units
func ToFloat(amount *big.Int, decimals int32) float64 {
	if amount == nil {
		return 0
	}
	return decimal.NewFromBigInt(amount, -decimals).InexactFloat64()
}
