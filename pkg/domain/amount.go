package domain

import (
	"strings"

	"github.com/shopspring/decimal"

	dErrors "flightsurety/pkg/domain-errors"
)

// Amounts are whole wei held in decimal.Decimal: stakes of several ether overflow
// int64, and decimal keeps JSON and SQL encodings lossless.

// WeiPerEther is 10^18.
var WeiPerEther = decimal.New(1, 18)

// Wei returns an amount of n wei.
func Wei(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

// Ether converts a decimal ether string ("1", "0.6") into wei. It panics on malformed
// input and is meant for configuration defaults and tests.
func Ether(s string) decimal.Decimal {
	return decimal.RequireFromString(s).Mul(WeiPerEther).Truncate(0)
}

// ParseAmount parses a non-negative whole number of wei. A trailing " ether" suffix
// is accepted for configuration files ("10 ether").
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, dErrors.New(dErrors.CodeValidation, "amount is required")
	}
	unit := decimal.New(1, 0)
	if trimmed, ok := strings.CutSuffix(s, "ether"); ok {
		s = strings.TrimSpace(trimmed)
		unit = WeiPerEther
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, dErrors.New(dErrors.CodeValidation, "amount must be numeric")
	}
	d = d.Mul(unit)
	if d.IsNegative() {
		return decimal.Zero, dErrors.New(dErrors.CodeValidation, "amount must not be negative")
	}
	if !d.Equal(d.Truncate(0)) {
		return decimal.Zero, dErrors.New(dErrors.CodeValidation, "amount must be a whole number of wei")
	}
	return d, nil
}

// MulDivFloor returns floor(amount * num / den). den must be positive.
func MulDivFloor(amount decimal.Decimal, num, den int64) decimal.Decimal {
	q, _ := amount.Mul(decimal.NewFromInt(num)).QuoRem(decimal.NewFromInt(den), 0)
	return q
}
