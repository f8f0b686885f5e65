package domain

import (
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places money amounts carry (cents).
const MoneyPlaces int32 = 2

// DefaultBidIncrement applies when an auction is created without one.
var DefaultBidIncrement = decimal.RequireFromString("1.00")

// IsMoney reports whether d is a non-negative amount with at most two decimals.
func IsMoney(d decimal.Decimal) bool {
	if d.IsNegative() {
		return false
	}
	return d.Equal(d.Truncate(MoneyPlaces))
}

// NullMoney wraps d as a set nullable amount.
func NullMoney(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
