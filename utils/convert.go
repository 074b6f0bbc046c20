package utils

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/evmorb/evmorb/types"
)

// Denomination exponents relative to wei. Amounts are only ever represented
// internally as integer wei; decimal values exist at the API boundary only.
var unitExponents = map[string]int32{
	"wei":    0,
	"kwei":   3,
	"mwei":   6,
	"gwei":   9,
	"szabo":  12,
	"finney": 15,
	"ether":  18,
}

// ToWei converts a decimal amount of the given unit to integer wei using
// exact decimal arithmetic. Negative amounts, unknown units and amounts that
// do not resolve to a whole number of wei are rejected with ValidationError.
func ToWei(amount decimal.Decimal, unit string) (*big.Int, error) {
	exp, ok := unitExponents[strings.ToLower(unit)]
	if !ok {
		return nil, types.NewValidationError("unit", "unknown denomination "+unit)
	}

	if amount.IsNegative() {
		return nil, types.NewValidationError("amount", "must not be negative, got "+amount.String())
	}

	shifted := amount.Shift(exp)
	if !shifted.IsInteger() {
		return nil, types.NewValidationError("amount",
			amount.String()+" "+unit+" is not a whole number of wei")
	}

	return shifted.BigInt(), nil
}

// FromWei converts an integer wei amount to a decimal value of the given
// unit. The conversion is exact; FromWei(ToWei(a, u), u) == a.
func FromWei(wei *big.Int, unit string) (decimal.Decimal, error) {
	exp, ok := unitExponents[strings.ToLower(unit)]
	if !ok {
		return decimal.Zero, types.NewValidationError("unit", "unknown denomination "+unit)
	}

	if wei == nil {
		return decimal.Zero, types.NewValidationError("amount", "wei amount must not be nil")
	}
	if wei.Sign() < 0 {
		return decimal.Zero, types.NewValidationError("amount",
			"wei amount must not be negative, got "+wei.String())
	}

	return decimal.NewFromBigInt(wei, -exp), nil
}

// EtherToWei converts a decimal ether amount to integer wei.
func EtherToWei(amount decimal.Decimal) (*big.Int, error) {
	return ToWei(amount, "ether")
}

// WeiToEther converts an integer wei amount to decimal ether.
func WeiToEther(wei *big.Int) (decimal.Decimal, error) {
	return FromWei(wei, "ether")
}
