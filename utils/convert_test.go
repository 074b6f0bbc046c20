package utils

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/evmorb/evmorb/types"
)

func TestToWei(t *testing.T) {
	wei, err := ToWei(decimal.RequireFromString("1.234"), "ether")
	require.Nil(t, err)

	expected, _ := new(big.Int).SetString("1234000000000000000", 10)
	require.Equal(t, expected, wei)

	wei, err = ToWei(decimal.RequireFromString("5"), "gwei")
	require.Nil(t, err)
	require.Equal(t, big.NewInt(5_000_000_000), wei)

	wei, err = ToWei(decimal.Zero, "ether")
	require.Nil(t, err)
	require.Equal(t, big.NewInt(0), wei)
}

func TestToWei_RejectsWithValidationError(t *testing.T) {
	var validationErr *types.ValidationError

	_, err := ToWei(decimal.RequireFromString("-1"), "ether")
	require.ErrorAs(t, err, &validationErr)

	_, err = ToWei(decimal.RequireFromString("1"), "lovelace")
	require.ErrorAs(t, err, &validationErr)

	// Smaller than one wei.
	_, err = ToWei(decimal.RequireFromString("0.0000000000000000001"), "ether")
	require.ErrorAs(t, err, &validationErr)

	_, err = ToWei(decimal.RequireFromString("0.5"), "wei")
	require.ErrorAs(t, err, &validationErr)
}

func TestFromWei(t *testing.T) {
	wei, _ := new(big.Int).SetString("1234000000000000000", 10)
	ether, err := FromWei(wei, "ether")
	require.Nil(t, err)
	require.True(t, decimal.RequireFromString("1.234").Equal(ether))

	var validationErr *types.ValidationError

	_, err = FromWei(big.NewInt(-1), "ether")
	require.ErrorAs(t, err, &validationErr)

	_, err = FromWei(nil, "ether")
	require.ErrorAs(t, err, &validationErr)

	_, err = FromWei(big.NewInt(1), "lovelace")
	require.ErrorAs(t, err, &validationErr)
}

func TestWeiRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "1", "0.000000000000000001", "123456.789", "99.999999999999999999"} {
		amount := decimal.RequireFromString(s)

		wei, err := EtherToWei(amount)
		require.Nil(t, err)

		back, err := WeiToEther(wei)
		require.Nil(t, err)
		require.True(t, amount.Equal(back), "round trip mismatch for %s: got %s", s, back)
	}
}
