package eth

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/evmorb/evmorb/utils"
)

func TestGenerateAccount(t *testing.T) {
	account, err := GenerateAccount()
	require.Nil(t, err)

	require.True(t, utils.IsValidAddress(account.Address))

	// The private key must derive back to the returned address.
	key, err := utils.PrivateKeyFromHex(account.PrivateKey)
	require.Nil(t, err)
	require.Equal(t, account.Address, crypto.PubkeyToAddress(key.PublicKey).Hex())
}

func TestGenerateAccount_Unique(t *testing.T) {
	a, err := GenerateAccount()
	require.Nil(t, err)
	b, err := GenerateAccount()
	require.Nil(t, err)

	require.NotEqual(t, a.Address, b.Address)
	require.NotEqual(t, a.PrivateKey, b.PrivateKey)
}
