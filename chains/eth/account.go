package eth

import (
	"encoding/hex"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/evmorb/evmorb/types"
)

// GenerateAccount creates a new secp256k1 key pair from the system's secure
// random source. The private key is returned to the caller and held nowhere
// else; it is never logged or persisted.
func GenerateAccount() (*types.Account, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}

	return &types.Account{
		Address:    crypto.PubkeyToAddress(key.PublicKey).Hex(),
		PrivateKey: hex.EncodeToString(crypto.FromECDSA(key)),
	}, nil
}
