package eth

import (
	"crypto/ecdsa"
	"math/big"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// signTx signs with the most recent signer supported for the chain id, which
// covers legacy, EIP-155 and typed transactions.
func signTx(tx *ethtypes.Transaction, chainID *big.Int, key *ecdsa.PrivateKey) (*ethtypes.Transaction, error) {
	return ethtypes.SignTx(tx, ethtypes.LatestSignerForChainID(chainID), key)
}
