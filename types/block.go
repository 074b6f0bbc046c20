package types

import "math/big"

// BlockID identifies a block either by height or by hash. Exactly one of the
// two should be set; the zero value means "latest".
type BlockID struct {
	Number *big.Int
	Hash   string
}

func BlockByNumber(n int64) BlockID {
	return BlockID{Number: big.NewInt(n)}
}

func BlockByHash(hash string) BlockID {
	return BlockID{Hash: hash}
}

// Latest selects the head block.
func LatestBlock() BlockID {
	return BlockID{}
}

// Block is the read model returned by block lookups.
type Block struct {
	Number       *big.Int
	Hash         string
	ParentHash   string
	Time         uint64
	GasLimit     uint64
	GasUsed      uint64
	BaseFee      *big.Int
	Miner        string
	Transactions []string // tx hashes, in block order
}
