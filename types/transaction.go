package types

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// TxRequest describes a value transfer to be signed and submitted. Optional
// fields are pointers: nil means "resolve from the endpoint at submission
// time" (nonce, gas price, gas limit, chain id), never an implicit sentinel.
type TxRequest struct {
	From        string
	To          string
	AmountEther decimal.Decimal
	PrivateKey  string // hex encoded, never logged or persisted

	GasLimit *uint64
	GasPrice *big.Int
	Nonce    *uint64
	ChainID  *big.Int
	Data     []byte
}

// DeployRequest describes a contract deployment. The payload submitted on
// chain is the bytecode followed by the packed constructor arguments.
type DeployRequest struct {
	Contract   ContractDescriptor
	From       string
	PrivateKey string

	ConstructorArgs []interface{}

	GasLimit *uint64
	GasPrice *big.Int
	Nonce    *uint64
	ChainID  *big.Int
}

// ContractDescriptor carries the deployable/callable form of a contract.
// Both fields are required and validated at construction, not at call time.
type ContractDescriptor struct {
	Bytecode []byte
	ABI      string // JSON ABI
}

// Transaction is the read model returned by transaction lookups.
type Transaction struct {
	Hash        string
	From        string
	To          string
	ValueWei    *big.Int
	Nonce       uint64
	GasLimit    uint64
	GasPrice    *big.Int
	Data        []byte
	Pending     bool
	BlockNumber *big.Int
}

// Receipt is the read model returned by receipt lookups.
type Receipt struct {
	TxHash          string
	Success         bool
	BlockNumber     *big.Int
	BlockHash       string
	GasUsed         uint64
	ContractAddress string // set for deployments only
}

// TxRecord is what the dispatcher persists for every broadcast attempt so
// that a caller hitting an ambiguous failure (e.g. timeout after submission)
// can look up the original hash instead of blind-resubmitting.
type TxRecord struct {
	Chain  string
	Sender string
	Nonce  uint64
	TxHash string
	Status TxRecordStatus
}

type TxRecordStatus int

const (
	TxRecordSubmitted TxRecordStatus = iota
	TxRecordConfirmed
	TxRecordFailed
)
