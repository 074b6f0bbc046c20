package types

import "math/big"

// EventQuery selects contract events. FromBlock/ToBlock are optional; a nil
// ToBlock means "latest" for historical queries and "keep following the head"
// for subscriptions.
type EventQuery struct {
	ContractAddress string
	ABI             string
	EventName       string

	FromBlock *big.Int
	ToBlock   *big.Int
}

// Event is a single decoded contract event.
type Event struct {
	Name        string
	Contract    string
	TxHash      string
	BlockNumber uint64
	LogIndex    uint
	// Args maps event input names to decoded values. Unnamed inputs use
	// positional keys ("arg0", "arg1", ...).
	Args map[string]interface{}
}
