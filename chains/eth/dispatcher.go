package eth

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/golang/groupcache/lru"

	"github.com/evmorb/evmorb/database"
	"github.com/evmorb/evmorb/log"
	"github.com/evmorb/evmorb/types"
)

const TxTrackCacheSize = 1_000

// Dispatcher submits signed transactions after preflight checks and records
// every broadcast attempt, keyed by (sender, nonce), so a prior submission
// can be found after an ambiguous failure. Submissions are never retried
// automatically.
type Dispatcher struct {
	chain  string
	client EthClient
	db     database.Database // optional, nil disables persistent records

	lock         *sync.Mutex
	txTrackCache *lru.Cache
}

func NewDispatcher(chain string, client EthClient, db database.Database) *Dispatcher {
	return &Dispatcher{
		chain:        chain,
		client:       client,
		db:           db,
		lock:         &sync.Mutex{},
		txTrackCache: lru.New(TxTrackCacheSize),
	}
}

// Dispatch broadcasts a signed transaction. It checks the sender's balance
// and pending nonce first so that obviously doomed submissions fail with a
// typed error before touching the mempool.
func (d *Dispatcher) Dispatch(ctx context.Context, tx *ethtypes.Transaction, from common.Address) error {
	balance, err := d.client.BalanceAt(ctx, from, nil)
	if err != nil {
		return types.NewRpcError("eth_getBalance", err)
	}
	if balance == nil {
		return types.NewRpcError("eth_getBalance", fmt.Errorf("no balance returned for %s", from))
	}

	minimum := new(big.Int).Mul(tx.GasPrice(), big.NewInt(int64(tx.Gas())))
	minimum = minimum.Add(minimum, tx.Value())
	if minimum.Cmp(balance) > 0 {
		return &types.InsufficientFundsError{
			Sender:   from.Hex(),
			Balance:  balance.String(),
			Required: minimum.String(),
		}
	}

	// The nonce must match the endpoint's pending count at dispatch time.
	nonce, err := d.client.PendingNonceAt(ctx, from)
	if err != nil {
		return types.NewRpcError("eth_getTransactionCount", err)
	}
	if nonce != tx.Nonce() {
		return &types.InvalidNonceError{
			Sender:   from.Hex(),
			TxNonce:  tx.Nonce(),
			Expected: nonce,
		}
	}

	// Record before broadcasting: if the send times out after reaching the
	// mempool, the caller can still recover the hash.
	d.track(from, tx.Nonce(), tx.Hash())

	err = d.client.SendTransaction(ctx, tx)
	if err == nil {
		log.Verbose("Tx dispatched for chain ", d.chain, ", from = ", from.Hex(),
			", txHash = ", tx.Hash().Hex())
		return nil
	}

	// Ethereum does not return error codes over JSON RPC, so classification
	// relies on string matching.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "already known"):
		// Duplicate submission, possibly by another party. The tx is in the
		// mempool, so this counts as success.
		return nil
	case strings.Contains(msg, "insufficient funds"):
		return &types.InsufficientFundsError{Sender: from.Hex(), Balance: balance.String(), Required: minimum.String()}
	case strings.Contains(msg, "nonce too low"), strings.Contains(msg, "replacement transaction underpriced"):
		return &types.InvalidNonceError{Sender: from.Hex(), TxNonce: tx.Nonce(), Expected: nonce}
	default:
		log.Error("Failed to dispatch tx, err = ", err)
		return types.NewRpcError("eth_sendRawTransaction", err)
	}
}

func (d *Dispatcher) track(from common.Address, nonce uint64, hash common.Hash) {
	rec := &types.TxRecord{
		Chain:  d.chain,
		Sender: strings.ToLower(from.Hex()),
		Nonce:  nonce,
		TxHash: hash.Hex(),
		Status: types.TxRecordSubmitted,
	}

	d.lock.Lock()
	d.txTrackCache.Add(trackKey(rec.Sender, nonce), rec)
	d.lock.Unlock()

	if d.db != nil {
		if err := d.db.SaveTxRecord(rec); err != nil {
			log.Error("Failed to save tx record, err = ", err)
		}
	}
}

// PriorSubmission returns the record of an earlier broadcast with the same
// sender and nonce, or nil if none is known.
func (d *Dispatcher) PriorSubmission(sender string, nonce uint64) (*types.TxRecord, error) {
	key := trackKey(strings.ToLower(sender), nonce)

	d.lock.Lock()
	cached, ok := d.txTrackCache.Get(key)
	d.lock.Unlock()
	if ok {
		return cached.(*types.TxRecord), nil
	}

	if d.db == nil {
		return nil, nil
	}

	return d.db.LoadTxRecord(d.chain, strings.ToLower(sender), nonce)
}

// MarkConfirmed updates the stored record once the caller has seen a receipt.
func (d *Dispatcher) MarkConfirmed(txHash string, success bool) {
	if d.db == nil {
		return
	}

	status := types.TxRecordConfirmed
	if !success {
		status = types.TxRecordFailed
	}

	if err := d.db.UpdateTxStatus(d.chain, txHash, status); err != nil {
		log.Error("Failed to update tx record status, err = ", err)
	}
}

func trackKey(sender string, nonce uint64) lru.Key {
	return fmt.Sprintf("%s/%d", sender, nonce)
}
