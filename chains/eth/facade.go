package eth

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"go.uber.org/atomic"

	"github.com/evmorb/evmorb/config"
	"github.com/evmorb/evmorb/database"
	"github.com/evmorb/evmorb/network"
	"github.com/evmorb/evmorb/types"
	"github.com/evmorb/evmorb/utils"
)

// Facade is the typed entry point over one Ethereum-compatible endpoint
// group. It validates inputs, resolves omitted transaction parameters from
// the endpoint and converts between ether and wei at the boundary. Amounts
// are handled internally only as integer wei.
//
// A Facade is safe for concurrent use; it holds no per-call mutable state.
type Facade struct {
	cfg        config.Chain
	client     EthClient
	gas        *gasOracle
	dispatcher *Dispatcher

	connected *atomic.Bool
}

// Connect dials the chain's rpc endpoints and returns a ready facade. The
// record store db may be nil, which disables persistent submission records.
func Connect(ctx context.Context, cfg config.Chain, db database.Database) (*Facade, error) {
	client := NewEthClient(cfg, network.NewHttp())
	if err := client.(*defaultEthClient).Dial(ctx); err != nil {
		return nil, types.NewConnectionError(cfg.Chain, err)
	}
	client.Start()

	return NewFacade(cfg, client, db), nil
}

// NewFacade wires a facade around an already constructed client. Used by
// Connect and by tests.
func NewFacade(cfg config.Chain, client EthClient, db database.Database) *Facade {
	f := &Facade{
		cfg:        cfg,
		client:     client,
		gas:        newGasOracle(cfg, client),
		dispatcher: NewDispatcher(cfg.Chain, client, db),
		connected:  atomic.NewBool(true),
	}

	return f
}

// Close disconnects the facade. Further operations fail with
// NotConnectedError.
func (f *Facade) Close() {
	if f.connected.CAS(true, false) {
		f.client.Close()
	}
}

func (f *Facade) requireConnected(op string) error {
	if !f.connected.Load() {
		return types.NewNotConnectedError(op)
	}

	return nil
}

// opCtx applies the configured per-call timeout unless the caller already
// set a deadline.
func (f *Facade) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, time.Duration(f.cfg.RpcTimeoutMs)*time.Millisecond)
}

// IsValidAddress is a pure format/checksum check, no network call.
func (f *Facade) IsValidAddress(address string) bool {
	return utils.IsValidAddress(address)
}

// GenerateAccount creates a fresh address/private key pair.
func (f *Facade) GenerateAccount() (*types.Account, error) {
	return GenerateAccount()
}

// GetBalance returns the address balance in ether.
func (f *Facade) GetBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	if err := f.requireConnected("GetBalance"); err != nil {
		return decimal.Zero, err
	}
	addr, err := parseAddress(address)
	if err != nil {
		return decimal.Zero, err
	}

	ctx, cancel := f.opCtx(ctx)
	defer cancel()

	balance, err := f.client.BalanceAt(ctx, addr, nil)
	if err != nil {
		return decimal.Zero, types.NewRpcError("eth_getBalance", err)
	}

	ether, err := utils.WeiToEther(balance)
	if err != nil {
		return decimal.Zero, err
	}

	return ether, nil
}

// SendTransaction signs and submits a value transfer. Omitted nonce, gas
// price, gas limit and chain id are resolved from the endpoint; nonce and
// chain id are always fetched fresh to rule out replay across calls or
// networks.
func (f *Facade) SendTransaction(ctx context.Context, req *types.TxRequest) (string, error) {
	if err := f.requireConnected("SendTransaction"); err != nil {
		return "", err
	}

	from, err := parseAddress(req.From)
	if err != nil {
		return "", err
	}
	to, err := parseAddress(req.To)
	if err != nil {
		return "", err
	}

	amountWei, err := utils.EtherToWei(req.AmountEther)
	if err != nil {
		return "", err
	}

	key, err := utils.PrivateKeyFromHex(req.PrivateKey)
	if err != nil {
		return "", types.NewValidationError("private key", err.Error())
	}
	if crypto.PubkeyToAddress(key.PublicKey) != from {
		return "", types.NewValidationError("private key", "does not belong to the sender address")
	}

	ctx, cancel := f.opCtx(ctx)
	defer cancel()

	params, err := f.resolveTxParams(ctx, from, &to, amountWei, req.Data, txOptions{
		gasLimit: req.GasLimit,
		gasPrice: req.GasPrice,
		nonce:    req.Nonce,
		chainID:  req.ChainID,
	})
	if err != nil {
		return "", err
	}

	tx := ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    params.nonce,
		To:       &to,
		Value:    amountWei,
		Gas:      params.gasLimit,
		GasPrice: params.gasPrice,
		Data:     req.Data,
	})

	signed, err := signTx(tx, params.chainID, key)
	if err != nil {
		return "", types.NewValidationError("transaction", err.Error())
	}

	if err := f.dispatcher.Dispatch(ctx, signed, from); err != nil {
		return "", err
	}

	return signed.Hash().Hex(), nil
}

// DeployContract submits a contract creation transaction. The payload is the
// bytecode followed by the packed constructor arguments.
func (f *Facade) DeployContract(ctx context.Context, req *types.DeployRequest) (string, error) {
	if err := f.requireConnected("DeployContract"); err != nil {
		return "", err
	}

	from, err := parseAddress(req.From)
	if err != nil {
		return "", err
	}

	parsed, err := parseDescriptor(req.Contract)
	if err != nil {
		return "", err
	}

	payload, err := buildDeployPayload(parsed, req.Contract.Bytecode, req.ConstructorArgs)
	if err != nil {
		return "", err
	}

	key, err := utils.PrivateKeyFromHex(req.PrivateKey)
	if err != nil {
		return "", types.NewValidationError("private key", err.Error())
	}
	if crypto.PubkeyToAddress(key.PublicKey) != from {
		return "", types.NewValidationError("private key", "does not belong to the sender address")
	}

	ctx, cancel := f.opCtx(ctx)
	defer cancel()

	params, err := f.resolveTxParams(ctx, from, nil, big.NewInt(0), payload, txOptions{
		gasLimit: req.GasLimit,
		gasPrice: req.GasPrice,
		nonce:    req.Nonce,
		chainID:  req.ChainID,
	})
	if err != nil {
		return "", err
	}

	tx := ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    params.nonce,
		To:       nil,
		Value:    big.NewInt(0),
		Gas:      params.gasLimit,
		GasPrice: params.gasPrice,
		Data:     payload,
	})

	signed, err := signTx(tx, params.chainID, key)
	if err != nil {
		return "", types.NewValidationError("transaction", err.Error())
	}

	if err := f.dispatcher.Dispatch(ctx, signed, from); err != nil {
		return "", err
	}

	return signed.Hash().Hex(), nil
}

type txOptions struct {
	gasLimit *uint64
	gasPrice *big.Int
	nonce    *uint64
	chainID  *big.Int
}

type txParams struct {
	nonce    uint64
	gasLimit uint64
	gasPrice *big.Int
	chainID  *big.Int
}

// resolveTxParams fills the omitted transaction parameters from the
// endpoint. The nonce and chain id are queried per call, never cached, so a
// stale value cannot be replayed across calls or networks.
func (f *Facade) resolveTxParams(ctx context.Context, from common.Address, to *common.Address,
	value *big.Int, data []byte, opts txOptions) (txParams, error) {
	params := txParams{}

	if opts.nonce != nil {
		params.nonce = *opts.nonce
	} else {
		nonce, err := f.client.PendingNonceAt(ctx, from)
		if err != nil {
			return params, types.NewRpcError("eth_getTransactionCount", err)
		}
		params.nonce = nonce
	}

	if opts.chainID != nil {
		params.chainID = opts.chainID
	} else {
		chainID, err := f.client.ChainID(ctx)
		if err != nil {
			return params, types.NewRpcError("eth_chainId", err)
		}
		params.chainID = chainID
	}

	if opts.gasPrice != nil {
		params.gasPrice = opts.gasPrice
	} else {
		gasPrice, err := f.gas.SuggestGasPrice(ctx)
		if err != nil {
			return params, types.NewRpcError("eth_gasPrice", err)
		}
		params.gasPrice = gasPrice
	}

	if opts.gasLimit != nil {
		params.gasLimit = *opts.gasLimit
	} else {
		gasLimit, err := f.client.EstimateGas(ctx, ethereum.CallMsg{
			From:  from,
			To:    to,
			Value: value,
			Data:  data,
		})
		if err != nil {
			return params, types.NewRpcError("eth_estimateGas", err)
		}
		params.gasLimit = gasLimit
	}

	return params, nil
}

// CallContractFunction performs a read-only contract call and returns the
// decoded outputs. No transaction is broadcast.
func (f *Facade) CallContractFunction(ctx context.Context, contractAddress, abiJSON, function string,
	args ...interface{}) ([]interface{}, error) {
	if err := f.requireConnected("CallContractFunction"); err != nil {
		return nil, err
	}

	addr, err := parseAddress(contractAddress)
	if err != nil {
		return nil, err
	}

	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, types.NewValidationError("abi", err.Error())
	}

	input, err := parsed.Pack(function, args...)
	if err != nil {
		return nil, types.NewValidationError("function args", err.Error())
	}

	ctx, cancel := f.opCtx(ctx)
	defer cancel()

	output, err := f.client.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: input}, nil)
	if err != nil {
		return nil, types.NewRpcError("eth_call", err)
	}

	values, err := parsed.Unpack(function, output)
	if err != nil {
		return nil, types.NewRpcError("eth_call", err)
	}

	return values, nil
}

// GetBlock looks a block up by height or hash. The zero BlockID selects the
// head block.
func (f *Facade) GetBlock(ctx context.Context, id types.BlockID) (*types.Block, error) {
	if err := f.requireConnected("GetBlock"); err != nil {
		return nil, err
	}

	ctx, cancel := f.opCtx(ctx)
	defer cancel()

	var (
		block *ethtypes.Block
		err   error
	)
	if id.Hash != "" {
		var hash common.Hash
		hash, err = parseHash(id.Hash)
		if err != nil {
			return nil, err
		}
		block, err = f.client.BlockByHash(ctx, hash)
	} else {
		block, err = f.client.BlockByNumber(ctx, id.Number)
	}

	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, types.NewNotFoundError("block", blockIDString(id))
		}
		return nil, types.NewRpcError("eth_getBlock", err)
	}
	if block == nil {
		return nil, types.NewNotFoundError("block", blockIDString(id))
	}

	return convertBlock(block), nil
}

// GetTransaction looks a transaction up by hash.
func (f *Facade) GetTransaction(ctx context.Context, txHash string) (*types.Transaction, error) {
	if err := f.requireConnected("GetTransaction"); err != nil {
		return nil, err
	}

	hash, err := parseHash(txHash)
	if err != nil {
		return nil, err
	}

	ctx, cancel := f.opCtx(ctx)
	defer cancel()

	tx, pending, err := f.client.TransactionByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, types.NewNotFoundError("transaction", txHash)
		}
		return nil, types.NewRpcError("eth_getTransactionByHash", err)
	}
	if tx == nil {
		return nil, types.NewNotFoundError("transaction", txHash)
	}

	return convertTransaction(tx, pending), nil
}

// GetTransactionReceipt looks a receipt up by transaction hash. A found
// receipt also settles the status of any tracked submission record.
func (f *Facade) GetTransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	if err := f.requireConnected("GetTransactionReceipt"); err != nil {
		return nil, err
	}

	hash, err := parseHash(txHash)
	if err != nil {
		return nil, err
	}

	ctx, cancel := f.opCtx(ctx)
	defer cancel()

	receipt, err := f.client.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, types.NewNotFoundError("receipt", txHash)
		}
		return nil, types.NewRpcError("eth_getTransactionReceipt", err)
	}
	if receipt == nil {
		return nil, types.NewNotFoundError("receipt", txHash)
	}

	success := receipt.Status == ethtypes.ReceiptStatusSuccessful
	f.dispatcher.MarkConfirmed(hash.Hex(), success)

	ret := &types.Receipt{
		TxHash:      hash.Hex(),
		Success:     success,
		BlockNumber: receipt.BlockNumber,
		BlockHash:   receipt.BlockHash.Hex(),
		GasUsed:     receipt.GasUsed,
	}
	if receipt.ContractAddress != (common.Address{}) {
		ret.ContractAddress = receipt.ContractAddress.Hex()
	}

	return ret, nil
}

// PriorSubmission returns the record of an earlier broadcast for the same
// sender and nonce, so callers can check for a prior submission before
// resubmitting after an ambiguous failure.
func (f *Facade) PriorSubmission(sender string, nonce uint64) (*types.TxRecord, error) {
	if err := f.requireConnected("PriorSubmission"); err != nil {
		return nil, err
	}
	if !utils.IsValidAddress(sender) {
		return nil, types.NewInvalidAddressError(sender)
	}

	return f.dispatcher.PriorSubmission(sender, nonce)
}

// GetBlockNumber returns the current head height.
func (f *Facade) GetBlockNumber(ctx context.Context) (uint64, error) {
	if err := f.requireConnected("GetBlockNumber"); err != nil {
		return 0, err
	}

	ctx, cancel := f.opCtx(ctx)
	defer cancel()

	num, err := f.client.BlockNumber(ctx)
	if err != nil {
		return 0, types.NewRpcError("eth_blockNumber", err)
	}

	return num, nil
}

// GetGasPrice returns the endpoint's current gas price suggestion in wei,
// with the configured floor applied.
func (f *Facade) GetGasPrice(ctx context.Context) (*big.Int, error) {
	if err := f.requireConnected("GetGasPrice"); err != nil {
		return nil, err
	}

	ctx, cancel := f.opCtx(ctx)
	defer cancel()

	price, err := f.gas.SuggestGasPrice(ctx)
	if err != nil {
		return nil, types.NewRpcError("eth_gasPrice", err)
	}

	return price, nil
}

// EstimateGas estimates the gas needed for a transfer of amountEther with
// the given payload.
func (f *Facade) EstimateGas(ctx context.Context, from, to string, amountEther decimal.Decimal,
	data []byte) (uint64, error) {
	if err := f.requireConnected("EstimateGas"); err != nil {
		return 0, err
	}

	fromAddr, err := parseAddress(from)
	if err != nil {
		return 0, err
	}
	toAddr, err := parseAddress(to)
	if err != nil {
		return 0, err
	}

	amountWei, err := utils.EtherToWei(amountEther)
	if err != nil {
		return 0, err
	}

	ctx, cancel := f.opCtx(ctx)
	defer cancel()

	gas, err := f.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  fromAddr,
		To:    &toAddr,
		Value: amountWei,
		Data:  data,
	})
	if err != nil {
		return 0, types.NewRpcError("eth_estimateGas", err)
	}

	return gas, nil
}

// GetTransactionCount returns the number of transactions sent from an
// address up to the given block (zero BlockID means latest).
func (f *Facade) GetTransactionCount(ctx context.Context, address string, block types.BlockID) (uint64, error) {
	if err := f.requireConnected("GetTransactionCount"); err != nil {
		return 0, err
	}

	addr, err := parseAddress(address)
	if err != nil {
		return 0, err
	}

	ctx, cancel := f.opCtx(ctx)
	defer cancel()

	nonce, err := f.client.NonceAt(ctx, addr, block.Number)
	if err != nil {
		return 0, types.NewRpcError("eth_getTransactionCount", err)
	}

	return nonce, nil
}

// GetCode returns the code deployed at an address.
func (f *Facade) GetCode(ctx context.Context, address string, block types.BlockID) ([]byte, error) {
	if err := f.requireConnected("GetCode"); err != nil {
		return nil, err
	}

	addr, err := parseAddress(address)
	if err != nil {
		return nil, err
	}

	ctx, cancel := f.opCtx(ctx)
	defer cancel()

	code, err := f.client.CodeAt(ctx, addr, block.Number)
	if err != nil {
		return nil, types.NewRpcError("eth_getCode", err)
	}

	return code, nil
}

// GetStorageAt returns the raw storage word of a contract at the given slot.
func (f *Facade) GetStorageAt(ctx context.Context, address string, slot *big.Int, block types.BlockID) ([]byte, error) {
	if err := f.requireConnected("GetStorageAt"); err != nil {
		return nil, err
	}

	addr, err := parseAddress(address)
	if err != nil {
		return nil, err
	}
	if slot == nil || slot.Sign() < 0 {
		return nil, types.NewValidationError("slot", "must be a non-negative integer")
	}

	ctx, cancel := f.opCtx(ctx)
	defer cancel()

	data, err := f.client.StorageAt(ctx, addr, common.BigToHash(slot), block.Number)
	if err != nil {
		return nil, types.NewRpcError("eth_getStorageAt", err)
	}

	return data, nil
}

// ClientVersion returns the endpoint's reported client version string.
func (f *Facade) ClientVersion(ctx context.Context) (string, error) {
	if err := f.requireConnected("ClientVersion"); err != nil {
		return "", err
	}

	ctx, cancel := f.opCtx(ctx)
	defer cancel()

	version, err := f.client.ClientVersion(ctx)
	if err != nil {
		return "", types.NewRpcError("web3_clientVersion", err)
	}

	return version, nil
}

// NetworkID returns the endpoint's reported network id.
func (f *Facade) NetworkID(ctx context.Context) (*big.Int, error) {
	if err := f.requireConnected("NetworkID"); err != nil {
		return nil, err
	}

	ctx, cancel := f.opCtx(ctx)
	defer cancel()

	id, err := f.client.NetworkID(ctx)
	if err != nil {
		return nil, types.NewRpcError("net_version", err)
	}

	return id, nil
}

// ChainID returns the endpoint's chain id.
func (f *Facade) ChainID(ctx context.Context) (*big.Int, error) {
	if err := f.requireConnected("ChainID"); err != nil {
		return nil, err
	}

	ctx, cancel := f.opCtx(ctx)
	defer cancel()

	id, err := f.client.ChainID(ctx)
	if err != nil {
		return nil, types.NewRpcError("eth_chainId", err)
	}

	return id, nil
}

func parseAddress(address string) (common.Address, error) {
	if !utils.IsValidAddress(address) {
		return common.Address{}, types.NewInvalidAddressError(address)
	}

	return common.HexToAddress(address), nil
}

func parseHash(s string) (common.Hash, error) {
	body := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(body) != 64 || !isHex(body) {
		return common.Hash{}, types.NewValidationError("hash", "must be a 32-byte hex string")
	}

	return common.HexToHash(s), nil
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}

	return true
}

func blockIDString(id types.BlockID) string {
	if id.Hash != "" {
		return id.Hash
	}
	if id.Number != nil {
		return id.Number.String()
	}

	return "latest"
}

func convertBlock(block *ethtypes.Block) *types.Block {
	hashes := make([]string, 0, len(block.Transactions()))
	for _, tx := range block.Transactions() {
		hashes = append(hashes, tx.Hash().Hex())
	}

	return &types.Block{
		Number:       block.Number(),
		Hash:         block.Hash().Hex(),
		ParentHash:   block.ParentHash().Hex(),
		Time:         block.Time(),
		GasLimit:     block.GasLimit(),
		GasUsed:      block.GasUsed(),
		BaseFee:      block.BaseFee(),
		Miner:        block.Coinbase().Hex(),
		Transactions: hashes,
	}
}

func convertTransaction(tx *ethtypes.Transaction, pending bool) *types.Transaction {
	ret := &types.Transaction{
		Hash:     tx.Hash().Hex(),
		ValueWei: tx.Value(),
		Nonce:    tx.Nonce(),
		GasLimit: tx.Gas(),
		GasPrice: tx.GasPrice(),
		Data:     tx.Data(),
		Pending:  pending,
	}

	if tx.To() != nil {
		ret.To = tx.To().Hex()
	}

	if from, err := ethtypes.Sender(ethtypes.LatestSignerForChainID(tx.ChainId()), tx); err == nil {
		ret.From = from.Hex()
	}

	return ret
}
