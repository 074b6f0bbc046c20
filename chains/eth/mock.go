package eth

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

type MockEthClient struct {
	BlockNumberFunc        func(ctx context.Context) (uint64, error)
	BlockByNumberFunc      func(ctx context.Context, number *big.Int) (*ethtypes.Block, error)
	BlockByHashFunc        func(ctx context.Context, hash common.Hash) (*ethtypes.Block, error)
	TransactionByHashFunc  func(ctx context.Context, hash common.Hash) (*ethtypes.Transaction, bool, error)
	TransactionReceiptFunc func(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
	BalanceAtFunc          func(ctx context.Context, account common.Address, block *big.Int) (*big.Int, error)
	NonceAtFunc            func(ctx context.Context, account common.Address, block *big.Int) (uint64, error)
	PendingNonceAtFunc     func(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPriceFunc    func(ctx context.Context) (*big.Int, error)
	EstimateGasFunc        func(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	ChainIDFunc            func(ctx context.Context) (*big.Int, error)
	NetworkIDFunc          func(ctx context.Context) (*big.Int, error)
	CodeAtFunc             func(ctx context.Context, account common.Address, block *big.Int) ([]byte, error)
	StorageAtFunc          func(ctx context.Context, account common.Address, key common.Hash, block *big.Int) ([]byte, error)
	CallContractFunc       func(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error)
	FilterLogsFunc         func(ctx context.Context, q ethereum.FilterQuery) ([]ethtypes.Log, error)
	SendTransactionFunc    func(ctx context.Context, tx *ethtypes.Transaction) error
	ClientVersionFunc      func(ctx context.Context) (string, error)
}

func (c *MockEthClient) Start() {}

func (c *MockEthClient) Close() {}

func (c *MockEthClient) BlockNumber(ctx context.Context) (uint64, error) {
	if c.BlockNumberFunc != nil {
		return c.BlockNumberFunc(ctx)
	}
	return 0, nil
}

func (c *MockEthClient) BlockByNumber(ctx context.Context, number *big.Int) (*ethtypes.Block, error) {
	if c.BlockByNumberFunc != nil {
		return c.BlockByNumberFunc(ctx, number)
	}
	return nil, nil
}

func (c *MockEthClient) BlockByHash(ctx context.Context, hash common.Hash) (*ethtypes.Block, error) {
	if c.BlockByHashFunc != nil {
		return c.BlockByHashFunc(ctx, hash)
	}
	return nil, nil
}

func (c *MockEthClient) TransactionByHash(ctx context.Context, hash common.Hash) (*ethtypes.Transaction, bool, error) {
	if c.TransactionByHashFunc != nil {
		return c.TransactionByHashFunc(ctx, hash)
	}
	return nil, false, nil
}

func (c *MockEthClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	if c.TransactionReceiptFunc != nil {
		return c.TransactionReceiptFunc(ctx, txHash)
	}
	return nil, nil
}

func (c *MockEthClient) BalanceAt(ctx context.Context, account common.Address, block *big.Int) (*big.Int, error) {
	if c.BalanceAtFunc != nil {
		return c.BalanceAtFunc(ctx, account, block)
	}
	return big.NewInt(0), nil
}

func (c *MockEthClient) NonceAt(ctx context.Context, account common.Address, block *big.Int) (uint64, error) {
	if c.NonceAtFunc != nil {
		return c.NonceAtFunc(ctx, account, block)
	}
	return 0, nil
}

func (c *MockEthClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	if c.PendingNonceAtFunc != nil {
		return c.PendingNonceAtFunc(ctx, account)
	}
	return 0, nil
}

func (c *MockEthClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	if c.SuggestGasPriceFunc != nil {
		return c.SuggestGasPriceFunc(ctx)
	}
	return big.NewInt(0), nil
}

func (c *MockEthClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	if c.EstimateGasFunc != nil {
		return c.EstimateGasFunc(ctx, msg)
	}
	return 21000, nil
}

func (c *MockEthClient) ChainID(ctx context.Context) (*big.Int, error) {
	if c.ChainIDFunc != nil {
		return c.ChainIDFunc(ctx)
	}
	return big.NewInt(1), nil
}

func (c *MockEthClient) NetworkID(ctx context.Context) (*big.Int, error) {
	if c.NetworkIDFunc != nil {
		return c.NetworkIDFunc(ctx)
	}
	return big.NewInt(1), nil
}

func (c *MockEthClient) CodeAt(ctx context.Context, account common.Address, block *big.Int) ([]byte, error) {
	if c.CodeAtFunc != nil {
		return c.CodeAtFunc(ctx, account, block)
	}
	return nil, nil
}

func (c *MockEthClient) StorageAt(ctx context.Context, account common.Address, key common.Hash, block *big.Int) ([]byte, error) {
	if c.StorageAtFunc != nil {
		return c.StorageAtFunc(ctx, account, key, block)
	}
	return nil, nil
}

func (c *MockEthClient) CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	if c.CallContractFunc != nil {
		return c.CallContractFunc(ctx, msg, block)
	}
	return nil, nil
}

func (c *MockEthClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]ethtypes.Log, error) {
	if c.FilterLogsFunc != nil {
		return c.FilterLogsFunc(ctx, q)
	}
	return nil, nil
}

func (c *MockEthClient) SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error {
	if c.SendTransactionFunc != nil {
		return c.SendTransactionFunc(ctx, tx)
	}
	return nil
}

func (c *MockEthClient) ClientVersion(ctx context.Context) (string, error) {
	if c.ClientVersionFunc != nil {
		return c.ClientVersionFunc(ctx)
	}
	return "", nil
}
