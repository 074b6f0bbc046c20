package eth

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/evmorb/evmorb/config"
	"github.com/evmorb/evmorb/types"
)

const testPrivKey = "fad9c8855b740a0b7ed4c221dbad0f33a83a49cad6b3fe8d5817ac83d38b6a19"

func testChainCfg() config.Chain {
	return config.Chain{
		Chain:        "ganache1",
		BlockTime:    1000,
		RpcTimeoutMs: 5000,
	}
}

func newTestFacade(client EthClient) *Facade {
	return NewFacade(testChainCfg(), client, nil)
}

func testSender(t *testing.T) (string, string) {
	t.Helper()

	key, err := crypto.HexToECDSA(testPrivKey)
	require.Nil(t, err)

	return crypto.PubkeyToAddress(key.PublicKey).Hex(), testPrivKey
}

type mockTrieHasher struct{}

func (h *mockTrieHasher) Reset() {}

func (h *mockTrieHasher) Update([]byte, []byte) {}

func (h *mockTrieHasher) Hash() common.Hash {
	return [32]byte{}
}

func TestFacade_GetBalance(t *testing.T) {
	wei, _ := new(big.Int).SetString("1234000000000000000", 10)
	client := &MockEthClient{
		BalanceAtFunc: func(ctx context.Context, account common.Address, block *big.Int) (*big.Int, error) {
			return wei, nil
		},
	}

	facade := newTestFacade(client)

	balance, err := facade.GetBalance(context.Background(), "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	require.Nil(t, err)
	require.True(t, decimal.RequireFromString("1.234").Equal(balance))
}

func TestFacade_GetBalance_InvalidAddress(t *testing.T) {
	networkCalls := 0
	client := &MockEthClient{
		BalanceAtFunc: func(ctx context.Context, account common.Address, block *big.Int) (*big.Int, error) {
			networkCalls++
			return big.NewInt(0), nil
		},
	}

	facade := newTestFacade(client)

	for _, addr := range []string{
		"",
		"0x123",
		"0xZZZeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0x5Aaeb6053F3E94C9b9A09f33669435E7Ef1BeAed", // broken checksum
	} {
		_, err := facade.GetBalance(context.Background(), addr)

		var invalidErr *types.InvalidAddressError
		require.ErrorAs(t, err, &invalidErr, addr)
	}

	require.Equal(t, 0, networkCalls)
}

func TestFacade_SendTransaction_ResolvesDefaultsFresh(t *testing.T) {
	from, privKey := testSender(t)

	var (
		lock       sync.Mutex
		nextNonce  = uint64(7)
		sentNonces []uint64
		sentPrices []*big.Int
	)

	client := &MockEthClient{
		PendingNonceAtFunc: func(ctx context.Context, account common.Address) (uint64, error) {
			lock.Lock()
			defer lock.Unlock()
			return nextNonce, nil
		},
		ChainIDFunc: func(ctx context.Context) (*big.Int, error) {
			return big.NewInt(1337), nil
		},
		SuggestGasPriceFunc: func(ctx context.Context) (*big.Int, error) {
			return big.NewInt(2_000_000_000), nil
		},
		BalanceAtFunc: func(ctx context.Context, account common.Address, block *big.Int) (*big.Int, error) {
			balance, _ := new(big.Int).SetString("1000000000000000000000", 10)
			return balance, nil
		},
		SendTransactionFunc: func(ctx context.Context, tx *ethtypes.Transaction) error {
			lock.Lock()
			defer lock.Unlock()
			sentNonces = append(sentNonces, tx.Nonce())
			sentPrices = append(sentPrices, tx.GasPrice())
			return nil
		},
	}

	facade := newTestFacade(client)

	req := &types.TxRequest{
		From:        from,
		To:          "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		AmountEther: decimal.RequireFromString("0.5"),
		PrivateKey:  privKey,
	}

	hash, err := facade.SendTransaction(context.Background(), req)
	require.Nil(t, err)
	require.Equal(t, 66, len(hash)) // 0x + 32 bytes

	// The endpoint moved on; the next submission must pick up the new nonce
	// rather than a cached one.
	lock.Lock()
	nextNonce = 8
	lock.Unlock()

	_, err = facade.SendTransaction(context.Background(), req)
	require.Nil(t, err)

	require.Equal(t, []uint64{7, 8}, sentNonces)
	for _, price := range sentPrices {
		require.Equal(t, big.NewInt(2_000_000_000), price)
	}
}

func TestFacade_SendTransaction_NegativeAmount(t *testing.T) {
	from, privKey := testSender(t)

	networkCalls := 0
	client := &MockEthClient{
		PendingNonceAtFunc: func(ctx context.Context, account common.Address) (uint64, error) {
			networkCalls++
			return 0, nil
		},
		SendTransactionFunc: func(ctx context.Context, tx *ethtypes.Transaction) error {
			networkCalls++
			return nil
		},
	}

	facade := newTestFacade(client)

	_, err := facade.SendTransaction(context.Background(), &types.TxRequest{
		From:        from,
		To:          "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		AmountEther: decimal.RequireFromString("-1"),
		PrivateKey:  privKey,
	})

	var validationErr *types.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, 0, networkCalls)
}

func TestFacade_SendTransaction_KeyMismatch(t *testing.T) {
	_, privKey := testSender(t)

	facade := newTestFacade(&MockEthClient{})

	// Valid address, but not the one derived from the key.
	_, err := facade.SendTransaction(context.Background(), &types.TxRequest{
		From:        "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		To:          "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		AmountEther: decimal.RequireFromString("1"),
		PrivateKey:  privKey,
	})

	var validationErr *types.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestFacade_DeployContract(t *testing.T) {
	from, privKey := testSender(t)

	bytecode := []byte{0x60, 0x80, 0x60, 0x40, 0x52}
	constructorAbi := `[{"type":"constructor","inputs":[{"name":"initial","type":"uint256"}]}]`

	var sent *ethtypes.Transaction
	client := &MockEthClient{
		PendingNonceAtFunc: func(ctx context.Context, account common.Address) (uint64, error) {
			return 3, nil
		},
		ChainIDFunc: func(ctx context.Context) (*big.Int, error) {
			return big.NewInt(1337), nil
		},
		SuggestGasPriceFunc: func(ctx context.Context) (*big.Int, error) {
			return big.NewInt(2_000_000_000), nil
		},
		BalanceAtFunc: func(ctx context.Context, account common.Address, block *big.Int) (*big.Int, error) {
			balance, _ := new(big.Int).SetString("1000000000000000000000", 10)
			return balance, nil
		},
		SendTransactionFunc: func(ctx context.Context, tx *ethtypes.Transaction) error {
			sent = tx
			return nil
		},
	}

	facade := newTestFacade(client)

	hash, err := facade.DeployContract(context.Background(), &types.DeployRequest{
		Contract: types.ContractDescriptor{
			Bytecode: bytecode,
			ABI:      constructorAbi,
		},
		From:            from,
		PrivateKey:      privKey,
		ConstructorArgs: []interface{}{big.NewInt(7)},
	})
	require.Nil(t, err)
	require.Equal(t, 66, len(hash))

	require.NotNil(t, sent)
	require.Nil(t, sent.To())
	require.Equal(t, uint64(3), sent.Nonce())

	// The payload is the bytecode followed by the packed constructor args.
	expected := append([]byte{}, bytecode...)
	expected = append(expected, common.LeftPadBytes(big.NewInt(7).Bytes(), 32)...)
	require.Equal(t, expected, sent.Data())
}

func TestFacade_DeployContract_EmptyBytecode(t *testing.T) {
	from, privKey := testSender(t)

	networkCalls := 0
	client := &MockEthClient{
		SendTransactionFunc: func(ctx context.Context, tx *ethtypes.Transaction) error {
			networkCalls++
			return nil
		},
	}

	facade := newTestFacade(client)

	_, err := facade.DeployContract(context.Background(), &types.DeployRequest{
		Contract: types.ContractDescriptor{
			Bytecode: nil,
			ABI:      `[]`,
		},
		From:       from,
		PrivateKey: privKey,
	})

	var validationErr *types.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, 0, networkCalls)
}

func TestFacade_NotConnected(t *testing.T) {
	facade := newTestFacade(&MockEthClient{})
	facade.Close()

	_, err := facade.GetBalance(context.Background(), "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")

	var notConnectedErr *types.NotConnectedError
	require.ErrorAs(t, err, &notConnectedErr)
}

func TestFacade_GetBlock(t *testing.T) {
	hdr := &ethtypes.Header{
		Number:     big.NewInt(42),
		Difficulty: big.NewInt(100),
	}
	block := ethtypes.NewBlock(hdr, nil, nil, nil, &mockTrieHasher{})

	client := &MockEthClient{
		BlockByNumberFunc: func(ctx context.Context, number *big.Int) (*ethtypes.Block, error) {
			if number != nil && number.Int64() == 42 {
				return block, nil
			}
			return nil, ethereum.NotFound
		},
	}

	facade := newTestFacade(client)

	got, err := facade.GetBlock(context.Background(), types.BlockByNumber(42))
	require.Nil(t, err)
	require.Equal(t, big.NewInt(42), got.Number)

	_, err = facade.GetBlock(context.Background(), types.BlockByNumber(43))
	var notFoundErr *types.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestFacade_GetTransaction_NotFound(t *testing.T) {
	client := &MockEthClient{
		TransactionByHashFunc: func(ctx context.Context, hash common.Hash) (*ethtypes.Transaction, bool, error) {
			return nil, false, ethereum.NotFound
		},
	}

	facade := newTestFacade(client)

	_, err := facade.GetTransaction(context.Background(),
		"0x0000000000000000000000000000000000000000000000000000000000000001")

	var notFoundErr *types.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestFacade_CallContractFunction(t *testing.T) {
	abiJSON := `[{"type":"function","name":"get","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}]`

	client := &MockEthClient{
		CallContractFunc: func(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
			return common.LeftPadBytes(big.NewInt(99).Bytes(), 32), nil
		},
	}

	facade := newTestFacade(client)

	values, err := facade.CallContractFunction(context.Background(),
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", abiJSON, "get")
	require.Nil(t, err)
	require.Equal(t, 1, len(values))
	require.Equal(t, big.NewInt(99), values[0])
}

func TestFacade_ConcurrentGetBalance(t *testing.T) {
	addr1 := "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	addr2 := "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"

	oneEther, _ := new(big.Int).SetString("1000000000000000000", 10)
	twoEther, _ := new(big.Int).SetString("2000000000000000000", 10)

	client := &MockEthClient{
		BalanceAtFunc: func(ctx context.Context, account common.Address, block *big.Int) (*big.Int, error) {
			if account == common.HexToAddress(addr1) {
				return oneEther, nil
			}
			return twoEther, nil
		},
	}

	facade := newTestFacade(client)

	var wg sync.WaitGroup
	results := make([]decimal.Decimal, 2)
	errs := make([]error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		results[0], errs[0] = facade.GetBalance(context.Background(), addr1)
	}()
	go func() {
		defer wg.Done()
		results[1], errs[1] = facade.GetBalance(context.Background(), addr2)
	}()
	wg.Wait()

	require.Nil(t, errs[0])
	require.Nil(t, errs[1])
	require.True(t, decimal.RequireFromString("1").Equal(results[0]))
	require.True(t, decimal.RequireFromString("2").Equal(results[1]))
}
