package eth

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ybbus/jsonrpc/v3"
	"golang.org/x/net/html"

	"github.com/evmorb/evmorb/config"
	"github.com/evmorb/evmorb/log"
	"github.com/evmorb/evmorb/network"
)

const rpcRecheckInterval = time.Minute * 30

type NoHealthyClientErr struct {
	chain string
}

func NewNoHealthyClientErr(chain string) error {
	return &NoHealthyClientErr{chain: chain}
}

func (e *NoHealthyClientErr) Error() string {
	return fmt.Sprintf("No healthy client for chain %s", e.chain)
}

// EthClient is a wrapper around ethclient.Client so that the facade can be
// tested against a mock.
type EthClient interface {
	Start()
	Close()

	BlockNumber(ctx context.Context) (uint64, error)
	BlockByNumber(ctx context.Context, number *big.Int) (*ethtypes.Block, error)
	BlockByHash(ctx context.Context, hash common.Hash) (*ethtypes.Block, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*ethtypes.Transaction, bool, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
	BalanceAt(ctx context.Context, account common.Address, block *big.Int) (*big.Int, error)
	NonceAt(ctx context.Context, account common.Address, block *big.Int) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	NetworkID(ctx context.Context) (*big.Int, error)
	CodeAt(ctx context.Context, account common.Address, block *big.Int) ([]byte, error)
	StorageAt(ctx context.Context, account common.Address, key common.Hash, block *big.Int) ([]byte, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]ethtypes.Log, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	ClientVersion(ctx context.Context) (string, error)
}

type endpoint struct {
	rpc     string
	client  *ethclient.Client
	raw     jsonrpc.RPCClient
	healthy bool
}

type defaultEthClient struct {
	chain           string
	useExternalRpcs bool

	initialRpcs []string
	endpoints   []endpoint

	http network.Http
	lock *sync.RWMutex
	done chan struct{}
}

func NewEthClient(cfg config.Chain, http network.Http) EthClient {
	return &defaultEthClient{
		chain:           cfg.Chain,
		useExternalRpcs: cfg.UseExternalRpcs,
		initialRpcs:     cfg.RpcUrls,
		http:            http,
		lock:            &sync.RWMutex{},
		done:            make(chan struct{}),
	}
}

// Dial probes the configured endpoints until at least one is healthy. It is
// the only place where connecting is retried; individual operations never
// retry on their own.
func (c *defaultEthClient) Dial(ctx context.Context) error {
	return retry.Do(
		func() error {
			c.updateRpcs()

			c.lock.RLock()
			defer c.lock.RUnlock()
			for _, e := range c.endpoints {
				if e.healthy {
					return nil
				}
			}

			return NewNoHealthyClientErr(c.chain)
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(time.Second),
	)
}

func (c *defaultEthClient) Start() {
	go c.loopCheck()
}

func (c *defaultEthClient) Close() {
	close(c.done)

	c.lock.Lock()
	defer c.lock.Unlock()
	for _, e := range c.endpoints {
		e.client.Close()
	}
	c.endpoints = nil
}

// loopCheck periodically revalidates the rpc pool.
func (c *defaultEthClient) loopCheck() {
	for {
		select {
		case <-c.done:
			return
		case <-time.After(rpcRecheckInterval):
			c.updateRpcs()
		}
	}
}

func (c *defaultEthClient) updateRpcs() {
	rpcs := append([]string{}, c.initialRpcs...)

	if c.useExternalRpcs {
		externals, err := c.getExtraRpcs()
		if err != nil {
			log.Errorf("Failed to get external rpc info, err = %v", err)
		} else {
			rpcs = append(rpcs, externals...)
		}
	}

	endpoints := c.probeRpcs(rpcs)

	c.lock.Lock()
	old := c.endpoints
	c.endpoints = endpoints
	c.lock.Unlock()

	for _, e := range old {
		e.client.Close()
	}
}

func (c *defaultEthClient) probeRpcs(rpcs []string) []endpoint {
	endpoints := make([]endpoint, 0, len(rpcs))

	for _, rpc := range rpcs {
		client, err := ethclient.Dial(rpc)
		if err != nil {
			continue
		}

		_, err = client.BlockNumber(context.Background())
		if err != nil {
			client.Close()
			continue
		}

		endpoints = append(endpoints, endpoint{
			rpc:     rpc,
			client:  client,
			raw:     jsonrpc.NewClient(rpc),
			healthy: true,
		})
	}

	return endpoints
}

// getExtraRpcs scrapes public rpc urls for this chain from chainlist.org.
func (c *defaultEthClient) getExtraRpcs() ([]string, error) {
	c.lock.RLock()
	endpoints := c.endpoints
	c.lock.RUnlock()

	if len(endpoints) == 0 {
		return nil, NewNoHealthyClientErr(c.chain)
	}

	chainID, err := endpoints[0].client.ChainID(context.Background())
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("https://chainlist.org/chain/%d", chainID)
	log.Verbosef("Getting extra rpcs from %s for chain %s", url, c.chain)

	bz, err := c.http.Get(url)
	if err != nil {
		return nil, err
	}

	return parseChainlistPage(string(bz))
}

// parseChainlistPage extracts the embedded JSON payload from a chainlist.org
// chain page and returns the rpc urls listed in it.
func parseChainlistPage(text string) ([]string, error) {
	tokenizer := html.NewTokenizer(strings.NewReader(text))
	var data string

loop:
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			break loop

		case html.TextToken:
			t := tokenizer.Token().Data
			var js json.RawMessage
			if json.Unmarshal([]byte(t), &js) == nil {
				data = t
			}
		}
	}

	if data == "" {
		return nil, fmt.Errorf("no json payload found in chainlist page")
	}

	type result struct {
		Props struct {
			PageProps struct {
				Chain struct {
					Name string `json:"name"`
					RPC  []struct {
						Url string `json:"url"`
					} `json:"rpc"`
				} `json:"chain"`
			} `json:"pageProps"`
		} `json:"props"`
	}

	r := &result{}
	if err := json.Unmarshal([]byte(data), r); err != nil {
		return nil, err
	}

	ret := make([]string, 0, len(r.Props.PageProps.Chain.RPC))
	for _, rpc := range r.Props.PageProps.Chain.RPC {
		ret = append(ret, rpc.Url)
	}

	return ret, nil
}

// shuffle returns a shuffled copy of the endpoint list so that consecutive
// calls spread across healthy rpcs.
func (c *defaultEthClient) shuffle() []endpoint {
	c.lock.RLock()
	defer c.lock.RUnlock()

	endpoints := make([]endpoint, len(c.endpoints))
	copy(endpoints, c.endpoints)

	rand.Shuffle(len(endpoints), func(i, j int) {
		endpoints[i], endpoints[j] = endpoints[j], endpoints[i]
	})

	return endpoints
}

func (c *defaultEthClient) getHealthyEndpoint() (*endpoint, error) {
	for _, e := range c.shuffle() {
		if e.healthy {
			e := e
			return &e, nil
		}
	}

	return nil, NewNoHealthyClientErr(c.chain)
}

func (c *defaultEthClient) execute(f func(client *ethclient.Client, rpc string) (any, error)) (any, error) {
	e, err := c.getHealthyEndpoint()
	if err != nil {
		return nil, err
	}

	return f(e.client, e.rpc)
}

func (c *defaultEthClient) BlockNumber(ctx context.Context) (uint64, error) {
	num, err := c.execute(func(client *ethclient.Client, rpc string) (any, error) {
		return client.BlockNumber(ctx)
	})
	if err != nil {
		return 0, err
	}

	return num.(uint64), nil
}

func (c *defaultEthClient) BlockByNumber(ctx context.Context, number *big.Int) (*ethtypes.Block, error) {
	block, err := c.execute(func(client *ethclient.Client, rpc string) (any, error) {
		return client.BlockByNumber(ctx, number)
	})
	if err != nil {
		return nil, err
	}

	return block.(*ethtypes.Block), nil
}

func (c *defaultEthClient) BlockByHash(ctx context.Context, hash common.Hash) (*ethtypes.Block, error) {
	block, err := c.execute(func(client *ethclient.Client, rpc string) (any, error) {
		return client.BlockByHash(ctx, hash)
	})
	if err != nil {
		return nil, err
	}

	return block.(*ethtypes.Block), nil
}

func (c *defaultEthClient) TransactionByHash(ctx context.Context, hash common.Hash) (*ethtypes.Transaction, bool, error) {
	type txAndPending struct {
		tx      *ethtypes.Transaction
		pending bool
	}

	ret, err := c.execute(func(client *ethclient.Client, rpc string) (any, error) {
		tx, pending, err := client.TransactionByHash(ctx, hash)
		return txAndPending{tx: tx, pending: pending}, err
	})
	if err != nil {
		return nil, false, err
	}

	tp := ret.(txAndPending)
	return tp.tx, tp.pending, nil
}

func (c *defaultEthClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	receipt, err := c.execute(func(client *ethclient.Client, rpc string) (any, error) {
		return client.TransactionReceipt(ctx, txHash)
	})
	if err != nil {
		return nil, err
	}

	return receipt.(*ethtypes.Receipt), nil
}

func (c *defaultEthClient) BalanceAt(ctx context.Context, account common.Address, block *big.Int) (*big.Int, error) {
	balance, err := c.execute(func(client *ethclient.Client, rpc string) (any, error) {
		return client.BalanceAt(ctx, account, block)
	})
	if err != nil {
		return nil, err
	}

	return balance.(*big.Int), nil
}

func (c *defaultEthClient) NonceAt(ctx context.Context, account common.Address, block *big.Int) (uint64, error) {
	nonce, err := c.execute(func(client *ethclient.Client, rpc string) (any, error) {
		return client.NonceAt(ctx, account, block)
	})
	if err != nil {
		return 0, err
	}

	return nonce.(uint64), nil
}

func (c *defaultEthClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	nonce, err := c.execute(func(client *ethclient.Client, rpc string) (any, error) {
		return client.PendingNonceAt(ctx, account)
	})
	if err != nil {
		return 0, err
	}

	return nonce.(uint64), nil
}

func (c *defaultEthClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	gas, err := c.execute(func(client *ethclient.Client, rpc string) (any, error) {
		return client.SuggestGasPrice(ctx)
	})
	if err != nil {
		return nil, err
	}

	return gas.(*big.Int), nil
}

func (c *defaultEthClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	gas, err := c.execute(func(client *ethclient.Client, rpc string) (any, error) {
		return client.EstimateGas(ctx, msg)
	})
	if err != nil {
		return 0, err
	}

	return gas.(uint64), nil
}

func (c *defaultEthClient) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := c.execute(func(client *ethclient.Client, rpc string) (any, error) {
		return client.ChainID(ctx)
	})
	if err != nil {
		return nil, err
	}

	return id.(*big.Int), nil
}

func (c *defaultEthClient) NetworkID(ctx context.Context) (*big.Int, error) {
	id, err := c.execute(func(client *ethclient.Client, rpc string) (any, error) {
		return client.NetworkID(ctx)
	})
	if err != nil {
		return nil, err
	}

	return id.(*big.Int), nil
}

func (c *defaultEthClient) CodeAt(ctx context.Context, account common.Address, block *big.Int) ([]byte, error) {
	code, err := c.execute(func(client *ethclient.Client, rpc string) (any, error) {
		return client.CodeAt(ctx, account, block)
	})
	if err != nil {
		return nil, err
	}

	return code.([]byte), nil
}

func (c *defaultEthClient) StorageAt(ctx context.Context, account common.Address, key common.Hash, block *big.Int) ([]byte, error) {
	data, err := c.execute(func(client *ethclient.Client, rpc string) (any, error) {
		return client.StorageAt(ctx, account, key, block)
	})
	if err != nil {
		return nil, err
	}

	return data.([]byte), nil
}

func (c *defaultEthClient) CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	out, err := c.execute(func(client *ethclient.Client, rpc string) (any, error) {
		return client.CallContract(ctx, msg, block)
	})
	if err != nil {
		return nil, err
	}

	return out.([]byte), nil
}

func (c *defaultEthClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]ethtypes.Log, error) {
	logs, err := c.execute(func(client *ethclient.Client, rpc string) (any, error) {
		return client.FilterLogs(ctx, q)
	})
	if err != nil {
		return nil, err
	}

	return logs.([]ethtypes.Log), nil
}

func (c *defaultEthClient) SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error {
	_, err := c.execute(func(client *ethclient.Client, rpc string) (any, error) {
		err := client.SendTransaction(ctx, tx)
		return 0, err
	})

	return err
}

// ClientVersion calls web3_clientVersion, which ethclient does not expose.
func (c *defaultEthClient) ClientVersion(ctx context.Context) (string, error) {
	e, err := c.getHealthyEndpoint()
	if err != nil {
		return "", err
	}

	var version string
	if err := e.raw.CallFor(ctx, &version, "web3_clientVersion"); err != nil {
		return "", err
	}

	return version, nil
}
