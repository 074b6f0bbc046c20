package eth

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/evmorb/evmorb/config"
)

// gasOracle resolves a gas price for submissions that omit one. A floor from
// the chain config is applied to whatever the endpoint suggests. Caching is
// opt-in via gas_price_cache_ms and never applies to nonces or chain ids.
type gasOracle struct {
	cfg    config.Chain
	client EthClient

	lock       *sync.Mutex
	cached     *big.Int
	lastUpdate time.Time
}

func newGasOracle(cfg config.Chain, client EthClient) *gasOracle {
	return &gasOracle{
		cfg:    cfg,
		client: client,
		lock:   &sync.Mutex{},
	}
}

func (g *gasOracle) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	cacheFor := time.Duration(g.cfg.GasPriceCacheMs) * time.Millisecond

	if cacheFor > 0 {
		g.lock.Lock()
		if g.cached != nil && time.Since(g.lastUpdate) < cacheFor {
			price := new(big.Int).Set(g.cached)
			g.lock.Unlock()
			return price, nil
		}
		g.lock.Unlock()
	}

	price, err := g.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, err
	}

	if g.cfg.MinGasPrice > 0 && price.Cmp(big.NewInt(g.cfg.MinGasPrice)) < 0 {
		price = big.NewInt(g.cfg.MinGasPrice)
	}

	if cacheFor > 0 {
		g.lock.Lock()
		g.cached = new(big.Int).Set(price)
		g.lastUpdate = time.Now()
		g.lock.Unlock()
	}

	return price, nil
}
