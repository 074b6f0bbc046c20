package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

const (
	DefaultBlockTimeMs  = 3000
	DefaultRpcTimeoutMs = 10000
)

// Chain holds the per-network settings of one Ethereum-compatible endpoint
// group. A chain is immutable once the facade is constructed from it.
type Chain struct {
	Chain string `toml:"chain"`

	// One or more JSON-RPC urls. The client load balances across the
	// healthy ones.
	RpcUrls []string `toml:"rpc_urls"`

	// When true, extra public rpcs are discovered from chainlist.org and
	// added to the pool.
	UseExternalRpcs bool `toml:"use_external_rpcs"`

	// Expected block production time in milliseconds. Seeds the adaptive
	// event poll interval.
	BlockTime int `toml:"block_time"`

	// Per-call timeout applied to every network bound operation.
	RpcTimeoutMs int `toml:"rpc_timeout_ms"`

	// Floor applied to suggested gas prices, in wei. Zero disables it.
	MinGasPrice int64 `toml:"min_gas_price"`

	// How long a suggested gas price may be served from cache. Zero means
	// every submission fetches a fresh estimate. Nonce and chain id are
	// never cached regardless of this setting.
	GasPriceCacheMs int `toml:"gas_price_cache_ms"`
}

// Config is the root configuration. The record store settings are optional;
// an empty db_driver disables transaction record keeping.
type Config struct {
	DbDriver   string `toml:"db_driver"` // "mysql", "postgres" or "sqlite3"
	DbHost     string `toml:"db_host"`
	DbPort     int    `toml:"db_port"`
	DbUsername string `toml:"db_username"`
	DbPassword string `toml:"db_password"`
	DbSchema   string `toml:"db_schema"`
	DbPath     string `toml:"db_path"`   // sqlite3 only
	InMemory   bool   `toml:"in_memory"` // sqlite3 only, used by tests

	Chains map[string]Chain `toml:"chains"`
}

// Load reads a toml config file, fills in defaults and validates it.
func Load(path string) (Config, error) {
	cfg := Config{}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	for name, chain := range cfg.Chains {
		if chain.Chain == "" {
			chain.Chain = name
		}
		if chain.BlockTime <= 0 {
			chain.BlockTime = DefaultBlockTimeMs
		}
		if chain.RpcTimeoutMs <= 0 {
			chain.RpcTimeoutMs = DefaultRpcTimeoutMs
		}
		cfg.Chains[name] = chain
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	for name, chain := range c.Chains {
		if len(chain.RpcUrls) == 0 && !chain.UseExternalRpcs {
			return fmt.Errorf("chain %s has no rpc urls configured", name)
		}
	}

	switch c.DbDriver {
	case "", "mysql", "postgres", "sqlite3":
	default:
		return fmt.Errorf("unsupported db driver %q", c.DbDriver)
	}

	return nil
}
