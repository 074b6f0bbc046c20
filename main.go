package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/evmorb/evmorb/chains/eth"
	"github.com/evmorb/evmorb/config"
	"github.com/evmorb/evmorb/database"
	"github.com/evmorb/evmorb/log"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "./evmorb.toml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	var db database.Database
	if cfg.DbDriver != "" {
		db = database.NewDb(cfg)
		if err := db.Init(); err != nil {
			panic(err)
		}
		defer db.Close()
	}

	ctx := context.Background()

	for name, chain := range cfg.Chains {
		facade, err := eth.Connect(ctx, chain, db)
		if err != nil {
			log.Errorf("Cannot connect to chain %s, err = %v", name, err)
			continue
		}

		version, err := facade.ClientVersion(ctx)
		if err != nil {
			log.Errorf("Cannot get client version for chain %s, err = %v", name, err)
		}

		chainID, err := facade.ChainID(ctx)
		if err != nil {
			log.Errorf("Cannot get chain id for chain %s, err = %v", name, err)
		}

		head, err := facade.GetBlockNumber(ctx)
		if err != nil {
			log.Errorf("Cannot get head block for chain %s, err = %v", name, err)
		}

		log.Infof("Connected to %s: version = %s, chain id = %v, head = %d",
			name, version, chainID, head)

		facade.Close()
	}
}
