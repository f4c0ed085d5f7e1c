package main

import (
	"log"

	"github.com/iamNilotpal/strata/pkg/errors"
	"github.com/iamNilotpal/strata/pkg/logger"
	"github.com/iamNilotpal/strata/pkg/options"
	"github.com/iamNilotpal/strata/pkg/relation"
	"github.com/iamNilotpal/strata/pkg/strata"
)

func main() {
	cache, err := strata.New(
		logger.New("strata"),
		options.WithDataDir("/tmp/strata-demo"),
		options.WithSegmentCapacity(4),
	)
	if err != nil {
		log.Fatalf("cache create error : %#v \n", err)
	}

	defer func() {
		if err := cache.Shutdown(); err != nil {
			log.Fatalf("cache shutdown error : %#v \n", err)
		}
	}()

	h := cache.Open(relation.LocatorBackend{
		Locator: relation.Locator{Tablespace: 1663, Database: 5, Relation: 16384},
		Backend: relation.InvalidBackendID,
	})

	if err := cache.Create(h, relation.ForkMain, strata.ModeNormal); err != nil {
		log.Fatalf("create error : %#v \n", err)
	}

	block := make([]byte, cache.BlockSize())
	copy(block, []byte("first block"))

	if err := cache.Extend(h, relation.ForkMain, 0, block, false); err != nil {
		if err, ok := errors.AsStorageError(err); ok {
			log.Printf("Code: %#v \n", err.Code())
			log.Printf("Relation: %#v \n", err.Relation())
			log.Printf("Fork: %#v \n", err.Fork())
			log.Printf("Block: %#v \n", err.Block())
			log.Printf("Path: %#v \n", err.Path())
		}
		log.Fatalf("extend error : %v \n", err)
	}

	if err := cache.ZeroExtend(h, relation.ForkMain, 1, 9, true); err != nil {
		log.Fatalf("zero extend error : %v \n", err)
	}

	nblocks, err := cache.Nblocks(h, relation.ForkMain)
	if err != nil {
		log.Fatalf("nblocks error : %v \n", err)
	}
	log.Printf("fork holds %d blocks across segments\n", nblocks)

	if err := cache.SyncAll([]*strata.Handle{h}); err != nil {
		log.Fatalf("sync error : %v \n", err)
	}

	if err := cache.AtEndOfTransaction(); err != nil {
		log.Fatalf("transaction cleanup error : %v \n", err)
	}
}
