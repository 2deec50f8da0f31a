// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/leveldb"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/perms"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/chain4travel/botvm/config"
	"github.com/chain4travel/botvm/genesis"
	"github.com/chain4travel/botvm/vms/botvm"
	"github.com/chain4travel/botvm/vms/botvm/events"
	"github.com/chain4travel/botvm/vms/botvm/indexer"

	vmgenesis "github.com/chain4travel/botvm/vms/botvm/genesis"
)

const dbNamespace = "db"

var errMissingOwner = errors.New("missing genesis owner")

// node is a vm together with the resources it runs on.
type node struct {
	log      logging.Logger
	db       database.Database
	registry *prometheus.Registry
	archive  *indexer.Indexer
	vm       *botvm.VM
}

func newNode(c config.Config, log logging.Logger) (*node, error) {
	n := &node{
		log:      log,
		registry: prometheus.NewRegistry(),
		vm:       &botvm.VM{},
	}

	var err error
	n.db, err = openDB(c, log, n.registry)
	if err != nil {
		return nil, err
	}

	sinks := []events.Sink{&events.LogSink{Log: log}}
	if c.PostgresDSN != "" {
		n.archive, err = indexer.New(c.PostgresDSN, log)
		if err != nil {
			_ = n.db.Close()
			return nil, err
		}
		sinks = append(sinks, n.archive)
	}

	genesisBytes, err := genesisBytesOf(c.Genesis, time.Now())
	switch {
	case errors.Is(err, errMissingOwner):
		// an existing chain ignores its genesis
		log.Debug("no genesis owner set")
	case err != nil:
		_ = n.close()
		return nil, err
	}
	if err := n.vm.Initialize(n.db, genesisBytes, log, n.registry, sinks...); err != nil {
		_ = n.close()
		return nil, fmt.Errorf("couldn't initialize vm: %w", err)
	}
	return n, nil
}

func openDB(c config.Config, log logging.Logger, registerer prometheus.Registerer) (database.Database, error) {
	if c.DBType == config.MemDB {
		return memdb.New(), nil
	}
	if err := os.MkdirAll(c.DataDir, perms.ReadWriteExecute); err != nil {
		return nil, fmt.Errorf("couldn't create data directory: %w", err)
	}
	db, err := leveldb.New(c.DataDir, nil, log, dbNamespace, registerer)
	if err != nil {
		return nil, fmt.Errorf("couldn't open database at %s: %w", c.DataDir, err)
	}
	return db, nil
}

// loadGenesis reads the genesis file if one is set, and builds the default
// genesis otherwise.
func loadGenesis(c config.GenesisConfig, now time.Time) (*vmgenesis.Genesis, error) {
	if c.File != "" {
		return genesis.FromFile(c.File)
	}
	if c.Owner == ids.ShortEmpty {
		return nil, errMissingOwner
	}

	gen := genesis.Default(c.Owner, now)
	token := &gen.Tokens[0]
	if c.MaxSupply != nil {
		token.MaxSupply = *c.MaxSupply
	}
	dao := &gen.DAOs[0]
	dao.DebatePeriod = uint64(c.DebatePeriod / time.Second)
	if c.MinVotes != nil {
		dao.MinVotes = *c.MinVotes
	}
	return gen, gen.Verify()
}

func genesisBytesOf(c config.GenesisConfig, now time.Time) ([]byte, error) {
	gen, err := loadGenesis(c, now)
	if err != nil {
		return nil, err
	}
	return gen.Bytes()
}

// writeMetrics dumps the metrics gathered by the node in the prometheus text
// format.
func (n *node) writeMetrics(path string) error {
	families, err := n.registry.Gather()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), perms.ReadWriteExecute); err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perms.ReadWrite)
	if err != nil {
		return err
	}
	encoder := expfmt.NewEncoder(file, expfmt.FmtText)
	for _, family := range families {
		if err := encoder.Encode(family); err != nil {
			_ = file.Close()
			return err
		}
	}
	n.log.Info("wrote metrics",
		zap.String("path", path),
		zap.Int("numFamilies", len(families)),
	)
	return file.Close()
}

func (n *node) close() error {
	errs := wrappers.Errs{}
	errs.Add(n.vm.Shutdown())
	if n.archive != nil {
		errs.Add(n.archive.Close())
	}
	errs.Add(n.db.Close())
	return errs.Err
}
