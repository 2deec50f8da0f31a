// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/holiman/uint256"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/chain4travel/botvm/vms/botvm/dao"
	"github.com/chain4travel/botvm/vms/botvm/genesis"
)

const (
	TokenName     = "BOT"
	TokenSymbol   = "BOT"
	TokenDecimals = 18
)

var (
	// DefaultMaxSupply is one billion tokens of 18 decimals.
	DefaultMaxSupply = uint256.MustFromDecimal("1000000000000000000000000000")

	// Default contract addresses are derived from their names, so they're
	// stable across runs.
	DefaultTokenAddress = ids.ShortID(hashing.ComputeHash160Array([]byte("bot token")))
	DefaultDAOAddress   = ids.ShortID(hashing.ComputeHash160Array([]byte("bot dao")))
)

// Default returns the genesis of a single token governed by a dao. The owner
// receives the full supply and owns both contracts. The dao is not bound to
// the token: the owner binds it with a SetDAO invocation once holders have
// deposited.
func Default(owner ids.ShortID, timestamp time.Time) *genesis.Genesis {
	return &genesis.Genesis{
		Timestamp: uint64(timestamp.Unix()),
		Tokens: []genesis.Token{{
			ID:               DefaultTokenAddress,
			Name:             TokenName,
			Symbol:           TokenSymbol,
			Decimals:         TokenDecimals,
			Owner:            owner,
			MaxSupply:        *DefaultMaxSupply,
			MaxTxPercent:     100,
			MaxWalletPercent: 100,
		}},
		DAOs: []genesis.DAO{{
			ID:               DefaultDAOAddress,
			Owner:            owner,
			Token:            DefaultTokenAddress,
			MinQuorumPercent: dao.DefaultMinQuorumPercent,
			DebatePeriod:     uint64(dao.DefaultDebatePeriod / time.Second),
			MinVotes:         *dao.DefaultMinVotes,
		}},
	}
}

func FromJSON(genesisJSON []byte) (*genesis.Genesis, error) {
	uc := UnparsedConfig{}
	if err := json.Unmarshal(genesisJSON, &uc); err != nil {
		return nil, fmt.Errorf("could not unmarshal JSON: %w", err)
	}
	return uc.Parse()
}

func FromFile(filePath string) (*genesis.Genesis, error) {
	genesisJSON, err := os.ReadFile(filepath.Clean(filePath))
	if err != nil {
		return nil, fmt.Errorf("unable to load file %s: %w", filePath, err)
	}
	return FromJSON(genesisJSON)
}

func ToJSON(g *genesis.Genesis) ([]byte, error) {
	uc := UnparsedConfig{}
	uc.Unparse(g)
	return json.MarshalIndent(uc, "", "\t")
}
