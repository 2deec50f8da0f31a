// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package genesis

import (
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/chain4travel/botvm/vms/botvm/dao"
	"github.com/chain4travel/botvm/vms/botvm/events"
	"github.com/chain4travel/botvm/vms/botvm/state"
	"github.com/chain4travel/botvm/vms/botvm/token"
)

var (
	owner      = ids.GenerateTestShortID()
	alice      = ids.GenerateTestShortID()
	treasury   = ids.GenerateTestShortID()
	tokenID    = ids.GenerateTestShortID()
	newTokenID = ids.GenerateTestShortID()
	daoID      = ids.GenerateTestShortID()
	upgraderID = ids.GenerateTestShortID()

	e18 = uint256.NewInt(1_000_000_000_000_000_000)
)

func tokens(n uint64) uint256.Int {
	return *new(uint256.Int).Mul(uint256.NewInt(n), e18)
}

func testGenesis() *Genesis {
	return &Genesis{
		Timestamp: 1_700_000_000,
		Tokens: []Token{
			{
				ID:               tokenID,
				Name:             "BOT",
				Symbol:           "BOT",
				Decimals:         18,
				Owner:            owner,
				MaxSupply:        tokens(1_000_000_000),
				BurnFeePercent:   5,
				MaxTxPercent:     10,
				MaxWalletPercent: 20,
				Exclusions: []Exclusion{
					{Address: treasury, Fee: true, MaxWallet: true, Circulation: true, Holder: true},
				},
				Allocations: []Allocation{
					{Address: alice, Amount: tokens(100_000_000)},
					{Address: treasury, Amount: tokens(50_000_000)},
				},
			},
			{
				ID:               newTokenID,
				Name:             "BOT",
				Symbol:           "BOT",
				Decimals:         18,
				Owner:            owner,
				MaxSupply:        tokens(1_000_000_000),
				MaxTxPercent:     100,
				MaxWalletPercent: 100,
				Allocations: []Allocation{
					{Address: upgraderID, Amount: tokens(500_000_000)},
				},
			},
		},
		DAOs: []DAO{
			{
				ID:               daoID,
				Owner:            owner,
				Token:            tokenID,
				MinQuorumPercent: dao.DefaultMinQuorumPercent,
				DebatePeriod:     uint64(dao.DefaultDebatePeriod / time.Second),
				MinVotes:         tokens(1_000),
				BindToToken:      true,
			},
		},
		Upgraders: []Upgrader{
			{ID: upgraderID, Source: tokenID, Destination: newTokenID},
		},
		NativeAllocations: []NativeAllocation{
			{Address: owner, Amount: *uint256.NewInt(1_000)},
		},
		Message: "test",
	}
}

func TestApply(t *testing.T) {
	require := require.New(t)

	s, err := state.New(memdb.New(), prometheus.NewRegistry())
	require.NoError(err)
	buffer := &events.Buffer{}
	require.NoError(testGenesis().Apply(s, buffer))

	require.Equal(time.Unix(1_700_000_000, 0), s.GetTimestamp())

	ledger, err := token.New(s, tokenID, buffer)
	require.NoError(err)

	// owner is fee excluded, so allocations arrive in full
	balance, err := ledger.BalanceOf(alice)
	require.NoError(err)
	require.Equal(tokens(100_000_000), *balance)
	totalSupply, err := ledger.TotalSupply()
	require.NoError(err)
	require.Equal(tokens(1_000_000_000), *totalSupply)

	circulation, err := ledger.CirculationSupply()
	require.NoError(err)
	require.Equal(tokens(950_000_000), *circulation)

	holders, err := ledger.NumberOfHolders()
	require.NoError(err)
	require.Equal(uint64(2), holders)
	holder, err := ledger.Holder(0)
	require.NoError(err)
	require.Equal(owner, holder)

	boundDAO, err := ledger.DAO()
	require.NoError(err)
	require.Equal(daoID, boundDAO)
	config, err := ledger.WalletConfig(daoID)
	require.NoError(err)
	require.True(config.IsExcludedFromFee)
	require.True(config.IsExcludedFromMaxWalletAmount)
	require.True(config.IsExcludedFromMaxTxAmount)
	require.False(config.IsExcludedFromCirculationSupply)

	daoState, err := s.GetDAO(daoID)
	require.NoError(err)
	require.Equal(uint64(259_200), daoState.DebatePeriod)
	require.Equal(tokens(1_000), daoState.MinVotes)

	upgrader, err := s.GetUpgrader(upgraderID)
	require.NoError(err)
	require.Equal(newTokenID, upgrader.Destination)

	nativeBalance, err := s.GetNativeBalance(owner)
	require.NoError(err)
	require.Equal(uint256.NewInt(1_000), nativeBalance)
}

func TestParse(t *testing.T) {
	require := require.New(t)

	gen := testGenesis()
	genesisBytes, err := gen.Bytes()
	require.NoError(err)

	parsed, err := Parse(genesisBytes)
	require.NoError(err)
	require.Equal(gen.Tokens[0].Allocations, parsed.Tokens[0].Allocations)
	require.Equal(gen.DAOs, parsed.DAOs)
	parsedBytes, err := parsed.Bytes()
	require.NoError(err)
	require.Equal(genesisBytes, parsedBytes)

	_, err = Parse(genesisBytes[:len(genesisBytes)-1])
	require.Error(err)
}

func TestVerify(t *testing.T) {
	tests := map[string]struct {
		mutate      func(*Genesis)
		expectedErr error
	}{
		"Valid": {
			mutate: func(*Genesis) {},
		},
		"Token and dao share an address": {
			mutate: func(g *Genesis) {
				g.DAOs[0].ID = tokenID
			},
			expectedErr: ErrDuplicateAddress,
		},
		"Upgrader reuses a dao address": {
			mutate: func(g *Genesis) {
				g.Upgraders[0].ID = daoID
			},
			expectedErr: ErrDuplicateAddress,
		},
		"Empty token address": {
			mutate: func(g *Genesis) {
				g.Tokens[1].ID = ids.ShortEmpty
			},
			expectedErr: errZeroAddress,
		},
		"Zero allocation": {
			mutate: func(g *Genesis) {
				g.Tokens[0].Allocations[0].Amount = uint256.Int{}
			},
			expectedErr: errZeroAllocation,
		},
		"Zero native allocation": {
			mutate: func(g *Genesis) {
				g.NativeAllocations[0].Amount = uint256.Int{}
			},
			expectedErr: errZeroAllocation,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			gen := testGenesis()
			tt.mutate(gen)
			require.ErrorIs(t, gen.Verify(), tt.expectedErr)
		})
	}
}

func TestApplyFailures(t *testing.T) {
	tests := map[string]struct {
		mutate      func(*Genesis)
		expectedErr error
	}{
		"Allocation above max wallet": {
			mutate: func(g *Genesis) {
				g.Tokens[0].Allocations[0].Amount = tokens(300_000_000)
			},
			expectedErr: token.ErrExceedsMaxWallet,
		},
		"Dao of unknown token": {
			mutate: func(g *Genesis) {
				g.DAOs[0].Token = ids.GenerateTestShortID()
			},
			expectedErr: token.ErrUnknownToken,
		},
		"Upgrader of unknown token": {
			mutate: func(g *Genesis) {
				g.Upgraders[0].Destination = ids.GenerateTestShortID()
			},
			expectedErr: token.ErrUnknownToken,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			s, err := state.New(memdb.New(), prometheus.NewRegistry())
			require.NoError(err)
			gen := testGenesis()
			tt.mutate(gen)

			err = gen.Apply(s, &events.Buffer{})
			require.ErrorIs(err, tt.expectedErr)
		})
	}
}
