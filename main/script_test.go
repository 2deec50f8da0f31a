// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/chain4travel/botvm/genesis"
	"github.com/chain4travel/botvm/vms/botvm"
	"github.com/chain4travel/botvm/vms/botvm/dao"
)

const (
	ownerHex = "0x1000000000000000000000000000000000000001"
	aliceHex = "0x1000000000000000000000000000000000000002"
	bobHex   = "0x1000000000000000000000000000000000000003"
)

var genesisTime = time.Unix(1_700_000_000, 0)

func newTestVM(t *testing.T) *botvm.VM {
	t.Helper()
	require := require.New(t)

	owner, err := genesis.ParseAddress(ownerHex)
	require.NoError(err)
	genesisBytes, err := genesis.Default(owner, genesisTime).Bytes()
	require.NoError(err)

	vm := &botvm.VM{}
	vm.Clock().Set(genesisTime)
	require.NoError(vm.Initialize(memdb.New(), genesisBytes, logging.NoLog{}, prometheus.NewRegistry()))
	t.Cleanup(func() {
		require.NoError(vm.Shutdown())
	})
	return vm
}

func parseScript(t *testing.T, steps string) *Script {
	t.Helper()

	replacer := strings.NewReplacer(
		"$owner", ownerHex,
		"$alice", aliceHex,
		"$bob", bobHex,
		"$token", genesis.FormatAddress(genesis.DefaultTokenAddress),
		"$dao", genesis.FormatAddress(genesis.DefaultDAOAddress),
	)
	script, err := ParseScript(strings.NewReader(replacer.Replace(fmt.Sprintf(`{"steps": [%s]}`, steps))))
	require.NoError(t, err)
	return script
}

func TestRunGovernance(t *testing.T) {
	require := require.New(t)

	vm := newTestVM(t)
	script := parseScript(t, `
		{"action": "invoke", "caller": "$owner", "target": "$token", "op": {"type": "setDAO", "dao": "$dao"}},
		{"action": "transfer", "caller": "$owner", "token": "$token", "to": "$alice", "amount": "1000000000000000000000"},
		{"action": "approve", "caller": "$owner", "token": "$token", "spender": "$dao", "amount": "600000000000000000000000000"},
		{"action": "deposit", "caller": "$owner", "dao": "$dao", "amount": "600000000000000000000000000"},
		{"action": "propose", "caller": "$owner", "dao": "$dao", "target": "$token", "op": {"type": "setBurnFee", "percent": 5}, "description": "burn 5%"},
		{"action": "vote", "caller": "$owner", "dao": "$dao", "proposal": 0, "support": true},
		{"action": "finalize", "caller": "$alice", "dao": "$dao", "proposal": "0"},
		{"action": "advance", "by": "73h"},
		{"action": "finalize", "caller": "$alice", "dao": "$dao", "proposal": 0},
		{"action": "transfer", "caller": "$alice", "token": "$token", "to": "$bob", "amount": 100},
		{"action": "sendNative", "caller": "$owner", "to": "$alice", "amount": 1}
	`)

	results, err := newRunner(vm, logging.NoLog{}).Run(script)
	require.NoError(err)
	require.Len(results, 11)

	for i, result := range results[:6] {
		require.Empty(result.Error, "step %d", i)
		require.NotNil(result.Receipt, "step %d", i)
	}

	// voting is still open
	require.Contains(results[6].Error, dao.ErrVotingNotOverYet.Error())
	require.Nil(results[6].Receipt)

	require.Equal("advance", results[7].Action)
	require.Equal(genesisTime.Add(73*time.Hour).UTC(), results[7].Time)

	require.Empty(results[8].Error)
	require.NotNil(results[8].Receipt.ProposalPassed)
	require.True(*results[8].Receipt.ProposalPassed)

	require.Empty(results[9].Error)

	// the owner holds no native balance
	require.NotEmpty(results[10].Error)

	ledger, err := vm.Ledger(genesis.DefaultTokenAddress)
	require.NoError(err)
	burnFee, err := ledger.BurnFee()
	require.NoError(err)
	require.Equal(uint64(5), burnFee)
}

func TestRunMalformed(t *testing.T) {
	tests := map[string]struct {
		steps       string
		expectedErr error
	}{
		"Missing action": {
			steps:       `{"caller": "$owner"}`,
			expectedErr: errMissingField,
		},
		"Unknown action": {
			steps:       `{"action": "mint", "caller": "$owner"}`,
			expectedErr: errUnknownAction,
		},
		"Missing caller": {
			steps:       `{"action": "burn", "token": "$token", "amount": 1}`,
			expectedErr: errMissingField,
		},
		"Unknown operation": {
			steps:       `{"action": "invoke", "caller": "$owner", "target": "$token", "op": {"type": "selfDestruct"}}`,
			expectedErr: errUnknownOperation,
		},
		"Invalid amount": {
			steps:       `{"action": "burn", "caller": "$owner", "token": "$token", "amount": "1.5"}`,
			expectedErr: errInvalidAmount,
		},
		"Missing support": {
			steps:       `{"action": "vote", "caller": "$owner", "dao": "$dao", "proposal": 0}`,
			expectedErr: errMissingField,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			vm := newTestVM(t)
			script := parseScript(t, `{"action": "advance", "by": "1s"}, `+tt.steps)
			results, err := newRunner(vm, logging.NoLog{}).Run(script)
			require.ErrorIs(err, tt.expectedErr)
			require.Len(results, 1)
		})
	}
}

func TestProposalMinimumVotes(t *testing.T) {
	require := require.New(t)

	vm := newTestVM(t)
	script := parseScript(t, `
		{"action": "propose", "caller": "$owner", "dao": "$dao", "target": "$token", "op": {"type": "renounceOwnership"}},
		{"action": "propose", "caller": "$owner", "dao": "$dao", "target": "$token", "op": {"type": "setExcludedFromFee", "account": "$alice", "excluded": "true"}, "minimumVotes": "7"}
	`)
	results, err := newRunner(vm, logging.NoLog{}).Run(script)
	require.NoError(err)
	require.Len(results, 2)

	engine, err := vm.DAO(genesis.DefaultDAOAddress)
	require.NoError(err)

	proposal, err := engine.Proposal(0)
	require.NoError(err)
	require.Equal(dao.DefaultMinVotes, &proposal.MinimumVotesToVote)

	proposal, err = engine.Proposal(1)
	require.NoError(err)
	require.Equal(uint64(7), proposal.MinimumVotesToVote.Uint64())
	require.Equal(genesis.DefaultTokenAddress, proposal.Target)
}
