// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package native

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/chain4travel/botvm/vms/botvm/state"
)

func TestTransfer(t *testing.T) {
	alice := ids.GenerateTestShortID()
	bob := ids.GenerateTestShortID()

	tests := map[string]struct {
		to            ids.ShortID
		amount        *uint256.Int
		expectedErr   error
		expectedAlice *uint256.Int
		expectedBob   *uint256.Int
	}{
		"Transfer": {
			to:            bob,
			amount:        uint256.NewInt(4),
			expectedAlice: uint256.NewInt(6),
			expectedBob:   uint256.NewInt(4),
		},
		"Whole balance": {
			to:            bob,
			amount:        uint256.NewInt(10),
			expectedAlice: uint256.NewInt(0),
			expectedBob:   uint256.NewInt(10),
		},
		"Insufficient funds": {
			to:          bob,
			amount:      uint256.NewInt(11),
			expectedErr: ErrInsufficientFunds,
		},
		"Zero recipient": {
			to:          ids.ShortEmpty,
			amount:      uint256.NewInt(1),
			expectedErr: ErrZeroRecipient,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			chain, err := state.New(memdb.New(), prometheus.NewRegistry())
			require.NoError(err)
			require.NoError(Mint(chain, alice, uint256.NewInt(10)))

			err = Transfer(chain, alice, tt.to, tt.amount)
			require.ErrorIs(err, tt.expectedErr)
			if tt.expectedErr != nil {
				return
			}

			balance, err := chain.GetNativeBalance(alice)
			require.NoError(err)
			require.Equal(tt.expectedAlice, balance)
			balance, err = chain.GetNativeBalance(bob)
			require.NoError(err)
			require.Equal(tt.expectedBob, balance)
		})
	}
}

func TestMintOverflow(t *testing.T) {
	require := require.New(t)

	chain, err := state.New(memdb.New(), prometheus.NewRegistry())
	require.NoError(err)

	addr := ids.GenerateTestShortID()
	maxAmount := new(uint256.Int).SetAllOne()
	require.NoError(Mint(chain, addr, maxAmount))
	require.ErrorIs(Mint(chain, addr, uint256.NewInt(1)), errBalanceOverflow)
}
