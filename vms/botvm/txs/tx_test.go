// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import (
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/chain4travel/botvm/vms/botvm/dac"
)

func TestParse(t *testing.T) {
	require := require.New(t)

	callData, err := dac.Encode(&dac.SetBurnFee{Percent: 5})
	require.NoError(err)
	tx, err := NewTx(ids.GenerateTestShortID(), &AddProposalTx{
		DAO:          ids.GenerateTestShortID(),
		Target:       ids.GenerateTestShortID(),
		CallData:     callData,
		Description:  "burn 5%",
		MinimumVotes: *uint256.NewInt(1_000),
	})
	require.NoError(err)
	require.NoError(tx.SyntacticVerify())

	parsed, err := Parse(Codec, tx.Bytes())
	require.NoError(err)
	require.Equal(tx.ID(), parsed.ID())
	require.Equal(tx.Caller, parsed.Caller)
	require.Equal(tx.Unsigned, parsed.Unsigned)

	other, err := NewTx(tx.Caller, &VoteTx{DAO: ids.GenerateTestShortID()})
	require.NoError(err)
	require.NotEqual(tx.ID(), other.ID())

	_, err = Parse(Codec, []byte{0, 0, 0, 0, 0xff})
	require.Error(err)
}

func TestSyntacticVerify(t *testing.T) {
	callData, err := dac.Encode(&dac.RenounceOwnership{})
	require.NoError(t, err)
	contract := ids.GenerateTestShortID()

	tests := map[string]struct {
		caller      ids.ShortID
		unsigned    UnsignedTx
		expectedErr error
	}{
		"Valid transfer": {
			unsigned: &TransferTx{Token: contract, To: contract},
		},
		"No caller": {
			caller:      ids.ShortEmpty,
			unsigned:    &TransferTx{Token: contract, To: contract},
			expectedErr: ErrNoCaller,
		},
		"Transfer without token": {
			unsigned:    &TransferTx{To: contract},
			expectedErr: ErrNoContract,
		},
		"Approve without spender": {
			unsigned:    &ApproveTx{Token: contract},
			expectedErr: ErrNoSpender,
		},
		"TransferFrom without sender": {
			unsigned:    &TransferFromTx{Token: contract, To: contract},
			expectedErr: ErrNoSender,
		},
		"Invoke with empty call data": {
			unsigned:    &InvokeTx{Target: contract},
			expectedErr: dac.ErrEmptyCallData,
		},
		"Valid invoke": {
			unsigned: &InvokeTx{Target: contract, CallData: callData},
		},
		"Proposal without target": {
			unsigned:    &AddProposalTx{DAO: contract, CallData: callData},
			expectedErr: dac.ErrZeroAddress,
		},
		"Proposal description too long": {
			unsigned: &AddProposalTx{
				DAO:         contract,
				Target:      contract,
				CallData:    callData,
				Description: strings.Repeat("a", MaxDescriptionLen+1),
			},
			expectedErr: errDescriptionTooLong,
		},
		"Send zero native": {
			unsigned:    &SendNativeTx{To: contract},
			expectedErr: ErrZeroAmount,
		},
		"Withdraw native without recipient": {
			unsigned:    &WithdrawNativeTx{DAO: contract},
			expectedErr: ErrNoRecipient,
		},
		"Upgrade without upgrader": {
			unsigned:    &UpgradeTx{},
			expectedErr: ErrNoContract,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			caller := tt.caller
			if caller == ids.ShortEmpty && tt.expectedErr != ErrNoCaller {
				caller = ids.GenerateTestShortID()
			}
			tx := &Tx{
				Caller:   caller,
				Unsigned: tt.unsigned,
			}
			require.ErrorIs(t, tx.SyntacticVerify(), tt.expectedErr)
		})
	}
}
