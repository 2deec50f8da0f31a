// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package builder

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/chain4travel/botvm/vms/botvm/dac"
	"github.com/chain4travel/botvm/vms/botvm/txs"
)

var _ Builder = (*builder)(nil)

type Builder interface {
	TokenTxBuilder
	DAOTxBuilder

	// caller: sender of the value
	// to: recipient of the value
	NewSendNativeTx(caller, to ids.ShortID, amount *uint256.Int) (*txs.Tx, error)

	// caller: holder of the source token
	// upgrader: upgrader swapping the source for the destination token
	NewUpgradeTx(caller, upgrader ids.ShortID) (*txs.Tx, error)

	// caller: owner of [target], or its dao
	// op: operation to execute against [target]
	NewInvokeTx(caller, target ids.ShortID, op dac.Operation) (*txs.Tx, error)
}

type TokenTxBuilder interface {
	NewTransferTx(caller, token, to ids.ShortID, amount *uint256.Int) (*txs.Tx, error)
	NewApproveTx(caller, token, spender ids.ShortID, amount *uint256.Int) (*txs.Tx, error)
	NewTransferFromTx(caller, token, from, to ids.ShortID, amount *uint256.Int) (*txs.Tx, error)
	NewBurnTx(caller, token ids.ShortID, amount *uint256.Int) (*txs.Tx, error)
}

type DAOTxBuilder interface {
	NewDepositTx(caller, dao ids.ShortID, amount *uint256.Int) (*txs.Tx, error)
	NewWithdrawTokensTx(caller, dao ids.ShortID, amount *uint256.Int) (*txs.Tx, error)
	NewVoteTx(caller, dao ids.ShortID, proposalID uint64, support bool) (*txs.Tx, error)

	// target: contract the proposal executes [op] against if it passes
	// minimumVotes: deposit a voter needs to vote on the proposal
	NewAddProposalTx(
		caller ids.ShortID,
		dao ids.ShortID,
		target ids.ShortID,
		op dac.Operation,
		description string,
		minimumVotes *uint256.Int,
	) (*txs.Tx, error)
	NewFinalizeProposalTx(caller, dao ids.ShortID, proposalID uint64) (*txs.Tx, error)
	NewEmergencyEndTx(caller, dao ids.ShortID, proposalID uint64) (*txs.Tx, error)
	NewWithdrawNativeTx(caller, dao, to ids.ShortID, amount *uint256.Int) (*txs.Tx, error)
}

func New() Builder {
	return &builder{}
}

type builder struct{}

func (*builder) newTx(caller ids.ShortID, utx txs.UnsignedTx) (*txs.Tx, error) {
	tx, err := txs.NewTx(caller, utx)
	if err != nil {
		return nil, err
	}
	if err := tx.SyntacticVerify(); err != nil {
		return nil, fmt.Errorf("built invalid tx: %w", err)
	}
	return tx, nil
}

func (b *builder) NewTransferTx(caller, token, to ids.ShortID, amount *uint256.Int) (*txs.Tx, error) {
	return b.newTx(caller, &txs.TransferTx{
		Token:  token,
		To:     to,
		Amount: *amount,
	})
}

func (b *builder) NewApproveTx(caller, token, spender ids.ShortID, amount *uint256.Int) (*txs.Tx, error) {
	return b.newTx(caller, &txs.ApproveTx{
		Token:   token,
		Spender: spender,
		Amount:  *amount,
	})
}

func (b *builder) NewTransferFromTx(caller, token, from, to ids.ShortID, amount *uint256.Int) (*txs.Tx, error) {
	return b.newTx(caller, &txs.TransferFromTx{
		Token:  token,
		From:   from,
		To:     to,
		Amount: *amount,
	})
}

func (b *builder) NewBurnTx(caller, token ids.ShortID, amount *uint256.Int) (*txs.Tx, error) {
	return b.newTx(caller, &txs.BurnTx{
		Token:  token,
		Amount: *amount,
	})
}

func (b *builder) NewInvokeTx(caller, target ids.ShortID, op dac.Operation) (*txs.Tx, error) {
	callData, err := dac.Encode(op)
	if err != nil {
		return nil, err
	}
	return b.newTx(caller, &txs.InvokeTx{
		Target:   target,
		CallData: callData,
	})
}

func (b *builder) NewDepositTx(caller, dao ids.ShortID, amount *uint256.Int) (*txs.Tx, error) {
	return b.newTx(caller, &txs.DepositTx{
		DAO:    dao,
		Amount: *amount,
	})
}

func (b *builder) NewWithdrawTokensTx(caller, dao ids.ShortID, amount *uint256.Int) (*txs.Tx, error) {
	return b.newTx(caller, &txs.WithdrawTokensTx{
		DAO:    dao,
		Amount: *amount,
	})
}

func (b *builder) NewVoteTx(caller, dao ids.ShortID, proposalID uint64, support bool) (*txs.Tx, error) {
	return b.newTx(caller, &txs.VoteTx{
		DAO:        dao,
		ProposalID: proposalID,
		Support:    support,
	})
}

func (b *builder) NewAddProposalTx(
	caller ids.ShortID,
	dao ids.ShortID,
	target ids.ShortID,
	op dac.Operation,
	description string,
	minimumVotes *uint256.Int,
) (*txs.Tx, error) {
	callData, err := dac.Encode(op)
	if err != nil {
		return nil, err
	}
	return b.newTx(caller, &txs.AddProposalTx{
		DAO:          dao,
		Target:       target,
		CallData:     callData,
		Description:  description,
		MinimumVotes: *minimumVotes,
	})
}

func (b *builder) NewFinalizeProposalTx(caller, dao ids.ShortID, proposalID uint64) (*txs.Tx, error) {
	return b.newTx(caller, &txs.FinalizeProposalTx{
		DAO:        dao,
		ProposalID: proposalID,
	})
}

func (b *builder) NewEmergencyEndTx(caller, dao ids.ShortID, proposalID uint64) (*txs.Tx, error) {
	return b.newTx(caller, &txs.EmergencyEndTx{
		DAO:        dao,
		ProposalID: proposalID,
	})
}

func (b *builder) NewWithdrawNativeTx(caller, dao, to ids.ShortID, amount *uint256.Int) (*txs.Tx, error) {
	return b.newTx(caller, &txs.WithdrawNativeTx{
		DAO:    dao,
		To:     to,
		Amount: *amount,
	})
}

func (b *builder) NewSendNativeTx(caller, to ids.ShortID, amount *uint256.Int) (*txs.Tx, error) {
	return b.newTx(caller, &txs.SendNativeTx{
		To:     to,
		Amount: *amount,
	})
}

func (b *builder) NewUpgradeTx(caller, upgrader ids.ShortID) (*txs.Tx, error) {
	return b.newTx(caller, &txs.UpgradeTx{
		Upgrader: upgrader,
	})
}
