// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/chain4travel/botvm/vms/botvm/dac"
	"github.com/chain4travel/botvm/vms/botvm/dao"
	"github.com/chain4travel/botvm/vms/botvm/events"
	"github.com/chain4travel/botvm/vms/botvm/native"
	"github.com/chain4travel/botvm/vms/botvm/state"
	"github.com/chain4travel/botvm/vms/botvm/token"
	"github.com/chain4travel/botvm/vms/botvm/txs"
	"github.com/chain4travel/botvm/vms/botvm/upgrade"
)

var (
	_ txs.Visitor  = (*StandardTxExecutor)(nil)
	_ dac.Resolver = (*StandardTxExecutor)(nil)

	errNoTokenOrDAO = errors.New("address is neither a token nor a dao")
)

type StandardTxExecutor struct {
	// inputs, to be filled before visitor methods are called
	State   state.Diff // state is expected to be modified
	Tx      *txs.Tx
	Emitter events.Emitter

	// outputs of visitor execution
	ProposalPassed *bool // set by FinalizeProposalTx
}

func (e *StandardTxExecutor) ledger(tokenID ids.ShortID) (*token.Ledger, error) {
	return token.New(e.State, tokenID, e.Emitter)
}

func (e *StandardTxExecutor) engine(daoID ids.ShortID) (*dao.Engine, error) {
	metadata, err := e.State.GetDAO(daoID)
	if err == database.ErrNotFound {
		return nil, fmt.Errorf("%w: %s", dao.ErrUnknownDAO, daoID)
	}
	if err != nil {
		return nil, err
	}
	ledger, err := e.ledger(metadata.Token)
	if err != nil {
		return nil, err
	}
	return dao.New(e.State, daoID, ledger, dac.NewRouter(e, e.Emitter), e.Emitter)
}

// Target resolves the contract deployed at [addr] for the router.
func (e *StandardTxExecutor) Target(addr ids.ShortID) (dac.Target, error) {
	if _, err := e.State.GetToken(addr); err == nil {
		return e.ledger(addr)
	} else if err != database.ErrNotFound {
		return nil, err
	}
	if _, err := e.State.GetDAO(addr); err == nil {
		return e.engine(addr)
	} else if err != database.ErrNotFound {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s: %w", dac.ErrUnknownTarget, addr, errNoTokenOrDAO)
}

func (e *StandardTxExecutor) TransferTx(tx *txs.TransferTx) error {
	ledger, err := e.ledger(tx.Token)
	if err != nil {
		return err
	}
	return ledger.Transfer(e.Tx.Caller, tx.To, &tx.Amount)
}

func (e *StandardTxExecutor) ApproveTx(tx *txs.ApproveTx) error {
	ledger, err := e.ledger(tx.Token)
	if err != nil {
		return err
	}
	return ledger.Approve(e.Tx.Caller, tx.Spender, &tx.Amount)
}

func (e *StandardTxExecutor) TransferFromTx(tx *txs.TransferFromTx) error {
	ledger, err := e.ledger(tx.Token)
	if err != nil {
		return err
	}
	return ledger.TransferFrom(e.Tx.Caller, tx.From, tx.To, &tx.Amount)
}

func (e *StandardTxExecutor) BurnTx(tx *txs.BurnTx) error {
	ledger, err := e.ledger(tx.Token)
	if err != nil {
		return err
	}
	return ledger.Burn(e.Tx.Caller, &tx.Amount)
}

func (e *StandardTxExecutor) InvokeTx(tx *txs.InvokeTx) error {
	return dac.NewRouter(e, e.Emitter).Invoke(e.Tx.Caller, tx.Target, tx.CallData)
}

func (e *StandardTxExecutor) DepositTx(tx *txs.DepositTx) error {
	engine, err := e.engine(tx.DAO)
	if err != nil {
		return err
	}
	return engine.Deposit(e.Tx.Caller, &tx.Amount)
}

func (e *StandardTxExecutor) WithdrawTokensTx(tx *txs.WithdrawTokensTx) error {
	engine, err := e.engine(tx.DAO)
	if err != nil {
		return err
	}
	return engine.WithdrawTokens(e.Tx.Caller, &tx.Amount)
}

func (e *StandardTxExecutor) VoteTx(tx *txs.VoteTx) error {
	engine, err := e.engine(tx.DAO)
	if err != nil {
		return err
	}
	return engine.Vote(e.Tx.Caller, tx.ProposalID, tx.Support)
}

func (e *StandardTxExecutor) AddProposalTx(tx *txs.AddProposalTx) error {
	engine, err := e.engine(tx.DAO)
	if err != nil {
		return err
	}
	_, err = engine.AddProposal(e.Tx.Caller, tx.Target, tx.CallData, tx.Description, &tx.MinimumVotes)
	return err
}

func (e *StandardTxExecutor) FinalizeProposalTx(tx *txs.FinalizeProposalTx) error {
	engine, err := e.engine(tx.DAO)
	if err != nil {
		return err
	}
	passed, err := engine.Finalize(tx.ProposalID)
	if err != nil {
		return err
	}
	e.ProposalPassed = &passed
	return nil
}

func (e *StandardTxExecutor) EmergencyEndTx(tx *txs.EmergencyEndTx) error {
	engine, err := e.engine(tx.DAO)
	if err != nil {
		return err
	}
	return engine.EmergencyEnd(e.Tx.Caller, tx.ProposalID)
}

func (e *StandardTxExecutor) WithdrawNativeTx(tx *txs.WithdrawNativeTx) error {
	engine, err := e.engine(tx.DAO)
	if err != nil {
		return err
	}
	return engine.WithdrawETH(e.Tx.Caller, tx.To, &tx.Amount)
}

func (e *StandardTxExecutor) SendNativeTx(tx *txs.SendNativeTx) error {
	if err := native.Transfer(e.State, e.Tx.Caller, tx.To, &tx.Amount); err != nil {
		return err
	}
	e.Emitter.Emit(&events.NativeSent{
		From:   e.Tx.Caller,
		To:     tx.To,
		Amount: tx.Amount.Clone(),
	})
	return nil
}

func (e *StandardTxExecutor) UpgradeTx(tx *txs.UpgradeTx) error {
	upgrader, err := upgrade.New(e.State, tx.Upgrader, e.Emitter)
	if err != nil {
		return err
	}
	_, err = upgrader.Upgrade(e.Tx.Caller)
	return err
}
