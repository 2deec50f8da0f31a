// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"github.com/ava-labs/avalanchego/ids"
	"github.com/chain4travel/botvm/vms/botvm/dac"
	"github.com/chain4travel/botvm/vms/botvm/holders"
	"github.com/chain4travel/botvm/vms/botvm/state"
)

var (
	_ dac.ExecutorVisitor = (*operationExecutor)(nil)
	_ holders.Backend     = (*holderBackend)(nil)
)

// Execute runs a governable operation with the privileges of [caller].
func (l *Ledger) Execute(caller ids.ShortID, op dac.Operation) error {
	if err := op.Verify(); err != nil {
		return err
	}
	return op.Visit(&operationExecutor{
		ledger: l,
		caller: caller,
	})
}

type operationExecutor struct {
	ledger *Ledger
	caller ids.ShortID
}

func (e *operationExecutor) SetBurnFee(op *dac.SetBurnFee) error {
	return e.ledger.SetBurnFee(e.caller, op.Percent)
}

func (e *operationExecutor) SetMaxTxPercent(op *dac.SetMaxTxPercent) error {
	return e.ledger.SetMaxTxPercent(e.caller, op.Percent)
}

func (e *operationExecutor) SetMaxWalletPercent(op *dac.SetMaxWalletPercent) error {
	return e.ledger.SetMaxWalletPercent(e.caller, op.Percent)
}

func (e *operationExecutor) SetExcludedHolder(op *dac.SetExcludedHolder) error {
	return e.ledger.SetExcludedHolder(e.caller, op.Account, op.Excluded)
}

func (e *operationExecutor) SetExcludedFromFee(op *dac.SetExcludedFromFee) error {
	return e.ledger.SetExcludedFromFee(e.caller, op.Account, op.Excluded)
}

func (e *operationExecutor) SetExcludedFromMaxWallet(op *dac.SetExcludedFromMaxWallet) error {
	return e.ledger.SetExcludedFromMaxWallet(e.caller, op.Account, op.Excluded)
}

func (e *operationExecutor) SetExcludedFromMaxTx(op *dac.SetExcludedFromMaxTx) error {
	return e.ledger.SetExcludedFromMaxTx(e.caller, op.Account, op.Excluded)
}

func (e *operationExecutor) SetExcludedFromCirculation(op *dac.SetExcludedFromCirculation) error {
	return e.ledger.SetExcludedFromCirculation(e.caller, op.Account, op.Excluded)
}

func (e *operationExecutor) SetDAO(op *dac.SetDAO) error {
	return e.ledger.SetDAO(e.caller, op.DAO)
}

func (e *operationExecutor) TransferOwnership(op *dac.TransferOwnership) error {
	return e.ledger.TransferOwnership(e.caller, op.NewOwner)
}

func (e *operationExecutor) RenounceOwnership(*dac.RenounceOwnership) error {
	return e.ledger.RenounceOwnership(e.caller)
}

// holderBackend stores the holder registry of one token in the chain state.
type holderBackend struct {
	chain   state.Chain
	tokenID ids.ShortID
}

func (b *holderBackend) HolderCount() (uint64, error) {
	return b.chain.GetHolderCount(b.tokenID)
}

func (b *holderBackend) SetHolderCount(count uint64) {
	b.chain.SetHolderCount(b.tokenID, count)
}

func (b *holderBackend) HolderAt(index uint64) (ids.ShortID, error) {
	return b.chain.GetHolder(b.tokenID, index)
}

func (b *holderBackend) SetHolderAt(index uint64, addr ids.ShortID) {
	b.chain.SetHolder(b.tokenID, index, addr)
}

func (b *holderBackend) DeleteHolderAt(index uint64) {
	b.chain.DeleteHolder(b.tokenID, index)
}

func (b *holderBackend) HolderIndex(addr ids.ShortID) (uint64, bool, error) {
	return b.chain.GetHolderIndex(b.tokenID, addr)
}

func (b *holderBackend) SetHolderIndex(addr ids.ShortID, index uint64) {
	b.chain.SetHolderIndex(b.tokenID, addr, index)
}

func (b *holderBackend) DeleteHolderIndex(addr ids.ShortID) {
	b.chain.DeleteHolderIndex(b.tokenID, addr)
}
