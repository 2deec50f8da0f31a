// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package dao

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/chain4travel/botvm/vms/botvm/dac"
)

// Execute runs a governable operation against the dao. Only the ownership
// operations apply to a dao.
func (e *Engine) Execute(caller ids.ShortID, op dac.Operation) error {
	if err := op.Verify(); err != nil {
		return err
	}
	return op.Visit(&ownershipExecutor{
		engine: e,
		caller: caller,
	})
}

type ownershipExecutor struct {
	engine *Engine
	caller ids.ShortID
}

func (e *ownershipExecutor) TransferOwnership(op *dac.TransferOwnership) error {
	return e.engine.TransferOwnership(e.caller, op.NewOwner)
}

func (e *ownershipExecutor) RenounceOwnership(*dac.RenounceOwnership) error {
	return e.engine.RenounceOwnership(e.caller)
}

func (e *ownershipExecutor) SetBurnFee(op *dac.SetBurnFee) error {
	return e.unsupported(op)
}

func (e *ownershipExecutor) SetMaxTxPercent(op *dac.SetMaxTxPercent) error {
	return e.unsupported(op)
}

func (e *ownershipExecutor) SetMaxWalletPercent(op *dac.SetMaxWalletPercent) error {
	return e.unsupported(op)
}

func (e *ownershipExecutor) SetExcludedHolder(op *dac.SetExcludedHolder) error {
	return e.unsupported(op)
}

func (e *ownershipExecutor) SetExcludedFromFee(op *dac.SetExcludedFromFee) error {
	return e.unsupported(op)
}

func (e *ownershipExecutor) SetExcludedFromMaxWallet(op *dac.SetExcludedFromMaxWallet) error {
	return e.unsupported(op)
}

func (e *ownershipExecutor) SetExcludedFromMaxTx(op *dac.SetExcludedFromMaxTx) error {
	return e.unsupported(op)
}

func (e *ownershipExecutor) SetExcludedFromCirculation(op *dac.SetExcludedFromCirculation) error {
	return e.unsupported(op)
}

func (e *ownershipExecutor) SetDAO(op *dac.SetDAO) error {
	return e.unsupported(op)
}

func (e *ownershipExecutor) unsupported(op dac.Operation) error {
	return fmt.Errorf("%w: %s on dao %s", dac.ErrUnsupportedOperation, op, e.engine.daoID)
}
