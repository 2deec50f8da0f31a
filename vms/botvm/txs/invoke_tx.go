// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import (
	"github.com/ava-labs/avalanchego/ids"
	"github.com/chain4travel/botvm/vms/botvm/dac"
)

var _ UnsignedTx = (*InvokeTx)(nil)

// InvokeTx executes a governable operation against [Target] with the
// privileges of the caller. It's how owners administer their contracts
// without a proposal.
type InvokeTx struct {
	Target   ids.ShortID `serialize:"true" json:"target"`
	CallData []byte      `serialize:"true" json:"callData"`
}

func (tx *InvokeTx) SyntacticVerify() error {
	if tx.Target == ids.ShortEmpty {
		return ErrNoContract
	}
	_, err := dac.Decode(tx.CallData)
	return err
}

func (tx *InvokeTx) Visit(visitor Visitor) error {
	return visitor.InvokeTx(tx)
}
