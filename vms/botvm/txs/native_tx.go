// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import (
	"github.com/holiman/uint256"

	"github.com/ava-labs/avalanchego/ids"
)

var (
	_ UnsignedTx = (*SendNativeTx)(nil)
	_ UnsignedTx = (*UpgradeTx)(nil)
)

// SendNativeTx moves native value from the caller to [To].
type SendNativeTx struct {
	To     ids.ShortID `serialize:"true" json:"to"`
	Amount uint256.Int `serialize:"true" json:"amount"`
}

func (tx *SendNativeTx) SyntacticVerify() error {
	switch {
	case tx.To == ids.ShortEmpty:
		return ErrNoRecipient
	case tx.Amount.IsZero():
		return ErrZeroAmount
	default:
		return nil
	}
}

func (tx *SendNativeTx) Visit(visitor Visitor) error {
	return visitor.SendNativeTx(tx)
}

// UpgradeTx swaps the caller's whole source balance at [Upgrader].
type UpgradeTx struct {
	Upgrader ids.ShortID `serialize:"true" json:"upgrader"`
}

func (tx *UpgradeTx) SyntacticVerify() error {
	if tx.Upgrader == ids.ShortEmpty {
		return ErrNoContract
	}
	return nil
}

func (tx *UpgradeTx) Visit(visitor Visitor) error {
	return visitor.UpgradeTx(tx)
}
