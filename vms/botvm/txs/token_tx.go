// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/ava-labs/avalanchego/ids"
)

var (
	_ UnsignedTx = (*TransferTx)(nil)
	_ UnsignedTx = (*ApproveTx)(nil)
	_ UnsignedTx = (*TransferFromTx)(nil)
	_ UnsignedTx = (*BurnTx)(nil)

	ErrNoContract  = errors.New("tx has no contract address")
	ErrNoRecipient = errors.New("tx has no recipient")
	ErrNoSpender   = errors.New("tx has no spender")
	ErrNoSender    = errors.New("tx has no sender")
	ErrZeroAmount  = errors.New("tx amount is zero")
)

// TransferTx moves tokens from the caller to [To].
type TransferTx struct {
	Token  ids.ShortID `serialize:"true" json:"token"`
	To     ids.ShortID `serialize:"true" json:"to"`
	Amount uint256.Int `serialize:"true" json:"amount"`
}

func (tx *TransferTx) SyntacticVerify() error {
	switch {
	case tx.Token == ids.ShortEmpty:
		return ErrNoContract
	case tx.To == ids.ShortEmpty:
		return ErrNoRecipient
	default:
		return nil
	}
}

func (tx *TransferTx) Visit(visitor Visitor) error {
	return visitor.TransferTx(tx)
}

// ApproveTx sets the allowance of [Spender] over the caller's tokens.
type ApproveTx struct {
	Token   ids.ShortID `serialize:"true" json:"token"`
	Spender ids.ShortID `serialize:"true" json:"spender"`
	Amount  uint256.Int `serialize:"true" json:"amount"`
}

func (tx *ApproveTx) SyntacticVerify() error {
	switch {
	case tx.Token == ids.ShortEmpty:
		return ErrNoContract
	case tx.Spender == ids.ShortEmpty:
		return ErrNoSpender
	default:
		return nil
	}
}

func (tx *ApproveTx) Visit(visitor Visitor) error {
	return visitor.ApproveTx(tx)
}

// TransferFromTx spends the caller's allowance over [From].
type TransferFromTx struct {
	Token  ids.ShortID `serialize:"true" json:"token"`
	From   ids.ShortID `serialize:"true" json:"from"`
	To     ids.ShortID `serialize:"true" json:"to"`
	Amount uint256.Int `serialize:"true" json:"amount"`
}

func (tx *TransferFromTx) SyntacticVerify() error {
	switch {
	case tx.Token == ids.ShortEmpty:
		return ErrNoContract
	case tx.From == ids.ShortEmpty:
		return ErrNoSender
	case tx.To == ids.ShortEmpty:
		return ErrNoRecipient
	default:
		return nil
	}
}

func (tx *TransferFromTx) Visit(visitor Visitor) error {
	return visitor.TransferFromTx(tx)
}

// BurnTx destroys tokens of the caller.
type BurnTx struct {
	Token  ids.ShortID `serialize:"true" json:"token"`
	Amount uint256.Int `serialize:"true" json:"amount"`
}

func (tx *BurnTx) SyntacticVerify() error {
	if tx.Token == ids.ShortEmpty {
		return ErrNoContract
	}
	return nil
}

func (tx *BurnTx) Visit(visitor Visitor) error {
	return visitor.BurnTx(tx)
}
