// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/chain4travel/botvm/vms/botvm/dac"
)

const MaxDescriptionLen = 1024

var (
	_ UnsignedTx = (*DepositTx)(nil)
	_ UnsignedTx = (*WithdrawTokensTx)(nil)
	_ UnsignedTx = (*VoteTx)(nil)
	_ UnsignedTx = (*AddProposalTx)(nil)
	_ UnsignedTx = (*FinalizeProposalTx)(nil)
	_ UnsignedTx = (*EmergencyEndTx)(nil)
	_ UnsignedTx = (*WithdrawNativeTx)(nil)

	errDescriptionTooLong = errors.New("proposal description is too long")
)

// DepositTx locks tokens of the caller in a dao as voting power.
type DepositTx struct {
	DAO    ids.ShortID `serialize:"true" json:"dao"`
	Amount uint256.Int `serialize:"true" json:"amount"`
}

func (tx *DepositTx) SyntacticVerify() error {
	if tx.DAO == ids.ShortEmpty {
		return ErrNoContract
	}
	return nil
}

func (tx *DepositTx) Visit(visitor Visitor) error {
	return visitor.DepositTx(tx)
}

type WithdrawTokensTx struct {
	DAO    ids.ShortID `serialize:"true" json:"dao"`
	Amount uint256.Int `serialize:"true" json:"amount"`
}

func (tx *WithdrawTokensTx) SyntacticVerify() error {
	if tx.DAO == ids.ShortEmpty {
		return ErrNoContract
	}
	return nil
}

func (tx *WithdrawTokensTx) Visit(visitor Visitor) error {
	return visitor.WithdrawTokensTx(tx)
}

type VoteTx struct {
	DAO        ids.ShortID `serialize:"true" json:"dao"`
	ProposalID uint64      `serialize:"true" json:"proposalID"`
	Support    bool        `serialize:"true" json:"support"`
}

func (tx *VoteTx) SyntacticVerify() error {
	if tx.DAO == ids.ShortEmpty {
		return ErrNoContract
	}
	return nil
}

func (tx *VoteTx) Visit(visitor Visitor) error {
	return visitor.VoteTx(tx)
}

type AddProposalTx struct {
	DAO          ids.ShortID `serialize:"true" json:"dao"`
	Target       ids.ShortID `serialize:"true" json:"target"`
	CallData     []byte      `serialize:"true" json:"callData"`
	Description  string      `serialize:"true" json:"description"`
	MinimumVotes uint256.Int `serialize:"true" json:"minimumVotes"`
}

func (tx *AddProposalTx) SyntacticVerify() error {
	switch {
	case tx.DAO == ids.ShortEmpty:
		return ErrNoContract
	case tx.Target == ids.ShortEmpty:
		return dac.ErrZeroAddress
	case len(tx.Description) > MaxDescriptionLen:
		return fmt.Errorf("%w: %d > %d", errDescriptionTooLong, len(tx.Description), MaxDescriptionLen)
	}
	_, err := dac.Decode(tx.CallData)
	return err
}

func (tx *AddProposalTx) Visit(visitor Visitor) error {
	return visitor.AddProposalTx(tx)
}

// FinalizeProposalTx can be issued by anyone once the proposal ended.
type FinalizeProposalTx struct {
	DAO        ids.ShortID `serialize:"true" json:"dao"`
	ProposalID uint64      `serialize:"true" json:"proposalID"`
}

func (tx *FinalizeProposalTx) SyntacticVerify() error {
	if tx.DAO == ids.ShortEmpty {
		return ErrNoContract
	}
	return nil
}

func (tx *FinalizeProposalTx) Visit(visitor Visitor) error {
	return visitor.FinalizeProposalTx(tx)
}

type EmergencyEndTx struct {
	DAO        ids.ShortID `serialize:"true" json:"dao"`
	ProposalID uint64      `serialize:"true" json:"proposalID"`
}

func (tx *EmergencyEndTx) SyntacticVerify() error {
	if tx.DAO == ids.ShortEmpty {
		return ErrNoContract
	}
	return nil
}

func (tx *EmergencyEndTx) Visit(visitor Visitor) error {
	return visitor.EmergencyEndTx(tx)
}

// WithdrawNativeTx sends native value held by a dao to [To].
type WithdrawNativeTx struct {
	DAO    ids.ShortID `serialize:"true" json:"dao"`
	To     ids.ShortID `serialize:"true" json:"to"`
	Amount uint256.Int `serialize:"true" json:"amount"`
}

func (tx *WithdrawNativeTx) SyntacticVerify() error {
	switch {
	case tx.DAO == ids.ShortEmpty:
		return ErrNoContract
	case tx.To == ids.ShortEmpty:
		return ErrNoRecipient
	default:
		return nil
	}
}

func (tx *WithdrawNativeTx) Visit(visitor Visitor) error {
	return visitor.WithdrawNativeTx(tx)
}
