// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package dac

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/vms/components/verify"
)

const MaxPercent = 100

var (
	_ Operation = (*SetBurnFee)(nil)
	_ Operation = (*SetMaxTxPercent)(nil)
	_ Operation = (*SetMaxWalletPercent)(nil)
	_ Operation = (*SetExcludedHolder)(nil)
	_ Operation = (*SetExcludedFromFee)(nil)
	_ Operation = (*SetExcludedFromMaxWallet)(nil)
	_ Operation = (*SetExcludedFromMaxTx)(nil)
	_ Operation = (*SetExcludedFromCirculation)(nil)
	_ Operation = (*SetDAO)(nil)
	_ Operation = (*TransferOwnership)(nil)
	_ Operation = (*RenounceOwnership)(nil)

	ErrInvalidPercent       = errors.New("percent is greater than 100")
	ErrZeroAddress          = errors.New("zero address")
	ErrUnsupportedOperation = errors.New("operation isn't supported by target")
)

// ExecutorVisitor is implemented by every contract that can be the target of
// a governable operation. Targets return ErrUnsupportedOperation for the
// operations they don't know.
type ExecutorVisitor interface {
	SetBurnFee(*SetBurnFee) error
	SetMaxTxPercent(*SetMaxTxPercent) error
	SetMaxWalletPercent(*SetMaxWalletPercent) error
	SetExcludedHolder(*SetExcludedHolder) error
	SetExcludedFromFee(*SetExcludedFromFee) error
	SetExcludedFromMaxWallet(*SetExcludedFromMaxWallet) error
	SetExcludedFromMaxTx(*SetExcludedFromMaxTx) error
	SetExcludedFromCirculation(*SetExcludedFromCirculation) error
	SetDAO(*SetDAO) error
	TransferOwnership(*TransferOwnership) error
	RenounceOwnership(*RenounceOwnership) error
}

// Operation is an administrative call that can be encoded into proposal
// call data.
type Operation interface {
	verify.Verifiable
	fmt.Stringer

	Visit(ExecutorVisitor) error
}

func verifyPercent(percent uint64) error {
	if percent > MaxPercent {
		return fmt.Errorf("%w: %d", ErrInvalidPercent, percent)
	}
	return nil
}

func verifyAddress(addr ids.ShortID) error {
	if addr == ids.ShortEmpty {
		return ErrZeroAddress
	}
	return nil
}

type SetBurnFee struct {
	Percent uint64 `serialize:"true" json:"percent"`
}

func (op *SetBurnFee) Verify() error                 { return verifyPercent(op.Percent) }
func (op *SetBurnFee) String() string                { return fmt.Sprintf("setBurnFee(%d)", op.Percent) }
func (op *SetBurnFee) Visit(v ExecutorVisitor) error { return v.SetBurnFee(op) }

type SetMaxTxPercent struct {
	Percent uint64 `serialize:"true" json:"percent"`
}

func (op *SetMaxTxPercent) Verify() error  { return verifyPercent(op.Percent) }
func (op *SetMaxTxPercent) String() string { return fmt.Sprintf("setMaxTxPercent(%d)", op.Percent) }
func (op *SetMaxTxPercent) Visit(v ExecutorVisitor) error {
	return v.SetMaxTxPercent(op)
}

type SetMaxWalletPercent struct {
	Percent uint64 `serialize:"true" json:"percent"`
}

func (op *SetMaxWalletPercent) Verify() error { return verifyPercent(op.Percent) }
func (op *SetMaxWalletPercent) String() string {
	return fmt.Sprintf("setMaxWalletPercent(%d)", op.Percent)
}

func (op *SetMaxWalletPercent) Visit(v ExecutorVisitor) error {
	return v.SetMaxWalletPercent(op)
}

// AccountFlag carries the account and value of a per-account exclusion flag.
type AccountFlag struct {
	Account  ids.ShortID `serialize:"true" json:"account"`
	Excluded bool        `serialize:"true" json:"excluded"`
}

func (f *AccountFlag) Verify() error { return verifyAddress(f.Account) }

func (f *AccountFlag) format(name string) string {
	return fmt.Sprintf("%s(%s, %t)", name, f.Account, f.Excluded)
}

type SetExcludedHolder struct {
	AccountFlag `serialize:"true"`
}

func (op *SetExcludedHolder) String() string { return op.format("setExcludedHolder") }
func (op *SetExcludedHolder) Visit(v ExecutorVisitor) error {
	return v.SetExcludedHolder(op)
}

type SetExcludedFromFee struct {
	AccountFlag `serialize:"true"`
}

func (op *SetExcludedFromFee) String() string { return op.format("setIsExcludedFromFee") }
func (op *SetExcludedFromFee) Visit(v ExecutorVisitor) error {
	return v.SetExcludedFromFee(op)
}

type SetExcludedFromMaxWallet struct {
	AccountFlag `serialize:"true"`
}

func (op *SetExcludedFromMaxWallet) String() string {
	return op.format("setIsExcludedFromMaxWalletAmount")
}

func (op *SetExcludedFromMaxWallet) Visit(v ExecutorVisitor) error {
	return v.SetExcludedFromMaxWallet(op)
}

type SetExcludedFromMaxTx struct {
	AccountFlag `serialize:"true"`
}

func (op *SetExcludedFromMaxTx) String() string { return op.format("setIsExcludedFromMaxTxAmount") }
func (op *SetExcludedFromMaxTx) Visit(v ExecutorVisitor) error {
	return v.SetExcludedFromMaxTx(op)
}

type SetExcludedFromCirculation struct {
	AccountFlag `serialize:"true"`
}

func (op *SetExcludedFromCirculation) String() string {
	return op.format("setIsExcludedFromCirculationSupply")
}

func (op *SetExcludedFromCirculation) Visit(v ExecutorVisitor) error {
	return v.SetExcludedFromCirculation(op)
}

type SetDAO struct {
	DAO ids.ShortID `serialize:"true" json:"dao"`
}

func (op *SetDAO) Verify() error                 { return verifyAddress(op.DAO) }
func (op *SetDAO) String() string                { return fmt.Sprintf("setDAO(%s)", op.DAO) }
func (op *SetDAO) Visit(v ExecutorVisitor) error { return v.SetDAO(op) }

type TransferOwnership struct {
	NewOwner ids.ShortID `serialize:"true" json:"newOwner"`
}

func (op *TransferOwnership) Verify() error { return verifyAddress(op.NewOwner) }
func (op *TransferOwnership) String() string {
	return fmt.Sprintf("transferOwnership(%s)", op.NewOwner)
}

func (op *TransferOwnership) Visit(v ExecutorVisitor) error {
	return v.TransferOwnership(op)
}

type RenounceOwnership struct{}

func (*RenounceOwnership) Verify() error                    { return nil }
func (*RenounceOwnership) String() string                   { return "renounceOwnership()" }
func (op *RenounceOwnership) Visit(v ExecutorVisitor) error { return v.RenounceOwnership(op) }
