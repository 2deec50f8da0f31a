// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/chain4travel/botvm/vms/botvm/state"
)

var (
	ErrExceedsMaxTx     = errors.New("transfer amount exceeds the max transaction amount")
	ErrExceedsMaxWallet = errors.New("recipient balance would exceed the max wallet amount")

	hundred = uint256.NewInt(100)
)

// PercentOf returns amount * percent / 100 rounded down.
func PercentOf(amount *uint256.Int, percent uint64) *uint256.Int {
	result, _ := new(uint256.Int).MulDivOverflow(amount, uint256.NewInt(percent), hundred)
	return result
}

// Policy holds the fee and concentration limits of a token. Caps are derived
// from the supply at the moment they are evaluated.
type Policy struct {
	BurnFeePercent   uint64
	MaxTxPercent     uint64
	MaxWalletPercent uint64
}

func PolicyOf(token *state.Token) Policy {
	return Policy{
		BurnFeePercent:   token.BurnFeePercent,
		MaxTxPercent:     token.MaxTxPercent,
		MaxWalletPercent: token.MaxWalletPercent,
	}
}

func (p Policy) MaxTxAmount(totalSupply *uint256.Int) *uint256.Int {
	return PercentOf(totalSupply, p.MaxTxPercent)
}

func (p Policy) MaxWalletAmount(totalSupply *uint256.Int) *uint256.Int {
	return PercentOf(totalSupply, p.MaxWalletPercent)
}

// Quote is the outcome of a transfer that passed every limit.
type Quote struct {
	Amount *uint256.Int
	// Burn is destroyed, Net is credited to the recipient.
	Burn *uint256.Int
	Net  *uint256.Int
}

// Evaluate checks a transfer of [amount] against the limits and splits it into
// the burned and credited parts.
func (p Policy) Evaluate(
	totalSupply *uint256.Int,
	amount *uint256.Int,
	from state.WalletConfig,
	to state.WalletConfig,
	toBalance *uint256.Int,
) (*Quote, error) {
	if !from.IsExcludedFromMaxTxAmount && !to.IsExcludedFromMaxTxAmount {
		maxTx := p.MaxTxAmount(totalSupply)
		if amount.Gt(maxTx) {
			return nil, fmt.Errorf("%w: %s > %s", ErrExceedsMaxTx, amount.Dec(), maxTx.Dec())
		}
	}

	burn := new(uint256.Int)
	if !from.IsExcludedFromFee && !to.IsExcludedFromFee {
		burn = PercentOf(amount, p.BurnFeePercent)
	}
	net := new(uint256.Int).Sub(amount, burn)

	if !to.IsExcludedFromMaxWalletAmount {
		maxWallet := p.MaxWalletAmount(totalSupply)
		after, overflow := new(uint256.Int).AddOverflow(toBalance, net)
		if overflow || after.Gt(maxWallet) {
			return nil, fmt.Errorf("%w: %s > %s", ErrExceedsMaxWallet, after.Dec(), maxWallet.Dec())
		}
	}

	return &Quote{
		Amount: new(uint256.Int).Set(amount),
		Burn:   burn,
		Net:    net,
	}, nil
}
