// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package native

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/chain4travel/botvm/vms/botvm/state"
)

var (
	ErrInsufficientFunds = errors.New("insufficient native balance")
	ErrZeroRecipient     = errors.New("native recipient is the zero address")
	errBalanceOverflow   = errors.New("native balance overflow")
)

// Transfer moves native value between two accounts.
func Transfer(chain state.Chain, from, to ids.ShortID, amount *uint256.Int) error {
	if to == ids.ShortEmpty {
		return ErrZeroRecipient
	}
	fromBalance, err := chain.GetNativeBalance(from)
	if err != nil {
		return err
	}
	if amount.Gt(fromBalance) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientFunds, from, fromBalance.Dec(), amount.Dec())
	}
	fromBalance.Sub(fromBalance, amount)
	chain.SetNativeBalance(from, fromBalance)

	toBalance, err := chain.GetNativeBalance(to)
	if err != nil {
		return err
	}
	if _, overflow := toBalance.AddOverflow(toBalance, amount); overflow {
		return errBalanceOverflow
	}
	chain.SetNativeBalance(to, toBalance)
	return nil
}

// Mint credits native value at genesis.
func Mint(chain state.Chain, to ids.ShortID, amount *uint256.Int) error {
	balance, err := chain.GetNativeBalance(to)
	if err != nil {
		return err
	}
	if _, overflow := balance.AddOverflow(balance, amount); overflow {
		return errBalanceOverflow
	}
	chain.SetNativeBalance(to, balance)
	return nil
}
