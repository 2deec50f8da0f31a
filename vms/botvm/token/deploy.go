// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/chain4travel/botvm/vms/botvm/dac"
	"github.com/chain4travel/botvm/vms/botvm/events"
	"github.com/chain4travel/botvm/vms/botvm/state"
)

var (
	ErrTokenExists    = errors.New("token already deployed")
	errZeroMaxSupply  = errors.New("max supply is zero")
	errZeroTokenOwner = errors.New("token owner is the zero address")
)

type Params struct {
	Name     string
	Symbol   string
	Decimals uint8
	Owner    ids.ShortID

	MaxSupply        *uint256.Int
	BurnFeePercent   uint64
	MaxTxPercent     uint64
	MaxWalletPercent uint64
}

func (p *Params) Verify() error {
	switch {
	case p.Owner == ids.ShortEmpty:
		return errZeroTokenOwner
	case p.MaxSupply == nil || p.MaxSupply.IsZero():
		return errZeroMaxSupply
	}
	for _, percent := range []uint64{p.BurnFeePercent, p.MaxTxPercent, p.MaxWalletPercent} {
		if percent > dac.MaxPercent {
			return fmt.Errorf("%w: %d", dac.ErrInvalidPercent, percent)
		}
	}
	return nil
}

// Deploy creates the token at [tokenID] and mints the whole max supply to the
// owner. The owner is excluded from fee and limits and becomes holder 0.
func Deploy(chain state.Chain, tokenID ids.ShortID, params *Params, emitter events.Emitter) (*Ledger, error) {
	if err := params.Verify(); err != nil {
		return nil, err
	}
	if _, err := chain.GetToken(tokenID); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrTokenExists, tokenID)
	} else if err != database.ErrNotFound {
		return nil, err
	}

	chain.SetToken(tokenID, &state.Token{
		Name:             params.Name,
		Symbol:           params.Symbol,
		Decimals:         params.Decimals,
		Owner:            params.Owner,
		MaxSupply:        *params.MaxSupply,
		TotalSupply:      *params.MaxSupply,
		BurnFeePercent:   params.BurnFeePercent,
		MaxTxPercent:     params.MaxTxPercent,
		MaxWalletPercent: params.MaxWalletPercent,
	})
	owner := &state.Account{
		Balance: *params.MaxSupply,
		WalletConfig: state.WalletConfig{
			IsExcludedFromFee:             true,
			IsExcludedFromMaxWalletAmount: true,
			IsExcludedFromMaxTxAmount:     true,
		},
	}
	chain.SetAccount(tokenID, params.Owner, owner)

	ledger := newLedger(chain, tokenID, emitter)
	if err := ledger.syncHolder(params.Owner, owner); err != nil {
		return nil, err
	}

	emitter.Emit(&events.OwnershipTransferred{
		Emitter:  tokenID,
		NewOwner: params.Owner,
	})
	emitter.Emit(&events.Transfer{
		Token:  tokenID,
		To:     params.Owner,
		Amount: new(uint256.Int).Set(params.MaxSupply),
	})
	return ledger, nil
}
