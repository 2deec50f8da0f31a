// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package upgrade

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/chain4travel/botvm/vms/botvm/events"
	"github.com/chain4travel/botvm/vms/botvm/state"
	"github.com/chain4travel/botvm/vms/botvm/token"
)

var (
	ErrUnknownUpgrader        = errors.New("unknown upgrader")
	ErrUpgraderExists         = errors.New("upgrader already deployed")
	ErrNothingToUpgrade       = errors.New("amount to upgrade is zero")
	ErrAmountExceedsAllowance = errors.New("amount to upgrade is greater than the allowed amount")
	ErrPoolDepleted           = errors.New("low balance of new tokens in the upgrader")
	errSameToken              = errors.New("source and destination are the same token")
)

// Upgrader swaps the whole source token balance of a caller for the same
// amount of the destination token, paid from the upgrader's own pool.
type Upgrader struct {
	upgraderID  ids.ShortID
	source      *token.Ledger
	destination *token.Ledger
	emitter     events.Emitter
}

func New(chain state.Chain, upgraderID ids.ShortID, emitter events.Emitter) (*Upgrader, error) {
	upgrader, err := chain.GetUpgrader(upgraderID)
	if err == database.ErrNotFound {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUpgrader, upgraderID)
	}
	if err != nil {
		return nil, err
	}
	source, err := token.New(chain, upgrader.Source, emitter)
	if err != nil {
		return nil, err
	}
	destination, err := token.New(chain, upgrader.Destination, emitter)
	if err != nil {
		return nil, err
	}
	return &Upgrader{
		upgraderID:  upgraderID,
		source:      source,
		destination: destination,
		emitter:     emitter,
	}, nil
}

// Upgrade requires [caller] to have approved the upgrader for at least its
// whole source balance.
func (u *Upgrader) Upgrade(caller ids.ShortID) (*uint256.Int, error) {
	amount, err := u.source.BalanceOf(caller)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, ErrNothingToUpgrade
	}
	allowance, err := u.source.Allowance(caller, u.upgraderID)
	if err != nil {
		return nil, err
	}
	if allowance.Lt(amount) {
		return nil, fmt.Errorf("%w: %s < %s", ErrAmountExceedsAllowance, allowance.Dec(), amount.Dec())
	}
	pool, err := u.destination.BalanceOf(u.upgraderID)
	if err != nil {
		return nil, err
	}
	if pool.Lt(amount) {
		return nil, fmt.Errorf("%w: %s < %s", ErrPoolDepleted, pool.Dec(), amount.Dec())
	}

	if err := u.source.TransferFrom(u.upgraderID, caller, u.upgraderID, amount); err != nil {
		return nil, err
	}
	if err := u.destination.Transfer(u.upgraderID, caller, amount); err != nil {
		return nil, err
	}
	u.emitter.Emit(&events.Upgraded{
		Upgrader: u.upgraderID,
		Account:  caller,
		Amount:   amount,
	})
	return amount, nil
}

// Deploy binds [upgraderID] to a pair of deployed tokens.
func Deploy(chain state.Chain, upgraderID, source, destination ids.ShortID) error {
	if source == destination {
		return errSameToken
	}
	if _, err := chain.GetUpgrader(upgraderID); err == nil {
		return fmt.Errorf("%w: %s", ErrUpgraderExists, upgraderID)
	} else if err != database.ErrNotFound {
		return err
	}
	for _, tokenID := range []ids.ShortID{source, destination} {
		if _, err := chain.GetToken(tokenID); err == database.ErrNotFound {
			return fmt.Errorf("%w: %s", token.ErrUnknownToken, tokenID)
		} else if err != nil {
			return err
		}
	}
	chain.SetUpgrader(upgraderID, &state.Upgrader{
		Source:      source,
		Destination: destination,
	})
	return nil
}
