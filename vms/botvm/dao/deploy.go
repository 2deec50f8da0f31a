// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package dao

import (
	"errors"
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/chain4travel/botvm/vms/botvm/dac"
	"github.com/chain4travel/botvm/vms/botvm/events"
	"github.com/chain4travel/botvm/vms/botvm/state"
	"github.com/chain4travel/botvm/vms/botvm/token"
)

const (
	DefaultMinQuorumPercent = 51
	DefaultDebatePeriod     = 3 * 24 * time.Hour
)

var (
	// DefaultMinVotes is 1000 tokens of 18 decimals.
	DefaultMinVotes = uint256.MustFromDecimal("1000000000000000000000")

	ErrDAOExists        = errors.New("dao already deployed")
	errZeroDAOOwner     = errors.New("dao owner is the zero address")
	errMissingMinVotes  = errors.New("min votes is missing")
	errZeroDebatePeriod = errors.New("debate period is zero")
)

type Params struct {
	Owner            ids.ShortID
	Token            ids.ShortID
	MinQuorumPercent uint64
	DebatePeriod     time.Duration
	MinVotes         *uint256.Int
}

func (p *Params) Verify() error {
	switch {
	case p.Owner == ids.ShortEmpty:
		return errZeroDAOOwner
	case p.Token == ids.ShortEmpty:
		return dac.ErrZeroAddress
	case p.MinQuorumPercent > dac.MaxPercent:
		return fmt.Errorf("%w: %d", dac.ErrInvalidPercent, p.MinQuorumPercent)
	case p.DebatePeriod < time.Second:
		return errZeroDebatePeriod
	case p.MinVotes == nil:
		return errMissingMinVotes
	default:
		return nil
	}
}

// Deploy creates a dao at [daoID] governing the token [params.Token].
func Deploy(chain state.Chain, daoID ids.ShortID, params *Params, emitter events.Emitter) error {
	if err := params.Verify(); err != nil {
		return err
	}
	if _, err := chain.GetDAO(daoID); err == nil {
		return fmt.Errorf("%w: %s", ErrDAOExists, daoID)
	} else if err != database.ErrNotFound {
		return err
	}
	if _, err := chain.GetToken(params.Token); err == database.ErrNotFound {
		return fmt.Errorf("%w: %s", token.ErrUnknownToken, params.Token)
	} else if err != nil {
		return err
	}

	chain.SetDAO(daoID, &state.DAO{
		Owner:            params.Owner,
		Token:            params.Token,
		MinQuorumPercent: params.MinQuorumPercent,
		DebatePeriod:     uint64(params.DebatePeriod / time.Second),
		MinVotes:         *params.MinVotes,
	})
	emitter.Emit(&events.OwnershipTransferred{
		Emitter:  daoID,
		NewOwner: params.Owner,
	})
	return nil
}
