// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
//
// This file is a derived work, based on ava-labs code whose
// original notices appear below.
//
// It is distributed under the same license conditions as the
// original code from which it is derived.
//
// Much love to the original authors for their work.
// **********************************************************
// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
)

var (
	_ Diff = (*diff)(nil)

	ErrMissingParentState = errors.New("missing parent state")
)

// Versions resolves the chain a diff was built on.
type Versions interface {
	// GetState returns the state of the chain after [txID] has been accepted.
	GetState(txID ids.ID) (Chain, bool)
}

type Diff interface {
	Chain

	Apply(Chain)
}

type diff struct {
	parentID      ids.ID
	stateVersions Versions

	timestamp time.Time

	// nil values of the maps below mark deleted records
	modifiedTokens       map[ids.ShortID]*Token
	modifiedAccounts     map[accountKey]*Account
	modifiedAllowances   map[allowanceKey]*uint256.Int
	modifiedHolderCounts map[ids.ShortID]uint64
	modifiedHolderSlots  map[holderSlotKey]*ids.ShortID
	modifiedHolderIndex  map[accountKey]*uint64
	modifiedDAOs         map[ids.ShortID]*DAO
	modifiedProposals    map[proposalKey]*Proposal
	modifiedVoters       map[accountKey]*Voter
	addedReceipts        map[receiptKey]struct{}
	modifiedNatives      map[ids.ShortID]*uint256.Int
	modifiedUpgraders    map[ids.ShortID]*Upgrader
}

func NewDiff(parentID ids.ID, stateVersions Versions) (Diff, error) {
	parentState, ok := stateVersions.GetState(parentID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingParentState, parentID)
	}
	return &diff{
		parentID:      parentID,
		stateVersions: stateVersions,
		timestamp:     parentState.GetTimestamp(),

		modifiedTokens:       make(map[ids.ShortID]*Token),
		modifiedAccounts:     make(map[accountKey]*Account),
		modifiedAllowances:   make(map[allowanceKey]*uint256.Int),
		modifiedHolderCounts: make(map[ids.ShortID]uint64),
		modifiedHolderSlots:  make(map[holderSlotKey]*ids.ShortID),
		modifiedHolderIndex:  make(map[accountKey]*uint64),
		modifiedDAOs:         make(map[ids.ShortID]*DAO),
		modifiedProposals:    make(map[proposalKey]*Proposal),
		modifiedVoters:       make(map[accountKey]*Voter),
		addedReceipts:        make(map[receiptKey]struct{}),
		modifiedNatives:      make(map[ids.ShortID]*uint256.Int),
		modifiedUpgraders:    make(map[ids.ShortID]*Upgrader),
	}, nil
}

func (d *diff) parent() (Chain, error) {
	parentState, ok := d.stateVersions.GetState(d.parentID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingParentState, d.parentID)
	}
	return parentState, nil
}

func (d *diff) GetTimestamp() time.Time {
	return d.timestamp
}

func (d *diff) SetTimestamp(timestamp time.Time) {
	d.timestamp = timestamp
}

func (d *diff) GetToken(tokenID ids.ShortID) (*Token, error) {
	if token, ok := d.modifiedTokens[tokenID]; ok {
		return token.Clone(), nil
	}
	parentState, err := d.parent()
	if err != nil {
		return nil, err
	}
	return parentState.GetToken(tokenID)
}

func (d *diff) SetToken(tokenID ids.ShortID, token *Token) {
	d.modifiedTokens[tokenID] = token
}

func (d *diff) GetAccount(tokenID, addr ids.ShortID) (*Account, error) {
	if account, ok := d.modifiedAccounts[accountKey{token: tokenID, addr: addr}]; ok {
		return account.Clone(), nil
	}
	parentState, err := d.parent()
	if err != nil {
		return nil, err
	}
	return parentState.GetAccount(tokenID, addr)
}

func (d *diff) SetAccount(tokenID, addr ids.ShortID, account *Account) {
	d.modifiedAccounts[accountKey{token: tokenID, addr: addr}] = account
}

func (d *diff) GetAllowance(tokenID, owner, spender ids.ShortID) (*uint256.Int, error) {
	if amount, ok := d.modifiedAllowances[allowanceKey{token: tokenID, owner: owner, spender: spender}]; ok {
		return new(uint256.Int).Set(amount), nil
	}
	parentState, err := d.parent()
	if err != nil {
		return nil, err
	}
	return parentState.GetAllowance(tokenID, owner, spender)
}

func (d *diff) SetAllowance(tokenID, owner, spender ids.ShortID, amount *uint256.Int) {
	d.modifiedAllowances[allowanceKey{token: tokenID, owner: owner, spender: spender}] = amount
}

func (d *diff) GetHolderCount(tokenID ids.ShortID) (uint64, error) {
	if count, ok := d.modifiedHolderCounts[tokenID]; ok {
		return count, nil
	}
	parentState, err := d.parent()
	if err != nil {
		return 0, err
	}
	return parentState.GetHolderCount(tokenID)
}

func (d *diff) SetHolderCount(tokenID ids.ShortID, count uint64) {
	d.modifiedHolderCounts[tokenID] = count
}

func (d *diff) GetHolder(tokenID ids.ShortID, index uint64) (ids.ShortID, error) {
	if addr, ok := d.modifiedHolderSlots[holderSlotKey{token: tokenID, index: index}]; ok {
		if addr == nil {
			return ids.ShortEmpty, database.ErrNotFound
		}
		return *addr, nil
	}
	parentState, err := d.parent()
	if err != nil {
		return ids.ShortEmpty, err
	}
	return parentState.GetHolder(tokenID, index)
}

func (d *diff) SetHolder(tokenID ids.ShortID, index uint64, addr ids.ShortID) {
	d.modifiedHolderSlots[holderSlotKey{token: tokenID, index: index}] = &addr
}

func (d *diff) DeleteHolder(tokenID ids.ShortID, index uint64) {
	d.modifiedHolderSlots[holderSlotKey{token: tokenID, index: index}] = nil
}

func (d *diff) GetHolderIndex(tokenID, addr ids.ShortID) (uint64, bool, error) {
	if index, ok := d.modifiedHolderIndex[accountKey{token: tokenID, addr: addr}]; ok {
		if index == nil {
			return 0, false, nil
		}
		return *index, true, nil
	}
	parentState, err := d.parent()
	if err != nil {
		return 0, false, err
	}
	return parentState.GetHolderIndex(tokenID, addr)
}

func (d *diff) SetHolderIndex(tokenID, addr ids.ShortID, index uint64) {
	d.modifiedHolderIndex[accountKey{token: tokenID, addr: addr}] = &index
}

func (d *diff) DeleteHolderIndex(tokenID, addr ids.ShortID) {
	d.modifiedHolderIndex[accountKey{token: tokenID, addr: addr}] = nil
}

func (d *diff) GetDAO(daoID ids.ShortID) (*DAO, error) {
	if dao, ok := d.modifiedDAOs[daoID]; ok {
		return dao.Clone(), nil
	}
	parentState, err := d.parent()
	if err != nil {
		return nil, err
	}
	return parentState.GetDAO(daoID)
}

func (d *diff) SetDAO(daoID ids.ShortID, dao *DAO) {
	d.modifiedDAOs[daoID] = dao
}

func (d *diff) GetProposal(daoID ids.ShortID, proposalID uint64) (*Proposal, error) {
	if proposal, ok := d.modifiedProposals[proposalKey{dao: daoID, id: proposalID}]; ok {
		return proposal.Clone(), nil
	}
	parentState, err := d.parent()
	if err != nil {
		return nil, err
	}
	return parentState.GetProposal(daoID, proposalID)
}

func (d *diff) SetProposal(daoID ids.ShortID, proposal *Proposal) {
	d.modifiedProposals[proposalKey{dao: daoID, id: proposal.ID}] = proposal
}

func (d *diff) GetVoter(daoID, addr ids.ShortID) (*Voter, error) {
	if voter, ok := d.modifiedVoters[accountKey{token: daoID, addr: addr}]; ok {
		return voter.Clone(), nil
	}
	parentState, err := d.parent()
	if err != nil {
		return nil, err
	}
	return parentState.GetVoter(daoID, addr)
}

func (d *diff) SetVoter(daoID, addr ids.ShortID, voter *Voter) {
	d.modifiedVoters[accountKey{token: daoID, addr: addr}] = voter
}

func (d *diff) HasVoted(daoID ids.ShortID, proposalID uint64, addr ids.ShortID) (bool, error) {
	if _, ok := d.addedReceipts[receiptKey{dao: daoID, id: proposalID, voter: addr}]; ok {
		return true, nil
	}
	parentState, err := d.parent()
	if err != nil {
		return false, err
	}
	return parentState.HasVoted(daoID, proposalID, addr)
}

func (d *diff) SetVoted(daoID ids.ShortID, proposalID uint64, addr ids.ShortID) {
	d.addedReceipts[receiptKey{dao: daoID, id: proposalID, voter: addr}] = struct{}{}
}

func (d *diff) GetNativeBalance(addr ids.ShortID) (*uint256.Int, error) {
	if amount, ok := d.modifiedNatives[addr]; ok {
		return new(uint256.Int).Set(amount), nil
	}
	parentState, err := d.parent()
	if err != nil {
		return nil, err
	}
	return parentState.GetNativeBalance(addr)
}

func (d *diff) SetNativeBalance(addr ids.ShortID, amount *uint256.Int) {
	d.modifiedNatives[addr] = amount
}

func (d *diff) GetUpgrader(upgraderID ids.ShortID) (*Upgrader, error) {
	if upgrader, ok := d.modifiedUpgraders[upgraderID]; ok {
		return upgrader.Clone(), nil
	}
	parentState, err := d.parent()
	if err != nil {
		return nil, err
	}
	return parentState.GetUpgrader(upgraderID)
}

func (d *diff) SetUpgrader(upgraderID ids.ShortID, upgrader *Upgrader) {
	d.modifiedUpgraders[upgraderID] = upgrader
}

func (d *diff) Apply(baseState Chain) {
	baseState.SetTimestamp(d.timestamp)
	for tokenID, token := range d.modifiedTokens {
		baseState.SetToken(tokenID, token)
	}
	for key, account := range d.modifiedAccounts {
		baseState.SetAccount(key.token, key.addr, account)
	}
	for key, amount := range d.modifiedAllowances {
		baseState.SetAllowance(key.token, key.owner, key.spender, amount)
	}
	for tokenID, count := range d.modifiedHolderCounts {
		baseState.SetHolderCount(tokenID, count)
	}
	for key, addr := range d.modifiedHolderSlots {
		if addr == nil {
			baseState.DeleteHolder(key.token, key.index)
		} else {
			baseState.SetHolder(key.token, key.index, *addr)
		}
	}
	for key, index := range d.modifiedHolderIndex {
		if index == nil {
			baseState.DeleteHolderIndex(key.token, key.addr)
		} else {
			baseState.SetHolderIndex(key.token, key.addr, *index)
		}
	}
	for daoID, dao := range d.modifiedDAOs {
		baseState.SetDAO(daoID, dao)
	}
	for key, proposal := range d.modifiedProposals {
		baseState.SetProposal(key.dao, proposal)
	}
	for key, voter := range d.modifiedVoters {
		baseState.SetVoter(key.token, key.addr, voter)
	}
	for key := range d.addedReceipts {
		baseState.SetVoted(key.dao, key.id, key.voter)
	}
	for addr, amount := range d.modifiedNatives {
		baseState.SetNativeBalance(addr, amount)
	}
	for upgraderID, upgrader := range d.modifiedUpgraders {
		baseState.SetUpgrader(upgraderID, upgrader)
	}
}
