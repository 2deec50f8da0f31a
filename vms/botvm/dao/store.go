// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package dao

import (
	"errors"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"golang.org/x/exp/slices"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/math"
	"github.com/chain4travel/botvm/vms/botvm/state"
)

var (
	ErrProposalNotFound         = errors.New("proposal not found")
	ErrProposalExpiredOrMissing = errors.New("voting is already over or does not exist")
	ErrAlreadyVoted             = errors.New("already voted")
	ErrAlreadyFinished          = errors.New("proposal is already finished")
)

// Store keeps the proposals of one dao and their tallies.
type Store struct {
	chain state.Chain
	daoID ids.ShortID
}

func NewStore(chain state.Chain, daoID ids.ShortID) *Store {
	return &Store{
		chain: chain,
		daoID: daoID,
	}
}

// Create adds a proposal with the next id that stays open for [debatePeriod]
// seconds after [now].
func (s *Store) Create(
	now time.Time,
	debatePeriod uint64,
	target ids.ShortID,
	callData []byte,
	description string,
	minimumVotes *uint256.Int,
) (*state.Proposal, error) {
	dao, err := s.chain.GetDAO(s.daoID)
	if err != nil {
		return nil, err
	}
	endTime, err := math.Add64(uint64(now.Unix()), debatePeriod)
	if err != nil {
		return nil, fmt.Errorf("couldn't compute proposal end time: %w", err)
	}
	nextCount, err := math.Add64(dao.ProposalCount, 1)
	if err != nil {
		return nil, err
	}

	proposal := &state.Proposal{
		ID:                 dao.ProposalCount,
		Target:             target,
		CallData:           slices.Clone(callData),
		Description:        description,
		EndTime:            endTime,
	}
	if minimumVotes != nil {
		proposal.MinimumVotesToVote = *minimumVotes
	}
	dao.ProposalCount = nextCount
	s.chain.SetDAO(s.daoID, dao)
	s.chain.SetProposal(s.daoID, proposal)
	return proposal.Clone(), nil
}

func (s *Store) Get(proposalID uint64) (*state.Proposal, error) {
	proposal, err := s.chain.GetProposal(s.daoID, proposalID)
	if err == database.ErrNotFound {
		return nil, fmt.Errorf("%w: %d", ErrProposalNotFound, proposalID)
	}
	return proposal, err
}

// LastID returns the id of the newest proposal.
func (s *Store) LastID() (uint64, error) {
	dao, err := s.chain.GetDAO(s.daoID)
	if err != nil {
		return 0, err
	}
	if dao.ProposalCount == 0 {
		return 0, ErrProposalNotFound
	}
	return dao.ProposalCount - 1, nil
}

// RecordVote adds [weight] to the side chosen by [voter]. A voter can vote
// once per proposal and only before the proposal ends.
func (s *Store) RecordVote(
	now time.Time,
	proposalID uint64,
	voter ids.ShortID,
	weight *uint256.Int,
	support bool,
) (*state.Proposal, error) {
	proposal, err := s.Get(proposalID)
	if err != nil {
		return nil, err
	}
	if uint64(now.Unix()) >= proposal.EndTime {
		return nil, fmt.Errorf("%w: proposal %d", ErrProposalExpiredOrMissing, proposalID)
	}
	voted, err := s.chain.HasVoted(s.daoID, proposalID, voter)
	if err != nil {
		return nil, err
	}
	if voted {
		return nil, fmt.Errorf("%w: %s on proposal %d", ErrAlreadyVoted, voter, proposalID)
	}

	if support {
		proposal.ConsentingWeight.Add(&proposal.ConsentingWeight, weight)
		proposal.UsersVotedTrue++
	} else {
		proposal.DissentingWeight.Add(&proposal.DissentingWeight, weight)
	}
	proposal.UsersVotedTotal++

	s.chain.SetVoted(s.daoID, proposalID, voter)
	s.chain.SetProposal(s.daoID, proposal)
	return proposal.Clone(), nil
}

func (s *Store) HasVoted(proposalID uint64, voter ids.ShortID) (bool, error) {
	return s.chain.HasVoted(s.daoID, proposalID, voter)
}

func (s *Store) MarkFinished(proposalID uint64) (*state.Proposal, error) {
	proposal, err := s.Get(proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.IsFinished {
		return nil, fmt.Errorf("%w: %d", ErrAlreadyFinished, proposalID)
	}
	proposal.IsFinished = true
	s.chain.SetProposal(s.daoID, proposal)
	return proposal.Clone(), nil
}
