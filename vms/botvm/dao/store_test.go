// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package dao

import (
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/chain4travel/botvm/vms/botvm/state"
)

func TestStore(t *testing.T) {
	require := require.New(t)

	s, err := state.New(memdb.New(), prometheus.NewRegistry())
	require.NoError(err)
	daoID := ids.GenerateTestShortID()
	s.SetDAO(daoID, &state.DAO{DebatePeriod: 100})

	store := NewStore(s, daoID)
	_, err = store.LastID()
	require.ErrorIs(err, ErrProposalNotFound)

	now := time.Unix(1_000, 0)
	target := ids.GenerateTestShortID()
	for i := uint64(0); i < 3; i++ {
		proposal, err := store.Create(now, 100, target, []byte{1}, "", uint256.NewInt(10))
		require.NoError(err)
		require.Equal(i, proposal.ID)
		require.Equal(uint64(1_100), proposal.EndTime)
		require.True(proposal.TotalWeight().IsZero())
	}
	lastID, err := store.LastID()
	require.NoError(err)
	require.Equal(uint64(2), lastID)

	_, err = store.Get(3)
	require.ErrorIs(err, ErrProposalNotFound)

	// no minimum
	proposal, err := store.Create(now, 100, target, []byte{1}, "", nil)
	require.NoError(err)
	require.True(proposal.MinimumVotesToVote.IsZero())

	yes := ids.GenerateTestShortID()
	no := ids.GenerateTestShortID()
	_, err = store.RecordVote(now, 1, yes, uint256.NewInt(7), true)
	require.NoError(err)
	proposal, err = store.RecordVote(now, 1, no, uint256.NewInt(3), false)
	require.NoError(err)
	require.Equal(uint256.NewInt(7), &proposal.ConsentingWeight)
	require.Equal(uint256.NewInt(3), &proposal.DissentingWeight)
	require.Equal(uint64(2), proposal.UsersVotedTotal)
	require.Equal(uint64(1), proposal.UsersVotedTrue)

	_, err = store.RecordVote(now, 1, yes, uint256.NewInt(7), true)
	require.ErrorIs(err, ErrAlreadyVoted)
	_, err = store.RecordVote(now, 5, yes, uint256.NewInt(7), true)
	require.ErrorIs(err, ErrProposalNotFound)
	_, err = store.RecordVote(time.Unix(1_100, 0), 2, yes, uint256.NewInt(7), true)
	require.ErrorIs(err, ErrProposalExpiredOrMissing)

	voted, err := store.HasVoted(1, yes)
	require.NoError(err)
	require.True(voted)
	voted, err = store.HasVoted(2, yes)
	require.NoError(err)
	require.False(voted)

	_, err = store.MarkFinished(1)
	require.NoError(err)
	_, err = store.MarkFinished(1)
	require.ErrorIs(err, ErrAlreadyFinished)

	proposal, err = store.Get(1)
	require.NoError(err)
	require.True(proposal.IsFinished)
	require.Equal(uint64(2), proposal.UsersVotedTotal)
}
