// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package dao

import (
	"errors"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/chain4travel/botvm/vms/botvm/access"
	"github.com/chain4travel/botvm/vms/botvm/dac"
	"github.com/chain4travel/botvm/vms/botvm/events"
	"github.com/chain4travel/botvm/vms/botvm/native"
	"github.com/chain4travel/botvm/vms/botvm/state"
	"github.com/chain4travel/botvm/vms/botvm/token"
)

var (
	owner   = ids.GenerateTestShortID()
	alice   = ids.GenerateTestShortID()
	bob     = ids.GenerateTestShortID()
	carol   = ids.GenerateTestShortID()
	tokenID = ids.GenerateTestShortID()
	daoID   = ids.GenerateTestShortID()

	genesisTime = time.Unix(1_700_000_000, 0)
	errTest     = errors.New("non-nil error")

	e18           = uint256.NewInt(1_000_000_000_000_000_000)
	testMaxSupply = new(uint256.Int).Mul(uint256.NewInt(1_000_000_000), e18)
)

func tokens(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), e18)
}

func millions(n uint64) *uint256.Int {
	return tokens(n * 1_000_000)
}

// testEnv deploys a token and its dao. Every call to engine builds the views
// a single transaction would see.
type testEnv struct {
	chain   state.Chain
	buffer  *events.Buffer
	targets map[ids.ShortID]dac.Target
}

func newTestEnv(t *testing.T, minVotes *uint256.Int) *testEnv {
	require := require.New(t)

	s, err := state.New(memdb.New(), prometheus.NewRegistry())
	require.NoError(err)
	s.SetTimestamp(genesisTime)

	env := &testEnv{
		chain:   s,
		buffer:  &events.Buffer{},
		targets: map[ids.ShortID]dac.Target{},
	}
	ledger, err := token.Deploy(s, tokenID, &token.Params{
		Symbol:           "BOT",
		Decimals:         18,
		Owner:            owner,
		MaxSupply:        testMaxSupply,
		MaxTxPercent:     100,
		MaxWalletPercent: 100,
	}, env.buffer)
	require.NoError(err)
	require.NoError(Deploy(s, daoID, &Params{
		Owner:            owner,
		Token:            tokenID,
		MinQuorumPercent: DefaultMinQuorumPercent,
		DebatePeriod:     DefaultDebatePeriod,
		MinVotes:         minVotes,
	}, env.buffer))
	require.NoError(ledger.SetDAO(owner, daoID))

	require.NoError(ledger.Transfer(owner, alice, millions(400)))
	require.NoError(ledger.Transfer(owner, bob, millions(350)))
	require.NoError(ledger.Transfer(owner, carol, millions(200)))
	return env
}

func (e *testEnv) Target(addr ids.ShortID) (dac.Target, error) {
	if target, ok := e.targets[addr]; ok {
		return target, nil
	}
	switch addr {
	case tokenID:
		return token.New(e.chain, tokenID, e.buffer)
	case daoID:
		return e.engineOn(e.chain)
	default:
		return nil, dac.ErrUnknownTarget
	}
}

func (e *testEnv) engineOn(chain state.Chain) (*Engine, error) {
	ledger, err := token.New(chain, tokenID, e.buffer)
	if err != nil {
		return nil, err
	}
	resolver := &testEnv{
		chain:   chain,
		buffer:  e.buffer,
		targets: e.targets,
	}
	return New(chain, daoID, ledger, dac.NewRouter(resolver, e.buffer), e.buffer)
}

func (e *testEnv) engine(t *testing.T) *Engine {
	engine, err := e.engineOn(e.chain)
	require.NoError(t, err)
	return engine
}

func (e *testEnv) ledger(t *testing.T) *token.Ledger {
	ledger, err := token.New(e.chain, tokenID, e.buffer)
	require.NoError(t, err)
	return ledger
}

func (e *testEnv) advance(d time.Duration) {
	e.chain.SetTimestamp(e.chain.GetTimestamp().Add(d))
}

func (e *testEnv) deposit(t *testing.T, addr ids.ShortID, amount *uint256.Int) {
	require := require.New(t)
	require.NoError(e.ledger(t).Approve(addr, daoID, amount))
	require.NoError(e.engine(t).Deposit(addr, amount))
}

func (e *testEnv) addBurnFeeProposal(t *testing.T, percent uint64, minimumVotes *uint256.Int) uint64 {
	require := require.New(t)
	callData, err := dac.Encode(&dac.SetBurnFee{Percent: percent})
	require.NoError(err)
	id, err := e.engine(t).AddProposal(owner, tokenID, callData, "set burn fee", minimumVotes)
	require.NoError(err)
	return id
}

func lastEvent[T events.Event](t *testing.T, buffer *events.Buffer) T {
	all := buffer.Events()
	for i := len(all) - 1; i >= 0; i-- {
		if e, ok := all[i].(T); ok {
			return e
		}
	}
	require.FailNow(t, "event not emitted")
	var zero T
	return zero
}

func requireDepositsBacked(t *testing.T, env *testEnv) {
	require := require.New(t)
	engine := env.engine(t)
	sum := new(uint256.Int)
	for _, addr := range []ids.ShortID{owner, alice, bob, carol} {
		deposited, err := engine.UserBalance(addr)
		require.NoError(err)
		sum.Add(sum, deposited)
	}
	balance, err := env.ledger(t).BalanceOf(daoID)
	require.NoError(err)
	require.Equal(balance, sum)
}

func TestDeposit(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t, DefaultMinVotes)

	engine := env.engine(t)
	require.ErrorIs(engine.Deposit(alice, new(uint256.Int)), ErrZeroAmount)
	require.ErrorIs(engine.Deposit(alice, tokens(10)), token.ErrInsufficientAllowance)

	env.deposit(t, alice, tokens(10))
	credited := lastEvent[*events.Credited](t, env.buffer)
	require.Equal(alice, credited.Account)
	require.Equal(tokens(10), credited.Amount)

	env.deposit(t, alice, tokens(5))
	env.deposit(t, bob, tokens(1))

	engine = env.engine(t)
	activeUsers, err := engine.ActiveUsers()
	require.NoError(err)
	require.Equal(uint64(2), activeUsers)
	deposited, err := engine.UserBalance(alice)
	require.NoError(err)
	require.Equal(tokens(15), deposited)
	requireDepositsBacked(t, env)
}

func TestDepositCreditsReceivedAmount(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t, DefaultMinVotes)
	require.NoError(env.ledger(t).SetBurnFee(owner, 10))

	env.deposit(t, alice, tokens(100))

	deposited, err := env.engine(t).UserBalance(alice)
	require.NoError(err)
	require.Equal(tokens(90), deposited)
	requireDepositsBacked(t, env)
}

func TestVote(t *testing.T) {
	tests := map[string]struct {
		voter       ids.ShortID
		proposalID  uint64
		setup       func(t *testing.T, env *testEnv)
		expectedErr error
	}{
		"Success": {
			voter: alice,
		},
		"No deposit": {
			voter:       carol,
			expectedErr: ErrNoDeposit,
		},
		"Below minimum votes": {
			voter:       bob,
			expectedErr: ErrBelowMinimumVotes,
		},
		"Unknown proposal": {
			voter:       alice,
			proposalID:  7,
			expectedErr: ErrProposalExpiredOrMissing,
		},
		"Already voted": {
			voter: alice,
			setup: func(t *testing.T, env *testEnv) {
				require.NoError(t, env.engine(t).Vote(alice, 0, false))
			},
			expectedErr: ErrAlreadyVoted,
		},
		"Voting over": {
			voter: alice,
			setup: func(t *testing.T, env *testEnv) {
				env.advance(DefaultDebatePeriod)
			},
			expectedErr: ErrProposalExpiredOrMissing,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			env := newTestEnv(t, DefaultMinVotes)
			env.deposit(t, alice, tokens(1_000))
			env.deposit(t, bob, tokens(999))
			env.addBurnFeeProposal(t, 5, tokens(1_000))
			if tt.setup != nil {
				tt.setup(t, env)
			}

			before, err := env.engine(t).Proposal(0)
			require.NoError(err)

			err = env.engine(t).Vote(tt.voter, tt.proposalID, true)
			require.ErrorIs(err, tt.expectedErr)

			proposal, err := env.engine(t).Proposal(0)
			require.NoError(err)
			if tt.expectedErr != nil {
				require.Equal(before, proposal)
				return
			}
			require.Equal(tokens(1_000), &proposal.ConsentingWeight)
			require.Equal(uint64(1), proposal.UsersVotedTrue)

			voted, err := env.engine(t).IsUserVoted(alice, 0)
			require.NoError(err)
			require.True(voted)
			lastVoteEndTime, err := env.engine(t).UserLastVoteEndTime(alice)
			require.NoError(err)
			require.Equal(proposal.EndTime, lastVoteEndTime)

			event := lastEvent[*events.Voted](t, env.buffer)
			require.Equal(alice, event.Voter)
			require.True(event.Support)
		})
	}
}

func TestWithdrawTokens(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t, DefaultMinVotes)
	env.deposit(t, alice, tokens(2_000))

	engine := env.engine(t)
	require.ErrorIs(engine.WithdrawTokens(alice, new(uint256.Int)), ErrZeroAmount)
	require.ErrorIs(engine.WithdrawTokens(alice, tokens(2_001)), ErrInsufficientDeposit)
	require.ErrorIs(engine.WithdrawTokens(bob, tokens(1)), ErrInsufficientDeposit)

	// A later proposal extends the lock.
	env.addBurnFeeProposal(t, 5, tokens(1_000))
	env.advance(time.Hour)
	env.addBurnFeeProposal(t, 6, tokens(1_000))
	require.NoError(env.engine(t).Vote(alice, 1, true))
	require.NoError(env.engine(t).Vote(alice, 0, true))

	lastVoteEndTime, err := env.engine(t).UserLastVoteEndTime(alice)
	require.NoError(err)
	second, err := env.engine(t).Proposal(1)
	require.NoError(err)
	require.Equal(second.EndTime, lastVoteEndTime)

	env.advance(DefaultDebatePeriod - time.Hour)
	require.ErrorIs(env.engine(t).WithdrawTokens(alice, tokens(1)), ErrLockedByActiveVote)

	env.advance(time.Hour)
	require.NoError(env.engine(t).WithdrawTokens(alice, tokens(500)))
	activeUsers, err := env.engine(t).ActiveUsers()
	require.NoError(err)
	require.Equal(uint64(1), activeUsers)
	requireDepositsBacked(t, env)

	require.NoError(env.engine(t).WithdrawTokens(alice, tokens(1_500)))
	activeUsers, err = env.engine(t).ActiveUsers()
	require.NoError(err)
	require.Zero(activeUsers)

	balance, err := env.ledger(t).BalanceOf(alice)
	require.NoError(err)
	require.Equal(millions(400), balance)
	withdrawn := lastEvent[*events.TokensWithdrawn](t, env.buffer)
	require.Equal(tokens(1_500), withdrawn.Amount)
}

func TestAddProposal(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t, DefaultMinVotes)
	engine := env.engine(t)

	_, err := engine.LastProposalID()
	require.ErrorIs(err, ErrProposalNotFound)

	callData, err := dac.Encode(&dac.SetBurnFee{Percent: 5})
	require.NoError(err)
	_, err = engine.AddProposal(alice, tokenID, callData, "", tokens(1))
	require.ErrorIs(err, access.ErrNotOwner)
	_, err = engine.AddProposal(owner, tokenID, []byte{0xff}, "", tokens(1))
	require.ErrorIs(err, ErrInvalidCallData)
	_, err = engine.AddProposal(owner, ids.ShortEmpty, callData, "", tokens(1))
	require.ErrorIs(err, dac.ErrZeroAddress)

	for i := uint64(0); i < 3; i++ {
		id, err := engine.AddProposal(owner, tokenID, callData, "fee", tokens(1))
		require.NoError(err)
		require.Equal(i, id)
	}
	lastID, err := engine.LastProposalID()
	require.NoError(err)
	require.Equal(uint64(2), lastID)

	added := lastEvent[*events.ProposalAdded](t, env.buffer)
	require.Equal(uint64(2), added.ProposalID)
	require.Equal(uint64(genesisTime.Add(DefaultDebatePeriod).Unix()), added.EndTime)

	// without a minimum any depositor can vote
	id, err := engine.AddProposal(owner, tokenID, callData, "", nil)
	require.NoError(err)
	proposal, err := engine.Proposal(id)
	require.NoError(err)
	require.True(proposal.MinimumVotesToVote.IsZero())
	added = lastEvent[*events.ProposalAdded](t, env.buffer)
	require.True(added.MinimumVotes.IsZero())
}

func TestFinalize(t *testing.T) {
	tests := map[string]struct {
		minVotes        *uint256.Int
		votes           map[ids.ShortID]bool
		expectedSuccess bool
	}{
		"Passes": {
			minVotes:        DefaultMinVotes,
			votes:           map[ids.ShortID]bool{alice: true, bob: true},
			expectedSuccess: true,
		},
		"Quorum not reached": {
			minVotes: DefaultMinVotes,
			votes:    map[ids.ShortID]bool{alice: true},
		},
		"Dissent wins": {
			minVotes: DefaultMinVotes,
			votes:    map[ids.ShortID]bool{alice: false, bob: true},
		},
		"Below min votes": {
			minVotes: millions(500),
			votes:    map[ids.ShortID]bool{alice: true, bob: false},
		},
		"No votes": {
			minVotes: DefaultMinVotes,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			env := newTestEnv(t, tt.minVotes)
			env.deposit(t, alice, millions(400))
			env.deposit(t, bob, millions(350))
			id := env.addBurnFeeProposal(t, 5, tokens(1_000))
			for voter, support := range tt.votes {
				require.NoError(env.engine(t).Vote(voter, id, support))
			}

			_, err := env.engine(t).Finalize(id)
			require.ErrorIs(err, ErrVotingNotOverYet)

			env.advance(DefaultDebatePeriod)
			success, err := env.engine(t).Finalize(id)
			require.NoError(err)
			require.Equal(tt.expectedSuccess, success)

			finished := lastEvent[*events.Finished](t, env.buffer)
			require.Equal(tt.expectedSuccess, finished.Success)
			require.Equal(uint64(len(tt.votes)), finished.UsersVotedTotal)
			require.Equal(tokenID, finished.Target)

			burnFee, err := env.ledger(t).BurnFee()
			require.NoError(err)
			if tt.expectedSuccess {
				require.Equal(uint64(5), burnFee)
			} else {
				require.Zero(burnFee)
			}

			proposal, err := env.engine(t).Proposal(id)
			require.NoError(err)
			require.True(proposal.IsFinished)

			_, err = env.engine(t).Finalize(id)
			require.ErrorIs(err, ErrAlreadyFinished)
			_, err = env.engine(t).Finalize(id + 1)
			require.ErrorIs(err, ErrProposalNotFound)
		})
	}
}

func TestFinalizeInvocationFailure(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)

	env := newTestEnv(t, DefaultMinVotes)
	env.deposit(t, alice, millions(400))
	env.deposit(t, bob, millions(350))

	failing := ids.GenerateTestShortID()
	target := dac.NewMockTarget(ctrl)
	env.targets[failing] = target

	callData, err := dac.Encode(&dac.SetBurnFee{Percent: 5})
	require.NoError(err)
	id, err := env.engine(t).AddProposal(owner, failing, callData, "", tokens(1))
	require.NoError(err)
	require.NoError(env.engine(t).Vote(alice, id, true))
	require.NoError(env.engine(t).Vote(bob, id, true))
	env.advance(DefaultDebatePeriod)

	parentID := ids.GenerateTestID()
	versions := state.NewMockVersions(ctrl)
	versions.EXPECT().GetState(parentID).Return(env.chain, true).AnyTimes()

	// A failing invocation fails the finalization.
	target.EXPECT().Execute(daoID, &dac.SetBurnFee{Percent: 5}).Return(errTest)
	d, err := state.NewDiff(parentID, versions)
	require.NoError(err)
	engine, err := env.engineOn(d)
	require.NoError(err)
	_, err = engine.Finalize(id)
	require.ErrorIs(err, dac.ErrCallFailed)
	require.ErrorIs(err, errTest)

	proposal, err := env.engine(t).Proposal(id)
	require.NoError(err)
	require.False(proposal.IsFinished)

	// A re-entrant finalize sees the proposal finished.
	d, err = state.NewDiff(parentID, versions)
	require.NoError(err)
	engine, err = env.engineOn(d)
	require.NoError(err)
	target.EXPECT().Execute(daoID, gomock.Any()).DoAndReturn(
		func(ids.ShortID, dac.Operation) error {
			_, err := engine.Finalize(id)
			require.ErrorIs(err, ErrAlreadyFinished)
			return nil
		},
	)
	success, err := engine.Finalize(id)
	require.NoError(err)
	require.True(success)

	d.Apply(env.chain)
	proposal, err = env.engine(t).Proposal(id)
	require.NoError(err)
	require.True(proposal.IsFinished)
}

func TestEmergencyEnd(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t, DefaultMinVotes)
	env.deposit(t, alice, millions(400))
	env.deposit(t, bob, millions(350))
	id := env.addBurnFeeProposal(t, 5, tokens(1))
	require.NoError(env.engine(t).Vote(alice, id, true))
	require.NoError(env.engine(t).Vote(bob, id, true))

	require.ErrorIs(env.engine(t).EmergencyEnd(alice, id), access.ErrNotOwner)
	require.ErrorIs(env.engine(t).EmergencyEnd(owner, id), ErrVotingNotOverYet)

	env.advance(DefaultDebatePeriod)
	require.NoError(env.engine(t).EmergencyEnd(owner, id))
	ended := lastEvent[*events.FinishedEmergency](t, env.buffer)
	require.Equal(id, ended.ProposalID)

	burnFee, err := env.ledger(t).BurnFee()
	require.NoError(err)
	require.Zero(burnFee)

	require.ErrorIs(env.engine(t).EmergencyEnd(owner, id), ErrAlreadyFinished)
	_, err = env.engine(t).Finalize(id)
	require.ErrorIs(err, ErrAlreadyFinished)
}

func TestWithdrawETH(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t, DefaultMinVotes)
	require.NoError(native.Mint(env.chain, daoID, uint256.NewInt(100)))

	engine := env.engine(t)
	require.ErrorIs(engine.WithdrawETH(alice, alice, uint256.NewInt(1)), access.ErrNotOwner)
	require.ErrorIs(engine.WithdrawETH(owner, alice, uint256.NewInt(101)), ErrInsufficientContractBalance)
	require.ErrorIs(engine.WithdrawETH(owner, ids.ShortEmpty, uint256.NewInt(1)), dac.ErrZeroAddress)
	require.NoError(engine.WithdrawETH(owner, alice, uint256.NewInt(60)))

	daoBalance, err := env.chain.GetNativeBalance(daoID)
	require.NoError(err)
	require.Equal(uint256.NewInt(40), daoBalance)
	aliceBalance, err := env.chain.GetNativeBalance(alice)
	require.NoError(err)
	require.Equal(uint256.NewInt(60), aliceBalance)

	withdrawn := lastEvent[*events.ETHWithdrawn](t, env.buffer)
	require.Equal(alice, withdrawn.To)
}

func TestExecute(t *testing.T) {
	tests := map[string]struct {
		caller        ids.ShortID
		op            dac.Operation
		expectedErr   error
		expectedOwner ids.ShortID
	}{
		"Transfer ownership": {
			caller:        owner,
			op:            &dac.TransferOwnership{NewOwner: alice},
			expectedOwner: alice,
		},
		"Renounce ownership": {
			caller:        owner,
			op:            &dac.RenounceOwnership{},
			expectedOwner: ids.ShortEmpty,
		},
		"Not owner": {
			caller:        alice,
			op:            &dac.RenounceOwnership{},
			expectedErr:   access.ErrNotOwner,
			expectedOwner: owner,
		},
		"Token operation": {
			caller:        owner,
			op:            &dac.SetBurnFee{Percent: 5},
			expectedErr:   dac.ErrUnsupportedOperation,
			expectedOwner: owner,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			env := newTestEnv(t, DefaultMinVotes)

			err := env.engine(t).Execute(tt.caller, tt.op)
			require.ErrorIs(err, tt.expectedErr)

			currentOwner, err := env.engine(t).Owner()
			require.NoError(err)
			require.Equal(tt.expectedOwner, currentOwner)
		})
	}
}

func TestGovernanceScenario(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t, DefaultMinVotes)

	engine := env.engine(t)
	debatePeriod, err := engine.DebatePeriod()
	require.NoError(err)
	require.Equal(72*time.Hour, debatePeriod)
	minQuorum, err := engine.MinQuorum()
	require.NoError(err)
	require.Equal(uint64(51), minQuorum)
	minVotes, err := engine.MinVotes()
	require.NoError(err)
	require.Equal(tokens(1_000), minVotes)
	tokenAddr, err := engine.Token()
	require.NoError(err)
	require.Equal(tokenID, tokenAddr)

	env.deposit(t, alice, millions(400))
	env.deposit(t, bob, millions(200))
	id := env.addBurnFeeProposal(t, 5, tokens(1_000))
	require.NoError(env.engine(t).Vote(alice, id, true))
	require.NoError(env.engine(t).Vote(bob, id, true))

	env.advance(DefaultDebatePeriod)
	success, err := env.engine(t).Finalize(id)
	require.NoError(err)
	require.True(success)

	finished := lastEvent[*events.Finished](t, env.buffer)
	require.True(finished.Success)
	require.Equal(millions(600), finished.TotalWeight)
	require.Equal(uint64(2), finished.UsersVotedTrue)

	executed := lastEvent[*events.OperationExecuted](t, env.buffer)
	require.Equal(tokenID, executed.Target)
	require.Equal(daoID, executed.Caller)

	burnFee, err := env.ledger(t).BurnFee()
	require.NoError(err)
	require.Equal(uint64(5), burnFee)

	require.NoError(env.engine(t).WithdrawTokens(alice, millions(400)))
	require.NoError(env.engine(t).WithdrawTokens(bob, millions(200)))
	requireDepositsBacked(t, env)
}
