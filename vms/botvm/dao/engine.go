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
	"github.com/chain4travel/botvm/vms/botvm/access"
	"github.com/chain4travel/botvm/vms/botvm/dac"
	"github.com/chain4travel/botvm/vms/botvm/events"
	"github.com/chain4travel/botvm/vms/botvm/native"
	"github.com/chain4travel/botvm/vms/botvm/state"
	"github.com/chain4travel/botvm/vms/botvm/token"
)

var (
	_ dac.Target          = (*Engine)(nil)
	_ dac.ExecutorVisitor = (*ownershipExecutor)(nil)

	ErrUnknownDAO                  = errors.New("unknown dao")
	ErrZeroAmount                  = errors.New("amount is zero")
	ErrNoDeposit                   = errors.New("no tokens deposited")
	ErrBelowMinimumVotes           = errors.New("deposit is below the minimum votes of the proposal")
	ErrInsufficientDeposit         = errors.New("insufficient deposit")
	ErrLockedByActiveVote          = errors.New("deposit is locked by an active vote")
	ErrVotingNotOverYet            = errors.New("voting is not over yet")
	ErrInsufficientContractBalance = errors.New("insufficient contract balance")
	ErrInvalidCallData             = errors.New("invalid call data")
	errUnexpectedDeposit           = errors.New("dao balance decreased on deposit")
)

// Token is the part of the ledger the engine calls into.
type Token interface {
	TransferFrom(spender, from, to ids.ShortID, amount *uint256.Int) error
	Transfer(from, to ids.ShortID, amount *uint256.Int) error
	BalanceOf(addr ids.ShortID) (*uint256.Int, error)
	TotalSupply() (*uint256.Int, error)
}

// Engine executes the governance operations of the dao deployed at one
// address. Time is read once from the chain when the engine is built.
type Engine struct {
	chain   state.Chain
	daoID   ids.ShortID
	token   Token
	invoker dac.Invoker
	emitter events.Emitter
	store   *Store
	now     time.Time
}

func New(
	chain state.Chain,
	daoID ids.ShortID,
	token Token,
	invoker dac.Invoker,
	emitter events.Emitter,
) (*Engine, error) {
	if _, err := chain.GetDAO(daoID); err == database.ErrNotFound {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDAO, daoID)
	} else if err != nil {
		return nil, err
	}
	return &Engine{
		chain:   chain,
		daoID:   daoID,
		token:   token,
		invoker: invoker,
		emitter: emitter,
		store:   NewStore(chain, daoID),
		now:     chain.GetTimestamp(),
	}, nil
}

func (e *Engine) ID() ids.ShortID {
	return e.daoID
}

func (e *Engine) Metadata() (*state.DAO, error) {
	return e.chain.GetDAO(e.daoID)
}

// Deposit pulls [amount] tokens from [caller] into the dao. The caller must
// have approved the dao as spender. The voting power credited is what the dao
// actually received.
func (e *Engine) Deposit(caller ids.ShortID, amount *uint256.Int) error {
	if amount.IsZero() {
		return ErrZeroAmount
	}
	before, err := e.token.BalanceOf(e.daoID)
	if err != nil {
		return err
	}
	if err := e.token.TransferFrom(e.daoID, caller, e.daoID, amount); err != nil {
		return err
	}
	after, err := e.token.BalanceOf(e.daoID)
	if err != nil {
		return err
	}
	received, underflow := new(uint256.Int).SubOverflow(after, before)
	if underflow {
		return errUnexpectedDeposit
	}

	dao, err := e.Metadata()
	if err != nil {
		return err
	}
	voter, err := e.chain.GetVoter(e.daoID, caller)
	if err != nil {
		return err
	}
	if voter.Deposited.IsZero() && !received.IsZero() {
		dao.ActiveUsers++
		e.chain.SetDAO(e.daoID, dao)
	}
	voter.Deposited.Add(&voter.Deposited, received)
	e.chain.SetVoter(e.daoID, caller, voter)

	e.emitter.Emit(&events.Credited{
		DAO:     e.daoID,
		Account: caller,
		Amount:  received,
	})
	return nil
}

// Vote casts the whole deposit of [caller] on a proposal. The deposit stays
// locked until the proposal ends.
func (e *Engine) Vote(caller ids.ShortID, proposalID uint64, support bool) error {
	voter, err := e.chain.GetVoter(e.daoID, caller)
	if err != nil {
		return err
	}
	if voter.Deposited.IsZero() {
		return fmt.Errorf("%w: %s", ErrNoDeposit, caller)
	}
	proposal, err := e.store.Get(proposalID)
	if errors.Is(err, ErrProposalNotFound) {
		return fmt.Errorf("%w: %w", ErrProposalExpiredOrMissing, err)
	}
	if err != nil {
		return err
	}
	if voter.Deposited.Lt(&proposal.MinimumVotesToVote) {
		return fmt.Errorf("%w: %s < %s",
			ErrBelowMinimumVotes,
			voter.Deposited.Dec(),
			proposal.MinimumVotesToVote.Dec(),
		)
	}
	proposal, err = e.store.RecordVote(e.now, proposalID, caller, &voter.Deposited, support)
	if err != nil {
		return err
	}
	if proposal.EndTime > voter.LastVoteEndTime {
		voter.LastVoteEndTime = proposal.EndTime
	}
	e.chain.SetVoter(e.daoID, caller, voter)

	e.emitter.Emit(&events.Voted{
		DAO:        e.daoID,
		Voter:      caller,
		ProposalID: proposalID,
		Support:    support,
	})
	return nil
}

// WithdrawTokens returns deposited tokens to [caller] once every proposal
// they voted on has ended.
func (e *Engine) WithdrawTokens(caller ids.ShortID, amount *uint256.Int) error {
	if amount.IsZero() {
		return ErrZeroAmount
	}
	voter, err := e.chain.GetVoter(e.daoID, caller)
	if err != nil {
		return err
	}
	if amount.Gt(&voter.Deposited) {
		return fmt.Errorf("%w: %s < %s", ErrInsufficientDeposit, voter.Deposited.Dec(), amount.Dec())
	}
	if now := uint64(e.now.Unix()); now < voter.LastVoteEndTime {
		return fmt.Errorf("%w: until %d", ErrLockedByActiveVote, voter.LastVoteEndTime)
	}

	voter.Deposited.Sub(&voter.Deposited, amount)
	e.chain.SetVoter(e.daoID, caller, voter)
	if voter.Deposited.IsZero() {
		dao, err := e.Metadata()
		if err != nil {
			return err
		}
		dao.ActiveUsers--
		e.chain.SetDAO(e.daoID, dao)
	}
	if err := e.token.Transfer(e.daoID, caller, amount); err != nil {
		return err
	}

	e.emitter.Emit(&events.TokensWithdrawn{
		DAO:     e.daoID,
		Account: caller,
		Amount:  new(uint256.Int).Set(amount),
	})
	return nil
}

// AddProposal opens a proposal that executes [callData] against [target] if
// it passes. [callData] must decode to a governable operation. A nil
// [minimumVotes] lets any depositor vote.
func (e *Engine) AddProposal(
	caller ids.ShortID,
	target ids.ShortID,
	callData []byte,
	description string,
	minimumVotes *uint256.Int,
) (uint64, error) {
	dao, err := e.Metadata()
	if err != nil {
		return 0, err
	}
	if err := access.RequireOwner(dao.Owner, caller); err != nil {
		return 0, err
	}
	if target == ids.ShortEmpty {
		return 0, dac.ErrZeroAddress
	}
	if _, err := dac.Decode(callData); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidCallData, err)
	}
	if minimumVotes == nil {
		minimumVotes = new(uint256.Int)
	}

	proposal, err := e.store.Create(e.now, dao.DebatePeriod, target, callData, description, minimumVotes)
	if err != nil {
		return 0, err
	}
	e.emitter.Emit(&events.ProposalAdded{
		DAO:          e.daoID,
		ProposalID:   proposal.ID,
		Target:       target,
		Description:  description,
		EndTime:      proposal.EndTime,
		MinimumVotes: new(uint256.Int).Set(minimumVotes),
	})
	return proposal.ID, nil
}

// Finalize resolves an ended proposal. If it passed, its operation is
// invoked and a failing invocation fails the finalization.
func (e *Engine) Finalize(proposalID uint64) (bool, error) {
	proposal, err := e.finishable(proposalID)
	if err != nil {
		return false, err
	}
	dao, err := e.Metadata()
	if err != nil {
		return false, err
	}
	totalSupply, err := e.token.TotalSupply()
	if err != nil {
		return false, err
	}

	totalWeight := proposal.TotalWeight()
	quorum := token.PercentOf(totalSupply, dao.MinQuorumPercent)
	success := !totalWeight.Lt(quorum) &&
		!proposal.ConsentingWeight.Lt(&dao.MinVotes) &&
		proposal.ConsentingWeight.Gt(&proposal.DissentingWeight)

	if _, err := e.store.MarkFinished(proposalID); err != nil {
		return false, err
	}
	if success {
		if err := e.invoker.Invoke(e.daoID, proposal.Target, proposal.CallData); err != nil {
			return false, fmt.Errorf("proposal %d: %w", proposalID, err)
		}
	}

	e.emitter.Emit(&events.Finished{
		DAO:             e.daoID,
		ProposalID:      proposalID,
		Success:         success,
		Target:          proposal.Target,
		TotalWeight:     totalWeight,
		UsersVotedTotal: proposal.UsersVotedTotal,
		UsersVotedTrue:  proposal.UsersVotedTrue,
	})
	return success, nil
}

// EmergencyEnd closes an ended proposal without executing it.
func (e *Engine) EmergencyEnd(caller ids.ShortID, proposalID uint64) error {
	dao, err := e.Metadata()
	if err != nil {
		return err
	}
	if err := access.RequireOwner(dao.Owner, caller); err != nil {
		return err
	}
	if _, err := e.finishable(proposalID); err != nil {
		return err
	}
	if _, err := e.store.MarkFinished(proposalID); err != nil {
		return err
	}
	e.emitter.Emit(&events.FinishedEmergency{
		DAO:        e.daoID,
		ProposalID: proposalID,
	})
	return nil
}

func (e *Engine) finishable(proposalID uint64) (*state.Proposal, error) {
	proposal, err := e.store.Get(proposalID)
	if err != nil {
		return nil, err
	}
	if uint64(e.now.Unix()) < proposal.EndTime {
		return nil, fmt.Errorf("%w: proposal %d ends at %d", ErrVotingNotOverYet, proposalID, proposal.EndTime)
	}
	if proposal.IsFinished {
		return nil, fmt.Errorf("%w: %d", ErrAlreadyFinished, proposalID)
	}
	return proposal, nil
}

// WithdrawETH sends native value held by the dao to [to].
func (e *Engine) WithdrawETH(caller, to ids.ShortID, amount *uint256.Int) error {
	dao, err := e.Metadata()
	if err != nil {
		return err
	}
	if err := access.RequireOwner(dao.Owner, caller); err != nil {
		return err
	}
	err = native.Transfer(e.chain, e.daoID, to, amount)
	switch {
	case errors.Is(err, native.ErrInsufficientFunds):
		return fmt.Errorf("%w: %w", ErrInsufficientContractBalance, err)
	case errors.Is(err, native.ErrZeroRecipient):
		return dac.ErrZeroAddress
	case err != nil:
		return err
	}
	e.emitter.Emit(&events.ETHWithdrawn{
		DAO:    e.daoID,
		To:     to,
		Amount: new(uint256.Int).Set(amount),
	})
	return nil
}

func (e *Engine) ActiveUsers() (uint64, error) {
	dao, err := e.Metadata()
	if err != nil {
		return 0, err
	}
	return dao.ActiveUsers, nil
}

func (e *Engine) UserBalance(addr ids.ShortID) (*uint256.Int, error) {
	voter, err := e.chain.GetVoter(e.daoID, addr)
	if err != nil {
		return nil, err
	}
	return &voter.Deposited, nil
}

func (e *Engine) UserLastVoteEndTime(addr ids.ShortID) (uint64, error) {
	voter, err := e.chain.GetVoter(e.daoID, addr)
	if err != nil {
		return 0, err
	}
	return voter.LastVoteEndTime, nil
}

func (e *Engine) DebatePeriod() (time.Duration, error) {
	dao, err := e.Metadata()
	if err != nil {
		return 0, err
	}
	return time.Duration(dao.DebatePeriod) * time.Second, nil
}

func (e *Engine) LastProposalID() (uint64, error) {
	return e.store.LastID()
}

func (e *Engine) MinQuorum() (uint64, error) {
	dao, err := e.Metadata()
	if err != nil {
		return 0, err
	}
	return dao.MinQuorumPercent, nil
}

func (e *Engine) MinVotes() (*uint256.Int, error) {
	dao, err := e.Metadata()
	if err != nil {
		return nil, err
	}
	return &dao.MinVotes, nil
}

func (e *Engine) Proposal(proposalID uint64) (*state.Proposal, error) {
	return e.store.Get(proposalID)
}

func (e *Engine) Token() (ids.ShortID, error) {
	dao, err := e.Metadata()
	if err != nil {
		return ids.ShortEmpty, err
	}
	return dao.Token, nil
}

func (e *Engine) IsUserVoted(addr ids.ShortID, proposalID uint64) (bool, error) {
	return e.store.HasVoted(proposalID, addr)
}

func (e *Engine) Owner() (ids.ShortID, error) {
	dao, err := e.Metadata()
	if err != nil {
		return ids.ShortEmpty, err
	}
	return dao.Owner, nil
}

func (e *Engine) TransferOwnership(caller, newOwner ids.ShortID) error {
	dao, err := e.Metadata()
	if err != nil {
		return err
	}
	owner, err := access.TransferOwnership(dao.Owner, caller, newOwner)
	if err != nil {
		return err
	}
	e.setOwner(dao, owner)
	return nil
}

func (e *Engine) RenounceOwnership(caller ids.ShortID) error {
	dao, err := e.Metadata()
	if err != nil {
		return err
	}
	owner, err := access.RenounceOwnership(dao.Owner, caller)
	if err != nil {
		return err
	}
	e.setOwner(dao, owner)
	return nil
}

func (e *Engine) setOwner(dao *state.DAO, owner ids.ShortID) {
	previous := dao.Owner
	dao.Owner = owner
	e.chain.SetDAO(e.daoID, dao)
	e.emitter.Emit(&events.OwnershipTransferred{
		Emitter:       e.daoID,
		PreviousOwner: previous,
		NewOwner:      owner,
	})
}
