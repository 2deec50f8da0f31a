// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package events

import (
	"github.com/holiman/uint256"

	"github.com/ava-labs/avalanchego/ids"
)

var (
	_ Event = (*OwnershipTransferred)(nil)
	_ Event = (*Transfer)(nil)
	_ Event = (*Approval)(nil)
	_ Event = (*Credited)(nil)
	_ Event = (*Voted)(nil)
	_ Event = (*TokensWithdrawn)(nil)
	_ Event = (*ProposalAdded)(nil)
	_ Event = (*Finished)(nil)
	_ Event = (*FinishedEmergency)(nil)
	_ Event = (*ETHWithdrawn)(nil)
	_ Event = (*NativeSent)(nil)
	_ Event = (*Upgraded)(nil)
	_ Event = (*OperationExecuted)(nil)
)

// Event is an observable record of a state change. Contract is the address of
// the token, dao or upgrader that emitted it.
type Event interface {
	Name() string
	Contract() ids.ShortID
}

type OwnershipTransferred struct {
	Emitter       ids.ShortID `json:"contract"`
	PreviousOwner ids.ShortID `json:"previousOwner"`
	NewOwner      ids.ShortID `json:"newOwner"`
}

func (*OwnershipTransferred) Name() string            { return "OwnershipTransferred" }
func (e *OwnershipTransferred) Contract() ids.ShortID { return e.Emitter }

// Transfer is emitted for every balance movement. Burns are reported with an
// empty To.
type Transfer struct {
	Token  ids.ShortID  `json:"token"`
	From   ids.ShortID  `json:"from"`
	To     ids.ShortID  `json:"to"`
	Amount *uint256.Int `json:"amount"`
}

func (*Transfer) Name() string            { return "Transfer" }
func (e *Transfer) Contract() ids.ShortID { return e.Token }

type Approval struct {
	Token   ids.ShortID  `json:"token"`
	Owner   ids.ShortID  `json:"owner"`
	Spender ids.ShortID  `json:"spender"`
	Amount  *uint256.Int `json:"amount"`
}

func (*Approval) Name() string            { return "Approval" }
func (e *Approval) Contract() ids.ShortID { return e.Token }

type Credited struct {
	DAO     ids.ShortID  `json:"dao"`
	Account ids.ShortID  `json:"account"`
	Amount  *uint256.Int `json:"amount"`
}

func (*Credited) Name() string            { return "Credited" }
func (e *Credited) Contract() ids.ShortID { return e.DAO }

type Voted struct {
	DAO        ids.ShortID `json:"dao"`
	Voter      ids.ShortID `json:"voter"`
	ProposalID uint64      `json:"proposalID"`
	Support    bool        `json:"support"`
}

func (*Voted) Name() string            { return "Voted" }
func (e *Voted) Contract() ids.ShortID { return e.DAO }

type TokensWithdrawn struct {
	DAO     ids.ShortID  `json:"dao"`
	Account ids.ShortID  `json:"account"`
	Amount  *uint256.Int `json:"amount"`
}

func (*TokensWithdrawn) Name() string            { return "TokensWithdrawn" }
func (e *TokensWithdrawn) Contract() ids.ShortID { return e.DAO }

type ProposalAdded struct {
	DAO          ids.ShortID  `json:"dao"`
	ProposalID   uint64       `json:"proposalID"`
	Target       ids.ShortID  `json:"target"`
	Description  string       `json:"description"`
	EndTime      uint64       `json:"endTime"`
	MinimumVotes *uint256.Int `json:"minimumVotes"`
}

func (*ProposalAdded) Name() string            { return "ProposalAdded" }
func (e *ProposalAdded) Contract() ids.ShortID { return e.DAO }

type Finished struct {
	DAO             ids.ShortID  `json:"dao"`
	ProposalID      uint64       `json:"proposalID"`
	Success         bool         `json:"success"`
	Target          ids.ShortID  `json:"target"`
	TotalWeight     *uint256.Int `json:"totalWeight"`
	UsersVotedTotal uint64       `json:"usersVotedTotal"`
	UsersVotedTrue  uint64       `json:"usersVotedTrue"`
}

func (*Finished) Name() string            { return "Finished" }
func (e *Finished) Contract() ids.ShortID { return e.DAO }

type FinishedEmergency struct {
	DAO        ids.ShortID `json:"dao"`
	ProposalID uint64      `json:"proposalID"`
}

func (*FinishedEmergency) Name() string            { return "FinishedEmergency" }
func (e *FinishedEmergency) Contract() ids.ShortID { return e.DAO }

type ETHWithdrawn struct {
	DAO    ids.ShortID  `json:"dao"`
	To     ids.ShortID  `json:"to"`
	Amount *uint256.Int `json:"amount"`
}

func (*ETHWithdrawn) Name() string            { return "ETHWithdrawn" }
func (e *ETHWithdrawn) Contract() ids.ShortID { return e.DAO }

type NativeSent struct {
	From   ids.ShortID  `json:"from"`
	To     ids.ShortID  `json:"to"`
	Amount *uint256.Int `json:"amount"`
}

func (*NativeSent) Name() string            { return "NativeSent" }
func (e *NativeSent) Contract() ids.ShortID { return ids.ShortEmpty }

type Upgraded struct {
	Upgrader ids.ShortID  `json:"upgrader"`
	Account  ids.ShortID  `json:"account"`
	Amount   *uint256.Int `json:"amount"`
}

func (*Upgraded) Name() string            { return "Upgraded" }
func (e *Upgraded) Contract() ids.ShortID { return e.Upgrader }

// OperationExecuted is emitted when a governable operation ran against a
// target, either directly by its owner or through a finished proposal.
type OperationExecuted struct {
	Target    ids.ShortID `json:"target"`
	Caller    ids.ShortID `json:"caller"`
	Operation string      `json:"operation"`
}

func (*OperationExecuted) Name() string            { return "OperationExecuted" }
func (e *OperationExecuted) Contract() ids.ShortID { return e.Target }
