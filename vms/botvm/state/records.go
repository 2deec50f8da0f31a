// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"github.com/holiman/uint256"
	"golang.org/x/exp/slices"

	"github.com/ava-labs/avalanchego/ids"
)

// Token is the metadata of a deployed token ledger.
type Token struct {
	Name     string      `serialize:"true" json:"name"`
	Symbol   string      `serialize:"true" json:"symbol"`
	Decimals uint8       `serialize:"true" json:"decimals"`
	Owner    ids.ShortID `serialize:"true" json:"owner"`
	// DAO is empty until it is bound with setDAO
	DAO ids.ShortID `serialize:"true" json:"dao"`

	MaxSupply    uint256.Int `serialize:"true" json:"maxSupply"`
	TotalSupply  uint256.Int `serialize:"true" json:"totalSupply"`
	TokensBurned uint256.Int `serialize:"true" json:"tokensBurned"`

	BurnFeePercent   uint64 `serialize:"true" json:"burnFeePercent"`
	MaxTxPercent     uint64 `serialize:"true" json:"maxTxPercent"`
	MaxWalletPercent uint64 `serialize:"true" json:"maxWalletPercent"`

	CirculationExcluded []ids.ShortID `serialize:"true" json:"circulationExcluded"`
}

func (t *Token) Clone() *Token {
	c := *t
	c.CirculationExcluded = slices.Clone(t.CirculationExcluded)
	return &c
}

// WalletConfig holds the per-account exclusion flags of a token.
type WalletConfig struct {
	IsExcludedFromFee               bool `serialize:"true" json:"isExcludedFromFee"`
	IsExcludedFromMaxWalletAmount   bool `serialize:"true" json:"isExcludedFromMaxWalletAmount"`
	IsExcludedFromMaxTxAmount       bool `serialize:"true" json:"isExcludedFromMaxTxAmount"`
	IsExcludedFromCirculationSupply bool `serialize:"true" json:"isExcludedFromCirculationSupply"`
	IsExcludedHolder                bool `serialize:"true" json:"isExcludedHolder"`
}

type Account struct {
	Balance      uint256.Int  `serialize:"true" json:"balance"`
	WalletConfig WalletConfig `serialize:"true" json:"walletConfig"`
}

func (a *Account) Clone() *Account {
	c := *a
	return &c
}

// DAO is the configuration and bookkeeping of a governance module.
type DAO struct {
	Owner            ids.ShortID `serialize:"true" json:"owner"`
	Token            ids.ShortID `serialize:"true" json:"token"`
	MinQuorumPercent uint64      `serialize:"true" json:"minQuorumPercent"`
	// DebatePeriod is in seconds
	DebatePeriod  uint64      `serialize:"true" json:"debatePeriod"`
	MinVotes      uint256.Int `serialize:"true" json:"minVotes"`
	ActiveUsers   uint64      `serialize:"true" json:"activeUsers"`
	ProposalCount uint64      `serialize:"true" json:"proposalCount"`
}

func (d *DAO) Clone() *DAO {
	c := *d
	return &c
}

type Proposal struct {
	ID          uint64      `serialize:"true" json:"id"`
	Target      ids.ShortID `serialize:"true" json:"target"`
	CallData    []byte      `serialize:"true" json:"callData"`
	Description string      `serialize:"true" json:"description"`
	IsFinished  bool        `serialize:"true" json:"isFinished"`
	// EndTime is a unix timestamp
	EndTime            uint64      `serialize:"true" json:"endTime"`
	ConsentingWeight   uint256.Int `serialize:"true" json:"consentingWeight"`
	DissentingWeight   uint256.Int `serialize:"true" json:"dissentingWeight"`
	UsersVotedTotal    uint64      `serialize:"true" json:"usersVotedTotal"`
	UsersVotedTrue     uint64      `serialize:"true" json:"usersVotedTrue"`
	MinimumVotesToVote uint256.Int `serialize:"true" json:"minimumVotesToParticipate"`
}

func (p *Proposal) Clone() *Proposal {
	c := *p
	c.CallData = slices.Clone(p.CallData)
	return &c
}

// TotalWeight is the sum of both tallies.
func (p *Proposal) TotalWeight() *uint256.Int {
	return new(uint256.Int).Add(&p.ConsentingWeight, &p.DissentingWeight)
}

type Voter struct {
	Deposited       uint256.Int `serialize:"true" json:"deposited"`
	LastVoteEndTime uint64      `serialize:"true" json:"lastVoteEndTime"`
}

func (v *Voter) Clone() *Voter {
	c := *v
	return &c
}

// Upgrader swaps balances of a source token for a destination token.
type Upgrader struct {
	Source      ids.ShortID `serialize:"true" json:"source"`
	Destination ids.ShortID `serialize:"true" json:"destination"`
}

func (u *Upgrader) Clone() *Upgrader {
	c := *u
	return &c
}

// ProposalRef identifies an unfinished proposal in the end time index.
type ProposalRef struct {
	EndTime    uint64      `json:"endTime"`
	DAO        ids.ShortID `json:"dao"`
	ProposalID uint64      `json:"proposalID"`
}
