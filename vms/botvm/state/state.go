// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/btree"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/cache/metercacher"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

const (
	tokenCacheSize   = 256
	accountCacheSize = 8192
	daoCacheSize     = 256
	proposalIndexDeg = 16
)

var (
	// These are prefixes for db keys.
	// It's important to set different prefixes for each separate database objects.
	singletonPrefix   = []byte("singleton")
	tokenPrefix       = []byte("token")
	accountPrefix     = []byte("account")
	allowancePrefix   = []byte("allowance")
	holderCountPrefix = []byte("holderCount")
	holderSlotPrefix  = []byte("holderSlot")
	holderIndexPrefix = []byte("holderIndex")
	daoPrefix         = []byte("dao")
	proposalPrefix    = []byte("proposal")
	voterPrefix       = []byte("voter")
	receiptPrefix     = []byte("receipt")
	nativePrefix      = []byte("native")
	upgraderPrefix    = []byte("upgrader")

	isInitializedKey = []byte("initialized")
	timestampKey     = []byte("timestamp")
	lastAcceptedKey  = []byte("last accepted")

	_ State = (*state)(nil)

	errCorruptedIndex = errors.New("proposal index is corrupted")
)

type ReadOnlyChain interface {
	GetTimestamp() time.Time

	// GetToken returns database.ErrNotFound if no token is deployed at [tokenID].
	GetToken(tokenID ids.ShortID) (*Token, error)
	GetAccount(tokenID, addr ids.ShortID) (*Account, error)
	GetAllowance(tokenID, owner, spender ids.ShortID) (*uint256.Int, error)

	GetHolderCount(tokenID ids.ShortID) (uint64, error)
	GetHolder(tokenID ids.ShortID, index uint64) (ids.ShortID, error)
	GetHolderIndex(tokenID, addr ids.ShortID) (uint64, bool, error)

	// GetDAO returns database.ErrNotFound if no dao is deployed at [daoID].
	GetDAO(daoID ids.ShortID) (*DAO, error)
	GetProposal(daoID ids.ShortID, proposalID uint64) (*Proposal, error)
	GetVoter(daoID, addr ids.ShortID) (*Voter, error)
	HasVoted(daoID ids.ShortID, proposalID uint64, addr ids.ShortID) (bool, error)

	GetNativeBalance(addr ids.ShortID) (*uint256.Int, error)
	GetUpgrader(upgraderID ids.ShortID) (*Upgrader, error)
}

// Chain is the mutable view on the state a transaction executes against.
// Records returned by getters are copies and may be modified by the caller.
// Records passed to setters must not be modified afterwards.
type Chain interface {
	ReadOnlyChain

	SetTimestamp(t time.Time)

	SetToken(tokenID ids.ShortID, token *Token)
	SetAccount(tokenID, addr ids.ShortID, account *Account)
	SetAllowance(tokenID, owner, spender ids.ShortID, amount *uint256.Int)

	SetHolderCount(tokenID ids.ShortID, count uint64)
	SetHolder(tokenID ids.ShortID, index uint64, addr ids.ShortID)
	DeleteHolder(tokenID ids.ShortID, index uint64)
	SetHolderIndex(tokenID, addr ids.ShortID, index uint64)
	DeleteHolderIndex(tokenID, addr ids.ShortID)

	SetDAO(daoID ids.ShortID, dao *DAO)
	SetProposal(daoID ids.ShortID, proposal *Proposal)
	SetVoter(daoID, addr ids.ShortID, voter *Voter)
	SetVoted(daoID ids.ShortID, proposalID uint64, addr ids.ShortID)

	SetNativeBalance(addr ids.ShortID, amount *uint256.Int)
	SetUpgrader(upgraderID ids.ShortID, upgrader *Upgrader)
}

// State is the persistent chain state. It also exposes a few methods needed
// for managing database commits and close.
type State interface {
	Chain

	IsInitialized() (bool, error)
	SetInitialized() error

	GetLastAccepted() ids.ID
	SetLastAccepted(txID ids.ID)

	// FinishableProposals returns the unfinished proposals whose voting
	// period is over at [now], ordered by end time.
	FinishableProposals(now time.Time) []ProposalRef
	OpenProposals() []ProposalRef

	Abort()
	Commit() error
	CommitBatch() (database.Batch, error)
	Close() error
}

type state struct {
	baseDB      *versiondb.Database
	singletonDB database.Database

	timestamp    time.Time
	lastAccepted ids.ID

	tokens       *recordSet[ids.ShortID, Token]
	accounts     *recordSet[accountKey, Account]
	allowances   *recordSet[allowanceKey, uint256.Int]
	holderCounts *recordSet[ids.ShortID, uint64]
	holderSlots  *recordSet[holderSlotKey, ids.ShortID]
	holderIndex  *recordSet[accountKey, uint64]
	daos         *recordSet[ids.ShortID, DAO]
	proposals    *recordSet[proposalKey, Proposal]
	voters       *recordSet[accountKey, Voter]
	receipts     *recordSet[receiptKey, bool]
	natives      *recordSet[ids.ShortID, uint256.Int]
	upgraders    *recordSet[ids.ShortID, Upgrader]

	// unfinished proposals ordered by end time
	openProposals *btree.BTreeG[ProposalRef]

	// in-memory values as of the last successful commit
	committedTimestamp     time.Time
	committedLastAccepted  ids.ID
	committedOpenProposals *btree.BTreeG[ProposalRef]
}

func lessProposalRef(a, b ProposalRef) bool {
	switch {
	case a.EndTime != b.EndTime:
		return a.EndTime < b.EndTime
	case a.DAO != b.DAO:
		return string(a.DAO[:]) < string(b.DAO[:])
	default:
		return a.ProposalID < b.ProposalID
	}
}

func New(db database.Database, metricsReg prometheus.Registerer) (State, error) {
	baseDB := versiondb.New(db)

	tokenCache, err := metercacher.New[ids.ShortID, *Token](
		"token_cache",
		metricsReg,
		&cache.LRU[ids.ShortID, *Token]{Size: tokenCacheSize},
	)
	if err != nil {
		return nil, err
	}
	accountCache, err := metercacher.New[accountKey, *Account](
		"account_cache",
		metricsReg,
		&cache.LRU[accountKey, *Account]{Size: accountCacheSize},
	)
	if err != nil {
		return nil, err
	}
	daoCache, err := metercacher.New[ids.ShortID, *DAO](
		"dao_cache",
		metricsReg,
		&cache.LRU[ids.ShortID, *DAO]{Size: daoCacheSize},
	)
	if err != nil {
		return nil, err
	}

	s := &state{
		baseDB:      baseDB,
		singletonDB: prefixdb.New(singletonPrefix, baseDB),

		tokens:       newRecordSet[ids.ShortID, Token](prefixdb.New(tokenPrefix, baseDB), shortIDKey, tokenCache),
		accounts:     newRecordSet[accountKey, Account](prefixdb.New(accountPrefix, baseDB), accountKey.bytes, accountCache),
		allowances:   newRecordSet[allowanceKey, uint256.Int](prefixdb.New(allowancePrefix, baseDB), allowanceKey.bytes, nil),
		holderCounts: newRecordSet[ids.ShortID, uint64](prefixdb.New(holderCountPrefix, baseDB), shortIDKey, nil),
		holderSlots:  newRecordSet[holderSlotKey, ids.ShortID](prefixdb.New(holderSlotPrefix, baseDB), holderSlotKey.bytes, nil),
		holderIndex:  newRecordSet[accountKey, uint64](prefixdb.New(holderIndexPrefix, baseDB), accountKey.bytes, nil),
		daos:         newRecordSet[ids.ShortID, DAO](prefixdb.New(daoPrefix, baseDB), shortIDKey, daoCache),
		proposals:    newRecordSet[proposalKey, Proposal](prefixdb.New(proposalPrefix, baseDB), proposalKey.bytes, nil),
		voters:       newRecordSet[accountKey, Voter](prefixdb.New(voterPrefix, baseDB), accountKey.bytes, nil),
		receipts:     newRecordSet[receiptKey, bool](prefixdb.New(receiptPrefix, baseDB), receiptKey.bytes, nil),
		natives:      newRecordSet[ids.ShortID, uint256.Int](prefixdb.New(nativePrefix, baseDB), shortIDKey, nil),
		upgraders:    newRecordSet[ids.ShortID, Upgrader](prefixdb.New(upgraderPrefix, baseDB), shortIDKey, nil),

		openProposals: btree.NewG(proposalIndexDeg, lessProposalRef),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	s.markCommitted()
	return s, nil
}

func (s *state) load() error {
	timestamp, err := database.GetTimestamp(s.singletonDB, timestampKey)
	switch {
	case err == database.ErrNotFound:
	case err != nil:
		return err
	default:
		s.timestamp = timestamp
	}

	lastAccepted, err := database.GetID(s.singletonDB, lastAcceptedKey)
	switch {
	case err == database.ErrNotFound:
	case err != nil:
		return err
	default:
		s.lastAccepted = lastAccepted
	}
	return s.loadOpenProposals()
}

func (s *state) loadOpenProposals() error {
	it := s.proposals.db.NewIterator()
	defer it.Release()

	for it.Next() {
		key, err := parseProposalKey(it.Key())
		if err != nil {
			return fmt.Errorf("%w: %w", errCorruptedIndex, err)
		}
		proposal := &Proposal{}
		if _, err := Codec.Unmarshal(it.Value(), proposal); err != nil {
			return err
		}
		if proposal.ID != key.id {
			return fmt.Errorf("%w: proposal %d stored as %d", errCorruptedIndex, proposal.ID, key.id)
		}
		if !proposal.IsFinished {
			s.openProposals.ReplaceOrInsert(ProposalRef{
				EndTime:    proposal.EndTime,
				DAO:        key.dao,
				ProposalID: proposal.ID,
			})
		}
	}
	return it.Error()
}

func (s *state) IsInitialized() (bool, error) {
	return s.singletonDB.Has(isInitializedKey)
}

func (s *state) SetInitialized() error {
	return s.singletonDB.Put(isInitializedKey, nil)
}

func (s *state) GetLastAccepted() ids.ID {
	return s.lastAccepted
}

func (s *state) SetLastAccepted(txID ids.ID) {
	s.lastAccepted = txID
}

func (s *state) GetTimestamp() time.Time {
	return s.timestamp
}

func (s *state) SetTimestamp(t time.Time) {
	s.timestamp = t
}

func (s *state) GetToken(tokenID ids.ShortID) (*Token, error) {
	token, err := s.tokens.get(tokenID)
	if err != nil {
		return nil, err
	}
	return token.Clone(), nil
}

func (s *state) SetToken(tokenID ids.ShortID, token *Token) {
	s.tokens.put(tokenID, token)
}

func (s *state) GetAccount(tokenID, addr ids.ShortID) (*Account, error) {
	account, err := s.accounts.get(accountKey{token: tokenID, addr: addr})
	switch {
	case err == database.ErrNotFound:
		return &Account{}, nil
	case err != nil:
		return nil, err
	}
	return account.Clone(), nil
}

func (s *state) SetAccount(tokenID, addr ids.ShortID, account *Account) {
	s.accounts.put(accountKey{token: tokenID, addr: addr}, account)
}

func (s *state) GetAllowance(tokenID, owner, spender ids.ShortID) (*uint256.Int, error) {
	amount, err := s.allowances.get(allowanceKey{token: tokenID, owner: owner, spender: spender})
	switch {
	case err == database.ErrNotFound:
		return new(uint256.Int), nil
	case err != nil:
		return nil, err
	}
	return new(uint256.Int).Set(amount), nil
}

func (s *state) SetAllowance(tokenID, owner, spender ids.ShortID, amount *uint256.Int) {
	s.allowances.put(allowanceKey{token: tokenID, owner: owner, spender: spender}, amount)
}

func (s *state) GetHolderCount(tokenID ids.ShortID) (uint64, error) {
	count, err := s.holderCounts.get(tokenID)
	switch {
	case err == database.ErrNotFound:
		return 0, nil
	case err != nil:
		return 0, err
	}
	return *count, nil
}

func (s *state) SetHolderCount(tokenID ids.ShortID, count uint64) {
	s.holderCounts.put(tokenID, &count)
}

func (s *state) GetHolder(tokenID ids.ShortID, index uint64) (ids.ShortID, error) {
	addr, err := s.holderSlots.get(holderSlotKey{token: tokenID, index: index})
	if err != nil {
		return ids.ShortEmpty, err
	}
	return *addr, nil
}

func (s *state) SetHolder(tokenID ids.ShortID, index uint64, addr ids.ShortID) {
	s.holderSlots.put(holderSlotKey{token: tokenID, index: index}, &addr)
}

func (s *state) DeleteHolder(tokenID ids.ShortID, index uint64) {
	s.holderSlots.delete(holderSlotKey{token: tokenID, index: index})
}

func (s *state) GetHolderIndex(tokenID, addr ids.ShortID) (uint64, bool, error) {
	index, err := s.holderIndex.get(accountKey{token: tokenID, addr: addr})
	switch {
	case err == database.ErrNotFound:
		return 0, false, nil
	case err != nil:
		return 0, false, err
	}
	return *index, true, nil
}

func (s *state) SetHolderIndex(tokenID, addr ids.ShortID, index uint64) {
	s.holderIndex.put(accountKey{token: tokenID, addr: addr}, &index)
}

func (s *state) DeleteHolderIndex(tokenID, addr ids.ShortID) {
	s.holderIndex.delete(accountKey{token: tokenID, addr: addr})
}

func (s *state) GetDAO(daoID ids.ShortID) (*DAO, error) {
	dao, err := s.daos.get(daoID)
	if err != nil {
		return nil, err
	}
	return dao.Clone(), nil
}

func (s *state) SetDAO(daoID ids.ShortID, dao *DAO) {
	s.daos.put(daoID, dao)
}

func (s *state) GetProposal(daoID ids.ShortID, proposalID uint64) (*Proposal, error) {
	proposal, err := s.proposals.get(proposalKey{dao: daoID, id: proposalID})
	if err != nil {
		return nil, err
	}
	return proposal.Clone(), nil
}

func (s *state) SetProposal(daoID ids.ShortID, proposal *Proposal) {
	s.proposals.put(proposalKey{dao: daoID, id: proposal.ID}, proposal)
}

func (s *state) GetVoter(daoID, addr ids.ShortID) (*Voter, error) {
	voter, err := s.voters.get(accountKey{token: daoID, addr: addr})
	switch {
	case err == database.ErrNotFound:
		return &Voter{}, nil
	case err != nil:
		return nil, err
	}
	return voter.Clone(), nil
}

func (s *state) SetVoter(daoID, addr ids.ShortID, voter *Voter) {
	s.voters.put(accountKey{token: daoID, addr: addr}, voter)
}

func (s *state) HasVoted(daoID ids.ShortID, proposalID uint64, addr ids.ShortID) (bool, error) {
	_, err := s.receipts.get(receiptKey{dao: daoID, id: proposalID, voter: addr})
	switch {
	case err == database.ErrNotFound:
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

func (s *state) SetVoted(daoID ids.ShortID, proposalID uint64, addr ids.ShortID) {
	voted := true
	s.receipts.put(receiptKey{dao: daoID, id: proposalID, voter: addr}, &voted)
}

func (s *state) GetNativeBalance(addr ids.ShortID) (*uint256.Int, error) {
	amount, err := s.natives.get(addr)
	switch {
	case err == database.ErrNotFound:
		return new(uint256.Int), nil
	case err != nil:
		return nil, err
	}
	return new(uint256.Int).Set(amount), nil
}

func (s *state) SetNativeBalance(addr ids.ShortID, amount *uint256.Int) {
	s.natives.put(addr, amount)
}

func (s *state) GetUpgrader(upgraderID ids.ShortID) (*Upgrader, error) {
	upgrader, err := s.upgraders.get(upgraderID)
	if err != nil {
		return nil, err
	}
	return upgrader.Clone(), nil
}

func (s *state) SetUpgrader(upgraderID ids.ShortID, upgrader *Upgrader) {
	s.upgraders.put(upgraderID, upgrader)
}

func (s *state) FinishableProposals(now time.Time) []ProposalRef {
	nowUnix := uint64(now.Unix())
	var refs []ProposalRef
	s.openProposals.Ascend(func(ref ProposalRef) bool {
		if ref.EndTime > nowUnix {
			return false
		}
		refs = append(refs, ref)
		return true
	})
	return refs
}

func (s *state) OpenProposals() []ProposalRef {
	refs := make([]ProposalRef, 0, s.openProposals.Len())
	s.openProposals.Ascend(func(ref ProposalRef) bool {
		refs = append(refs, ref)
		return true
	})
	return refs
}

// Commit commits pending operations to baseDB. If the commit fails, the state
// is rolled back to the last successful commit.
func (s *state) Commit() error {
	defer s.Abort()
	batch, err := s.CommitBatch()
	if err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}
	s.markCommitted()
	return nil
}

func (s *state) markCommitted() {
	s.committedTimestamp = s.timestamp
	s.committedLastAccepted = s.lastAccepted
	s.committedOpenProposals = s.openProposals.Clone()
}

func (s *state) CommitBatch() (database.Batch, error) {
	if err := s.write(); err != nil {
		return nil, err
	}
	return s.baseDB.CommitBatch()
}

func (s *state) updateProposalIndex() {
	for key, proposal := range s.proposals.modified {
		if proposal == nil {
			continue
		}
		ref := ProposalRef{
			EndTime:    proposal.EndTime,
			DAO:        key.dao,
			ProposalID: key.id,
		}
		if proposal.IsFinished {
			s.openProposals.Delete(ref)
		} else {
			s.openProposals.ReplaceOrInsert(ref)
		}
	}
}

func (s *state) writeSingletons() error {
	errs := wrappers.Errs{}
	errs.Add(
		database.PutTimestamp(s.singletonDB, timestampKey, s.timestamp),
		database.PutID(s.singletonDB, lastAcceptedKey, s.lastAccepted),
	)
	return errs.Err
}

func (s *state) write() error {
	s.updateProposalIndex()

	errs := wrappers.Errs{}
	errs.Add(
		s.writeSingletons(),
		s.tokens.write(),
		s.accounts.write(),
		s.allowances.write(),
		s.holderCounts.write(),
		s.holderSlots.write(),
		s.holderIndex.write(),
		s.daos.write(),
		s.proposals.write(),
		s.voters.write(),
		s.receipts.write(),
		s.natives.write(),
		s.upgraders.write(),
	)
	return errs.Err
}

func (s *state) Abort() {
	s.tokens.abort()
	s.accounts.abort()
	s.allowances.abort()
	s.holderCounts.abort()
	s.holderSlots.abort()
	s.holderIndex.abort()
	s.daos.abort()
	s.proposals.abort()
	s.voters.abort()
	s.receipts.abort()
	s.natives.abort()
	s.upgraders.abort()
	s.baseDB.Abort()

	s.timestamp = s.committedTimestamp
	s.lastAccepted = s.committedLastAccepted
	s.openProposals = s.committedOpenProposals.Clone()
}

// Close closes the underlying base database
func (s *state) Close() error {
	return s.baseDB.Close()
}
