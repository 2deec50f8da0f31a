// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package genesis

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/holiman/uint256"

	"github.com/ava-labs/avalanchego/codec"
	"github.com/ava-labs/avalanchego/codec/linearcodec"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/set"
	"github.com/chain4travel/botvm/vms/botvm/dao"
	"github.com/chain4travel/botvm/vms/botvm/events"
	"github.com/chain4travel/botvm/vms/botvm/native"
	"github.com/chain4travel/botvm/vms/botvm/state"
	"github.com/chain4travel/botvm/vms/botvm/token"
	"github.com/chain4travel/botvm/vms/botvm/upgrade"
)

const CodecVersion = 0

var (
	Codec codec.Manager

	ErrDuplicateAddress = errors.New("address is used more than once")
	errZeroAddress      = errors.New("contract address is empty")
	errZeroAllocation   = errors.New("allocation amount is zero")
)

func init() {
	c := linearcodec.NewDefault(time.Time{})
	Codec = codec.NewManager(math.MaxInt32)
	if err := Codec.RegisterCodec(CodecVersion, c); err != nil {
		panic(err)
	}
}

// Exclusion lists the flags set on an account of a token at genesis.
type Exclusion struct {
	Address     ids.ShortID `serialize:"true" json:"address"`
	Fee         bool        `serialize:"true" json:"fee"`
	MaxWallet   bool        `serialize:"true" json:"maxWallet"`
	MaxTx       bool        `serialize:"true" json:"maxTx"`
	Circulation bool        `serialize:"true" json:"circulation"`
	Holder      bool        `serialize:"true" json:"holder"`
}

// Allocation moves [Amount] of a token from its owner to [Address].
type Allocation struct {
	Address ids.ShortID `serialize:"true" json:"address"`
	Amount  uint256.Int `serialize:"true" json:"amount"`
}

type Token struct {
	ID               ids.ShortID  `serialize:"true" json:"id"`
	Name             string       `serialize:"true" json:"name"`
	Symbol           string       `serialize:"true" json:"symbol"`
	Decimals         uint8        `serialize:"true" json:"decimals"`
	Owner            ids.ShortID  `serialize:"true" json:"owner"`
	MaxSupply        uint256.Int  `serialize:"true" json:"maxSupply"`
	BurnFeePercent   uint64       `serialize:"true" json:"burnFeePercent"`
	MaxTxPercent     uint64       `serialize:"true" json:"maxTxPercent"`
	MaxWalletPercent uint64       `serialize:"true" json:"maxWalletPercent"`
	Exclusions       []Exclusion  `serialize:"true" json:"exclusions"`
	Allocations      []Allocation `serialize:"true" json:"allocations"`
}

type DAO struct {
	ID               ids.ShortID `serialize:"true" json:"id"`
	Owner            ids.ShortID `serialize:"true" json:"owner"`
	Token            ids.ShortID `serialize:"true" json:"token"`
	MinQuorumPercent uint64      `serialize:"true" json:"minQuorumPercent"`
	// DebatePeriod is in seconds
	DebatePeriod uint64      `serialize:"true" json:"debatePeriod"`
	MinVotes     uint256.Int `serialize:"true" json:"minVotes"`
	// BindToToken sets the dao as the governance module of its token and
	// excludes it from the token's fee and limits.
	BindToToken bool `serialize:"true" json:"bindToToken"`
}

type Upgrader struct {
	ID          ids.ShortID `serialize:"true" json:"id"`
	Source      ids.ShortID `serialize:"true" json:"source"`
	Destination ids.ShortID `serialize:"true" json:"destination"`
}

type NativeAllocation struct {
	Address ids.ShortID `serialize:"true" json:"address"`
	Amount  uint256.Int `serialize:"true" json:"amount"`
}

// Genesis is the initial state of the chain: the contracts deployed and the
// balances distributed before the first transaction.
type Genesis struct {
	// Timestamp is a unix timestamp
	Timestamp         uint64             `serialize:"true" json:"timestamp"`
	Tokens            []Token            `serialize:"true" json:"tokens"`
	DAOs              []DAO              `serialize:"true" json:"daos"`
	Upgraders         []Upgrader         `serialize:"true" json:"upgraders"`
	NativeAllocations []NativeAllocation `serialize:"true" json:"nativeAllocations"`
	Message           string             `serialize:"true" json:"message"`
}

func Parse(genesisBytes []byte) (*Genesis, error) {
	gen := &Genesis{}
	if _, err := Codec.Unmarshal(genesisBytes, gen); err != nil {
		return nil, err
	}
	if err := gen.Verify(); err != nil {
		return nil, err
	}
	return gen, nil
}

func (g *Genesis) Bytes() ([]byte, error) {
	return Codec.Marshal(CodecVersion, g)
}

// Verify checks that every contract address is set and used only once.
// Contract parameters are checked when the contracts are deployed.
func (g *Genesis) Verify() error {
	contracts := set.NewSet[ids.ShortID](len(g.Tokens) + len(g.DAOs) + len(g.Upgraders))
	addContract := func(id ids.ShortID) error {
		if id == ids.ShortEmpty {
			return errZeroAddress
		}
		if contracts.Contains(id) {
			return fmt.Errorf("%w: %s", ErrDuplicateAddress, id)
		}
		contracts.Add(id)
		return nil
	}

	for _, t := range g.Tokens {
		if err := addContract(t.ID); err != nil {
			return err
		}
		for _, a := range t.Allocations {
			if a.Amount.IsZero() {
				return fmt.Errorf("%w: %s of token %s", errZeroAllocation, a.Address, t.ID)
			}
		}
	}
	for _, d := range g.DAOs {
		if err := addContract(d.ID); err != nil {
			return err
		}
	}
	for _, u := range g.Upgraders {
		if err := addContract(u.ID); err != nil {
			return err
		}
	}
	for _, a := range g.NativeAllocations {
		if a.Amount.IsZero() {
			return fmt.Errorf("%w: native %s", errZeroAllocation, a.Address)
		}
	}
	return nil
}

// Apply deploys the genesis contracts on [chain]. Tokens are deployed first
// so daos and upgraders can reference them.
func (g *Genesis) Apply(chain state.Chain, emitter events.Emitter) error {
	if err := g.Verify(); err != nil {
		return err
	}
	chain.SetTimestamp(time.Unix(int64(g.Timestamp), 0))

	for i := range g.Tokens {
		if err := g.Tokens[i].apply(chain, emitter); err != nil {
			return fmt.Errorf("failed to deploy token %s: %w", g.Tokens[i].ID, err)
		}
	}
	for i := range g.DAOs {
		if err := g.DAOs[i].apply(chain, emitter); err != nil {
			return fmt.Errorf("failed to deploy dao %s: %w", g.DAOs[i].ID, err)
		}
	}
	for _, u := range g.Upgraders {
		if err := upgrade.Deploy(chain, u.ID, u.Source, u.Destination); err != nil {
			return fmt.Errorf("failed to deploy upgrader %s: %w", u.ID, err)
		}
	}
	for i, a := range g.NativeAllocations {
		if err := native.Mint(chain, a.Address, &g.NativeAllocations[i].Amount); err != nil {
			return fmt.Errorf("failed to allocate native value to %s: %w", a.Address, err)
		}
	}
	return nil
}

func (t *Token) apply(chain state.Chain, emitter events.Emitter) error {
	ledger, err := token.Deploy(chain, t.ID, &token.Params{
		Name:             t.Name,
		Symbol:           t.Symbol,
		Decimals:         t.Decimals,
		Owner:            t.Owner,
		MaxSupply:        &t.MaxSupply,
		BurnFeePercent:   t.BurnFeePercent,
		MaxTxPercent:     t.MaxTxPercent,
		MaxWalletPercent: t.MaxWalletPercent,
	}, emitter)
	if err != nil {
		return err
	}

	for _, e := range t.Exclusions {
		if err := exclude(ledger, t.Owner, e.Address, e); err != nil {
			return err
		}
	}
	for i, a := range t.Allocations {
		if err := ledger.Transfer(t.Owner, a.Address, &t.Allocations[i].Amount); err != nil {
			return fmt.Errorf("failed to allocate to %s: %w", a.Address, err)
		}
	}
	return nil
}

func exclude(ledger *token.Ledger, owner, addr ids.ShortID, e Exclusion) error {
	setters := []struct {
		set  bool
		call func(caller, addr ids.ShortID, excluded bool) error
	}{
		{e.Fee, ledger.SetExcludedFromFee},
		{e.MaxWallet, ledger.SetExcludedFromMaxWallet},
		{e.MaxTx, ledger.SetExcludedFromMaxTx},
		{e.Circulation, ledger.SetExcludedFromCirculation},
		{e.Holder, ledger.SetExcludedHolder},
	}
	for _, s := range setters {
		if !s.set {
			continue
		}
		if err := s.call(owner, addr, true); err != nil {
			return fmt.Errorf("failed to exclude %s: %w", addr, err)
		}
	}
	return nil
}

func (d *DAO) apply(chain state.Chain, emitter events.Emitter) error {
	err := dao.Deploy(chain, d.ID, &dao.Params{
		Owner:            d.Owner,
		Token:            d.Token,
		MinQuorumPercent: d.MinQuorumPercent,
		DebatePeriod:     time.Duration(d.DebatePeriod) * time.Second,
		MinVotes:         &d.MinVotes,
	}, emitter)
	if err != nil || !d.BindToToken {
		return err
	}

	ledger, err := token.New(chain, d.Token, emitter)
	if err != nil {
		return err
	}
	owner, err := ledger.Owner()
	if err != nil {
		return err
	}
	if err := ledger.SetDAO(owner, d.ID); err != nil {
		return err
	}
	return exclude(ledger, owner, d.ID, Exclusion{
		Fee:       true,
		MaxWallet: true,
		MaxTx:     true,
	})
}
