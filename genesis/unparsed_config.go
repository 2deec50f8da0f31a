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

// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package genesis

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting/address"
	"github.com/chain4travel/botvm/vms/botvm/genesis"
)

const ethAddrPrefix = "0x"

var (
	errInvalidETHAddress = errors.New("invalid eth address")
	errInvalidAmount     = errors.New("invalid amount")
	errEmptyAddress      = errors.New("address is empty")
	errNegativeDuration  = errors.New("debate period is negative")
)

// ParseAddress accepts a 0x prefixed hex address, a bech32 address with or
// without a chain alias, or a cb58 encoded short id.
func ParseAddress(addrStr string) (ids.ShortID, error) {
	switch {
	case addrStr == "":
		return ids.ShortEmpty, errEmptyAddress
	case strings.HasPrefix(addrStr, ethAddrPrefix):
		if !common.IsHexAddress(addrStr) {
			return ids.ShortEmpty, fmt.Errorf("%w: %s", errInvalidETHAddress, addrStr)
		}
		return ids.ShortID(common.HexToAddress(addrStr)), nil
	case strings.Contains(addrStr, "-"):
		_, _, addrBytes, err := address.Parse(addrStr)
		if err != nil {
			return ids.ShortEmpty, err
		}
		return ids.ToShortID(addrBytes)
	}
	if _, addrBytes, err := address.ParseBech32(addrStr); err == nil {
		return ids.ToShortID(addrBytes)
	}
	return ids.ShortFromString(addrStr)
}

// FormatAddress formats [addr] as a checksummed 0x prefixed hex address.
func FormatAddress(addr ids.ShortID) string {
	return common.Address(addr).Hex()
}

func parseAmount(amountStr string) (uint256.Int, error) {
	amount, err := uint256.FromDecimal(amountStr)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("%w %q: %s", errInvalidAmount, amountStr, err)
	}
	return *amount, nil
}

type UnparsedAllocation struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

func (ua UnparsedAllocation) Parse() (genesis.Allocation, error) {
	a := genesis.Allocation{}

	var err error
	if a.Address, err = ParseAddress(ua.Address); err != nil {
		return a, err
	}
	a.Amount, err = parseAmount(ua.Amount)
	return a, err
}

func (ua *UnparsedAllocation) Unparse(a genesis.Allocation) {
	ua.Address = FormatAddress(a.Address)
	ua.Amount = a.Amount.Dec()
}

type UnparsedExclusion struct {
	Address     string `json:"address"`
	Fee         bool   `json:"fee"`
	MaxWallet   bool   `json:"maxWallet"`
	MaxTx       bool   `json:"maxTx"`
	Circulation bool   `json:"circulation"`
	Holder      bool   `json:"holder"`
}

func (ue UnparsedExclusion) Parse() (genesis.Exclusion, error) {
	addr, err := ParseAddress(ue.Address)
	return genesis.Exclusion{
		Address:     addr,
		Fee:         ue.Fee,
		MaxWallet:   ue.MaxWallet,
		MaxTx:       ue.MaxTx,
		Circulation: ue.Circulation,
		Holder:      ue.Holder,
	}, err
}

func (ue *UnparsedExclusion) Unparse(e genesis.Exclusion) {
	*ue = UnparsedExclusion{
		Address:     FormatAddress(e.Address),
		Fee:         e.Fee,
		MaxWallet:   e.MaxWallet,
		MaxTx:       e.MaxTx,
		Circulation: e.Circulation,
		Holder:      e.Holder,
	}
}

type UnparsedToken struct {
	Address          string               `json:"address"`
	Name             string               `json:"name"`
	Symbol           string               `json:"symbol"`
	Decimals         uint8                `json:"decimals"`
	Owner            string               `json:"owner"`
	MaxSupply        string               `json:"maxSupply"`
	BurnFeePercent   uint64               `json:"burnFeePercent"`
	MaxTxPercent     uint64               `json:"maxTxPercent"`
	MaxWalletPercent uint64               `json:"maxWalletPercent"`
	Exclusions       []UnparsedExclusion  `json:"exclusions"`
	Allocations      []UnparsedAllocation `json:"allocations"`
}

func (ut UnparsedToken) Parse() (genesis.Token, error) {
	t := genesis.Token{
		Name:             ut.Name,
		Symbol:           ut.Symbol,
		Decimals:         ut.Decimals,
		BurnFeePercent:   ut.BurnFeePercent,
		MaxTxPercent:     ut.MaxTxPercent,
		MaxWalletPercent: ut.MaxWalletPercent,
		Exclusions:       make([]genesis.Exclusion, len(ut.Exclusions)),
		Allocations:      make([]genesis.Allocation, len(ut.Allocations)),
	}

	var err error
	if t.ID, err = ParseAddress(ut.Address); err != nil {
		return t, fmt.Errorf("cannot parse token address: %w", err)
	}
	if t.Owner, err = ParseAddress(ut.Owner); err != nil {
		return t, fmt.Errorf("cannot parse owner of token %s: %w", ut.Address, err)
	}
	if t.MaxSupply, err = parseAmount(ut.MaxSupply); err != nil {
		return t, err
	}
	for i, ue := range ut.Exclusions {
		if t.Exclusions[i], err = ue.Parse(); err != nil {
			return t, err
		}
	}
	for i, ua := range ut.Allocations {
		if t.Allocations[i], err = ua.Parse(); err != nil {
			return t, err
		}
	}
	return t, nil
}

func (ut *UnparsedToken) Unparse(t genesis.Token) {
	*ut = UnparsedToken{
		Address:          FormatAddress(t.ID),
		Name:             t.Name,
		Symbol:           t.Symbol,
		Decimals:         t.Decimals,
		Owner:            FormatAddress(t.Owner),
		MaxSupply:        t.MaxSupply.Dec(),
		BurnFeePercent:   t.BurnFeePercent,
		MaxTxPercent:     t.MaxTxPercent,
		MaxWalletPercent: t.MaxWalletPercent,
		Exclusions:       make([]UnparsedExclusion, len(t.Exclusions)),
		Allocations:      make([]UnparsedAllocation, len(t.Allocations)),
	}
	for i, e := range t.Exclusions {
		ut.Exclusions[i].Unparse(e)
	}
	for i, a := range t.Allocations {
		ut.Allocations[i].Unparse(a)
	}
}

// UnparsedDAO defines a governance module.
// [DebatePeriod] is a duration string such as "72h".
// [MinVotes] is a decimal amount in the token's smallest unit.
type UnparsedDAO struct {
	Address          string `json:"address"`
	Owner            string `json:"owner"`
	Token            string `json:"token"`
	MinQuorumPercent uint64 `json:"minQuorumPercent"`
	DebatePeriod     string `json:"debatePeriod"`
	MinVotes         string `json:"minVotes"`
	BindToToken      bool   `json:"bindToToken"`
}

func (ud UnparsedDAO) Parse() (genesis.DAO, error) {
	d := genesis.DAO{
		MinQuorumPercent: ud.MinQuorumPercent,
		BindToToken:      ud.BindToToken,
	}

	var err error
	if d.ID, err = ParseAddress(ud.Address); err != nil {
		return d, fmt.Errorf("cannot parse dao address: %w", err)
	}
	if d.Owner, err = ParseAddress(ud.Owner); err != nil {
		return d, fmt.Errorf("cannot parse owner of dao %s: %w", ud.Address, err)
	}
	if d.Token, err = ParseAddress(ud.Token); err != nil {
		return d, fmt.Errorf("cannot parse token of dao %s: %w", ud.Address, err)
	}
	debatePeriod, err := time.ParseDuration(ud.DebatePeriod)
	if err != nil {
		return d, err
	}
	if debatePeriod < 0 {
		return d, fmt.Errorf("%w: %s", errNegativeDuration, ud.DebatePeriod)
	}
	d.DebatePeriod = uint64(debatePeriod / time.Second)
	d.MinVotes, err = parseAmount(ud.MinVotes)
	return d, err
}

func (ud *UnparsedDAO) Unparse(d genesis.DAO) {
	*ud = UnparsedDAO{
		Address:          FormatAddress(d.ID),
		Owner:            FormatAddress(d.Owner),
		Token:            FormatAddress(d.Token),
		MinQuorumPercent: d.MinQuorumPercent,
		DebatePeriod:     (time.Duration(d.DebatePeriod) * time.Second).String(),
		MinVotes:         d.MinVotes.Dec(),
		BindToToken:      d.BindToToken,
	}
}

type UnparsedUpgrader struct {
	Address     string `json:"address"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

func (uu UnparsedUpgrader) Parse() (genesis.Upgrader, error) {
	u := genesis.Upgrader{}

	var err error
	if u.ID, err = ParseAddress(uu.Address); err != nil {
		return u, fmt.Errorf("cannot parse upgrader address: %w", err)
	}
	if u.Source, err = ParseAddress(uu.Source); err != nil {
		return u, err
	}
	u.Destination, err = ParseAddress(uu.Destination)
	return u, err
}

func (uu *UnparsedUpgrader) Unparse(u genesis.Upgrader) {
	*uu = UnparsedUpgrader{
		Address:     FormatAddress(u.ID),
		Source:      FormatAddress(u.Source),
		Destination: FormatAddress(u.Destination),
	}
}

// UnparsedConfig contains the contracts and balances used to construct a
// genesis
type UnparsedConfig struct {
	Timestamp uint64 `json:"timestamp"`

	Tokens            []UnparsedToken      `json:"tokens"`
	DAOs              []UnparsedDAO        `json:"daos"`
	Upgraders         []UnparsedUpgrader   `json:"upgraders"`
	NativeAllocations []UnparsedAllocation `json:"nativeAllocations"`

	Message string `json:"message"`
}

func (uc UnparsedConfig) Parse() (*genesis.Genesis, error) {
	g := &genesis.Genesis{
		Timestamp:         uc.Timestamp,
		Tokens:            make([]genesis.Token, len(uc.Tokens)),
		DAOs:              make([]genesis.DAO, len(uc.DAOs)),
		Upgraders:         make([]genesis.Upgrader, len(uc.Upgraders)),
		NativeAllocations: make([]genesis.NativeAllocation, len(uc.NativeAllocations)),
		Message:           uc.Message,
	}

	var err error
	for i, ut := range uc.Tokens {
		if g.Tokens[i], err = ut.Parse(); err != nil {
			return nil, err
		}
	}
	for i, ud := range uc.DAOs {
		if g.DAOs[i], err = ud.Parse(); err != nil {
			return nil, err
		}
	}
	for i, uu := range uc.Upgraders {
		if g.Upgraders[i], err = uu.Parse(); err != nil {
			return nil, err
		}
	}
	for i, ua := range uc.NativeAllocations {
		a, err := ua.Parse()
		if err != nil {
			return nil, err
		}
		g.NativeAllocations[i] = genesis.NativeAllocation(a)
	}

	if err := g.Verify(); err != nil {
		return nil, fmt.Errorf("failed to validate genesis: %w", err)
	}
	return g, nil
}

func (uc *UnparsedConfig) Unparse(g *genesis.Genesis) {
	*uc = UnparsedConfig{
		Timestamp:         g.Timestamp,
		Tokens:            make([]UnparsedToken, len(g.Tokens)),
		DAOs:              make([]UnparsedDAO, len(g.DAOs)),
		Upgraders:         make([]UnparsedUpgrader, len(g.Upgraders)),
		NativeAllocations: make([]UnparsedAllocation, len(g.NativeAllocations)),
		Message:           g.Message,
	}
	for i, t := range g.Tokens {
		uc.Tokens[i].Unparse(t)
	}
	for i, d := range g.DAOs {
		uc.DAOs[i].Unparse(d)
	}
	for i, u := range g.Upgraders {
		uc.Upgraders[i].Unparse(u)
	}
	for i, a := range g.NativeAllocations {
		uc.NativeAllocations[i].Unparse(genesis.Allocation(a))
	}
}
