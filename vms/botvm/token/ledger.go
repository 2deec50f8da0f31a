// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"golang.org/x/exp/slices"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/chain4travel/botvm/vms/botvm/access"
	"github.com/chain4travel/botvm/vms/botvm/dac"
	"github.com/chain4travel/botvm/vms/botvm/events"
	"github.com/chain4travel/botvm/vms/botvm/holders"
	"github.com/chain4travel/botvm/vms/botvm/state"
)

var (
	_ dac.Target = (*Ledger)(nil)

	ErrUnknownToken          = errors.New("unknown token")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrDAOAlreadySet         = errors.New("dao is already set")
	errCirculationUnderflow  = errors.New("excluded balances exceed total supply")
	errTotalSupplyUnderflow  = errors.New("burn exceeds total supply")
	errAllowanceUnderflow    = errors.New("allowance underflow")

	maxUint256 = new(uint256.Int).SetAllOne()
)

// Ledger executes the operations of the token deployed at one address against
// a chain state.
type Ledger struct {
	chain   state.Chain
	tokenID ids.ShortID
	emitter events.Emitter
	holders *holders.Registry
}

func New(chain state.Chain, tokenID ids.ShortID, emitter events.Emitter) (*Ledger, error) {
	if _, err := chain.GetToken(tokenID); err == database.ErrNotFound {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, tokenID)
	} else if err != nil {
		return nil, err
	}
	return newLedger(chain, tokenID, emitter), nil
}

func newLedger(chain state.Chain, tokenID ids.ShortID, emitter events.Emitter) *Ledger {
	return &Ledger{
		chain:   chain,
		tokenID: tokenID,
		emitter: emitter,
		holders: holders.New(&holderBackend{chain: chain, tokenID: tokenID}),
	}
}

func (l *Ledger) ID() ids.ShortID {
	return l.tokenID
}

func (l *Ledger) Metadata() (*state.Token, error) {
	return l.chain.GetToken(l.tokenID)
}

func (l *Ledger) BalanceOf(addr ids.ShortID) (*uint256.Int, error) {
	account, err := l.chain.GetAccount(l.tokenID, addr)
	if err != nil {
		return nil, err
	}
	return &account.Balance, nil
}

func (l *Ledger) Allowance(owner, spender ids.ShortID) (*uint256.Int, error) {
	return l.chain.GetAllowance(l.tokenID, owner, spender)
}

func (l *Ledger) WalletConfig(addr ids.ShortID) (state.WalletConfig, error) {
	account, err := l.chain.GetAccount(l.tokenID, addr)
	if err != nil {
		return state.WalletConfig{}, err
	}
	return account.WalletConfig, nil
}

func (l *Ledger) TotalSupply() (*uint256.Int, error) {
	token, err := l.Metadata()
	if err != nil {
		return nil, err
	}
	return &token.TotalSupply, nil
}

func (l *Ledger) MaxSupply() (*uint256.Int, error) {
	token, err := l.Metadata()
	if err != nil {
		return nil, err
	}
	return &token.MaxSupply, nil
}

func (l *Ledger) TokensBurned() (*uint256.Int, error) {
	token, err := l.Metadata()
	if err != nil {
		return nil, err
	}
	return &token.TokensBurned, nil
}

func (l *Ledger) BurnFee() (uint64, error) {
	token, err := l.Metadata()
	if err != nil {
		return 0, err
	}
	return token.BurnFeePercent, nil
}

func (l *Ledger) MaxTxAmount() (*uint256.Int, error) {
	token, err := l.Metadata()
	if err != nil {
		return nil, err
	}
	return PolicyOf(token).MaxTxAmount(&token.TotalSupply), nil
}

func (l *Ledger) MaxWalletAmount() (*uint256.Int, error) {
	token, err := l.Metadata()
	if err != nil {
		return nil, err
	}
	return PolicyOf(token).MaxWalletAmount(&token.TotalSupply), nil
}

// CirculationSupply is the total supply minus the balances of the accounts
// excluded from circulation.
func (l *Ledger) CirculationSupply() (*uint256.Int, error) {
	token, err := l.Metadata()
	if err != nil {
		return nil, err
	}
	supply := new(uint256.Int).Set(&token.TotalSupply)
	for _, addr := range token.CirculationExcluded {
		balance, err := l.BalanceOf(addr)
		if err != nil {
			return nil, err
		}
		if _, underflow := supply.SubOverflow(supply, balance); underflow {
			return nil, errCirculationUnderflow
		}
	}
	return supply, nil
}

func (l *Ledger) NumberOfHolders() (uint64, error) {
	return l.holders.Size()
}

func (l *Ledger) Holder(index uint64) (ids.ShortID, error) {
	return l.holders.At(index)
}

func (l *Ledger) Owner() (ids.ShortID, error) {
	token, err := l.Metadata()
	if err != nil {
		return ids.ShortEmpty, err
	}
	return token.Owner, nil
}

func (l *Ledger) DAO() (ids.ShortID, error) {
	token, err := l.Metadata()
	if err != nil {
		return ids.ShortEmpty, err
	}
	return token.DAO, nil
}

func (l *Ledger) Transfer(from, to ids.ShortID, amount *uint256.Int) error {
	return l.transfer(from, to, amount)
}

func (l *Ledger) Approve(owner, spender ids.ShortID, amount *uint256.Int) error {
	if owner == ids.ShortEmpty || spender == ids.ShortEmpty {
		return dac.ErrZeroAddress
	}
	allowance := new(uint256.Int).Set(amount)
	l.chain.SetAllowance(l.tokenID, owner, spender, allowance)
	l.emitter.Emit(&events.Approval{
		Token:   l.tokenID,
		Owner:   owner,
		Spender: spender,
		Amount:  new(uint256.Int).Set(amount),
	})
	return nil
}

// TransferFrom moves [amount] from [from] to [to] on behalf of [spender] and
// spends the allowance. A maximal allowance is never spent.
func (l *Ledger) TransferFrom(spender, from, to ids.ShortID, amount *uint256.Int) error {
	balance, err := l.BalanceOf(from)
	if err != nil {
		return err
	}
	if amount.Gt(balance) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from, balance.Dec(), amount.Dec())
	}
	allowance, err := l.Allowance(from, spender)
	if err != nil {
		return err
	}
	if amount.Gt(allowance) {
		return fmt.Errorf("%w: %s allowed %s, needs %s", ErrInsufficientAllowance, spender, allowance.Dec(), amount.Dec())
	}

	if err := l.transfer(from, to, amount); err != nil {
		return err
	}
	if allowance.Eq(maxUint256) {
		return nil
	}
	remaining, underflow := new(uint256.Int).SubOverflow(allowance, amount)
	if underflow {
		return errAllowanceUnderflow
	}
	l.chain.SetAllowance(l.tokenID, from, spender, remaining)
	l.emitter.Emit(&events.Approval{
		Token:   l.tokenID,
		Owner:   from,
		Spender: spender,
		Amount:  new(uint256.Int).Set(remaining),
	})
	return nil
}

func (l *Ledger) transfer(from, to ids.ShortID, amount *uint256.Int) error {
	if from == ids.ShortEmpty || to == ids.ShortEmpty {
		return dac.ErrZeroAddress
	}
	token, err := l.Metadata()
	if err != nil {
		return err
	}
	fromAccount, err := l.chain.GetAccount(l.tokenID, from)
	if err != nil {
		return err
	}
	toAccount, err := l.chain.GetAccount(l.tokenID, to)
	if err != nil {
		return err
	}
	if amount.Gt(&fromAccount.Balance) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from, fromAccount.Balance.Dec(), amount.Dec())
	}

	quote, err := PolicyOf(token).Evaluate(
		&token.TotalSupply,
		amount,
		fromAccount.WalletConfig,
		toAccount.WalletConfig,
		&toAccount.Balance,
	)
	if err != nil {
		return err
	}

	fromAccount.Balance.Sub(&fromAccount.Balance, quote.Amount)
	if from == to {
		toAccount = fromAccount
	}
	toAccount.Balance.Add(&toAccount.Balance, quote.Net)
	l.chain.SetAccount(l.tokenID, from, fromAccount)
	l.chain.SetAccount(l.tokenID, to, toAccount)

	if !quote.Burn.IsZero() {
		if err := l.destroy(token, quote.Burn); err != nil {
			return err
		}
	}

	if err := l.syncHolder(from, fromAccount); err != nil {
		return err
	}
	if err := l.syncHolder(to, toAccount); err != nil {
		return err
	}

	l.emitter.Emit(&events.Transfer{
		Token:  l.tokenID,
		From:   from,
		To:     to,
		Amount: quote.Net,
	})
	if !quote.Burn.IsZero() {
		l.emitter.Emit(&events.Transfer{
			Token:  l.tokenID,
			From:   from,
			To:     ids.ShortEmpty,
			Amount: quote.Burn,
		})
	}
	return nil
}

// Burn destroys [amount] of the caller's balance.
func (l *Ledger) Burn(caller ids.ShortID, amount *uint256.Int) error {
	token, err := l.Metadata()
	if err != nil {
		return err
	}
	account, err := l.chain.GetAccount(l.tokenID, caller)
	if err != nil {
		return err
	}
	if amount.Gt(&account.Balance) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, caller, account.Balance.Dec(), amount.Dec())
	}

	account.Balance.Sub(&account.Balance, amount)
	l.chain.SetAccount(l.tokenID, caller, account)
	if err := l.destroy(token, amount); err != nil {
		return err
	}
	if err := l.syncHolder(caller, account); err != nil {
		return err
	}

	l.emitter.Emit(&events.Transfer{
		Token:  l.tokenID,
		From:   caller,
		To:     ids.ShortEmpty,
		Amount: new(uint256.Int).Set(amount),
	})
	return nil
}

func (l *Ledger) destroy(token *state.Token, amount *uint256.Int) error {
	if _, underflow := token.TotalSupply.SubOverflow(&token.TotalSupply, amount); underflow {
		return errTotalSupplyUnderflow
	}
	token.TokensBurned.Add(&token.TokensBurned, amount)
	l.chain.SetToken(l.tokenID, token)
	return nil
}

func (l *Ledger) syncHolder(addr ids.ShortID, account *state.Account) error {
	return l.holders.Update(addr, !account.Balance.IsZero() && !account.WalletConfig.IsExcludedHolder)
}

func (l *Ledger) requireOwnerOrDAO(caller ids.ShortID) (*state.Token, error) {
	token, err := l.Metadata()
	if err != nil {
		return nil, err
	}
	return token, access.RequireOwnerOrDAO(token.Owner, token.DAO, caller)
}

func (l *Ledger) setPercent(caller ids.ShortID, percent uint64, set func(*state.Token)) error {
	token, err := l.requireOwnerOrDAO(caller)
	if err != nil {
		return err
	}
	if percent > dac.MaxPercent {
		return fmt.Errorf("%w: %d", dac.ErrInvalidPercent, percent)
	}
	set(token)
	l.chain.SetToken(l.tokenID, token)
	return nil
}

func (l *Ledger) SetBurnFee(caller ids.ShortID, percent uint64) error {
	return l.setPercent(caller, percent, func(token *state.Token) {
		token.BurnFeePercent = percent
	})
}

func (l *Ledger) SetMaxTxPercent(caller ids.ShortID, percent uint64) error {
	return l.setPercent(caller, percent, func(token *state.Token) {
		token.MaxTxPercent = percent
	})
}

func (l *Ledger) SetMaxWalletPercent(caller ids.ShortID, percent uint64) error {
	return l.setPercent(caller, percent, func(token *state.Token) {
		token.MaxWalletPercent = percent
	})
}

func (l *Ledger) setFlag(caller, addr ids.ShortID, set func(*state.WalletConfig)) (*state.Token, *state.Account, error) {
	token, err := l.requireOwnerOrDAO(caller)
	if err != nil {
		return nil, nil, err
	}
	if addr == ids.ShortEmpty {
		return nil, nil, dac.ErrZeroAddress
	}
	account, err := l.chain.GetAccount(l.tokenID, addr)
	if err != nil {
		return nil, nil, err
	}
	set(&account.WalletConfig)
	l.chain.SetAccount(l.tokenID, addr, account)
	return token, account, nil
}

func (l *Ledger) SetExcludedHolder(caller, addr ids.ShortID, excluded bool) error {
	_, account, err := l.setFlag(caller, addr, func(c *state.WalletConfig) {
		c.IsExcludedHolder = excluded
	})
	if err != nil {
		return err
	}
	return l.syncHolder(addr, account)
}

func (l *Ledger) SetExcludedFromFee(caller, addr ids.ShortID, excluded bool) error {
	_, _, err := l.setFlag(caller, addr, func(c *state.WalletConfig) {
		c.IsExcludedFromFee = excluded
	})
	return err
}

func (l *Ledger) SetExcludedFromMaxWallet(caller, addr ids.ShortID, excluded bool) error {
	_, _, err := l.setFlag(caller, addr, func(c *state.WalletConfig) {
		c.IsExcludedFromMaxWalletAmount = excluded
	})
	return err
}

func (l *Ledger) SetExcludedFromMaxTx(caller, addr ids.ShortID, excluded bool) error {
	_, _, err := l.setFlag(caller, addr, func(c *state.WalletConfig) {
		c.IsExcludedFromMaxTxAmount = excluded
	})
	return err
}

func (l *Ledger) SetExcludedFromCirculation(caller, addr ids.ShortID, excluded bool) error {
	token, _, err := l.setFlag(caller, addr, func(c *state.WalletConfig) {
		c.IsExcludedFromCirculationSupply = excluded
	})
	if err != nil {
		return err
	}

	index := slices.Index(token.CirculationExcluded, addr)
	switch {
	case excluded && index < 0:
		token.CirculationExcluded = append(token.CirculationExcluded, addr)
	case !excluded && index >= 0:
		token.CirculationExcluded = slices.Delete(token.CirculationExcluded, index, index+1)
	default:
		return nil
	}
	l.chain.SetToken(l.tokenID, token)
	return nil
}

// SetDAO binds the governance module once. Only the owner can bind it.
func (l *Ledger) SetDAO(caller, dao ids.ShortID) error {
	token, err := l.Metadata()
	if err != nil {
		return err
	}
	if err := access.RequireOwner(token.Owner, caller); err != nil {
		return err
	}
	if dao == ids.ShortEmpty {
		return dac.ErrZeroAddress
	}
	if token.DAO != ids.ShortEmpty {
		return fmt.Errorf("%w: %s", ErrDAOAlreadySet, token.DAO)
	}
	token.DAO = dao
	l.chain.SetToken(l.tokenID, token)
	return nil
}

func (l *Ledger) TransferOwnership(caller, newOwner ids.ShortID) error {
	token, err := l.Metadata()
	if err != nil {
		return err
	}
	owner, err := access.TransferOwnership(token.Owner, caller, newOwner)
	if err != nil {
		return err
	}
	l.setOwner(token, owner)
	return nil
}

func (l *Ledger) RenounceOwnership(caller ids.ShortID) error {
	token, err := l.Metadata()
	if err != nil {
		return err
	}
	owner, err := access.RenounceOwnership(token.Owner, caller)
	if err != nil {
		return err
	}
	l.setOwner(token, owner)
	return nil
}

func (l *Ledger) setOwner(token *state.Token, owner ids.ShortID) {
	previous := token.Owner
	token.Owner = owner
	l.chain.SetToken(l.tokenID, token)
	l.emitter.Emit(&events.OwnershipTransferred{
		Emitter:       l.tokenID,
		PreviousOwner: previous,
		NewOwner:      owner,
	})
}
