// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/holiman/uint256"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/chain4travel/botvm/genesis"
	"github.com/chain4travel/botvm/vms/botvm"
	"github.com/chain4travel/botvm/vms/botvm/dac"
	"github.com/chain4travel/botvm/vms/botvm/txs"
	"github.com/chain4travel/botvm/vms/botvm/txs/builder"
)

const (
	actionKey   = "action"
	advance     = "advance"
	callerKey   = "caller"
	opKey       = "op"
	opTypeKey   = "type"
	proposalKey = "proposal"
)

var (
	errMissingField     = errors.New("missing field")
	errUnknownAction    = errors.New("unknown action")
	errUnknownOperation = errors.New("unknown operation")
	errInvalidAmount    = errors.New("invalid amount")
)

// Step is one entry of a script. Fields are read loosely: numbers may be
// given as JSON numbers or strings.
type Step map[string]interface{}

type Script struct {
	Steps []Step `json:"steps"`
}

func ParseScript(r io.Reader) (*Script, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	script := &Script{}
	if err := decoder.Decode(script); err != nil {
		return nil, fmt.Errorf("couldn't decode script: %w", err)
	}
	return script, nil
}

// Result reports a step. Txs rejected by the vm don't stop the script, their
// error is recorded instead.
type Result struct {
	Step    int            `json:"step"`
	Action  string         `json:"action"`
	Time    time.Time      `json:"time"`
	Receipt *botvm.Receipt `json:"receipt,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type runner struct {
	vm      *botvm.VM
	builder builder.Builder
	log     logging.Logger
}

func newRunner(vm *botvm.VM, log logging.Logger) *runner {
	return &runner{
		vm:      vm,
		builder: builder.New(),
		log:     log,
	}
}

// Run issues the steps of [script] in order. Malformed steps abort the run.
func (r *runner) Run(script *Script) ([]Result, error) {
	clock := r.vm.Clock()
	results := make([]Result, 0, len(script.Steps))
	for i, step := range script.Steps {
		action, err := step.text(actionKey)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i, err)
		}

		if action == advance {
			by, err := step.duration("by")
			if err != nil {
				return results, fmt.Errorf("step %d: %w", i, err)
			}
			clock.Set(clock.Time().Add(by))
			results = append(results, Result{
				Step:   i,
				Action: action,
				Time:   clock.Time().UTC(),
			})
			continue
		}

		tx, err := r.buildTx(action, step)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i, err)
		}
		result := Result{
			Step:   i,
			Action: action,
			Time:   clock.Time().UTC(),
		}
		receipt, err := r.vm.IssueTx(tx)
		if err != nil {
			r.log.Info("step rejected",
				zap.Int("step", i),
				zap.String("action", action),
				zap.Error(err),
			)
			result.Error = err.Error()
		} else {
			result.Receipt = receipt
			result.Time = receipt.Timestamp.UTC()
		}
		results = append(results, result)
	}
	return results, nil
}

func (r *runner) buildTx(action string, step Step) (*txs.Tx, error) {
	caller, err := step.address(callerKey)
	if err != nil {
		return nil, err
	}

	switch action {
	case "transfer":
		return build3(step, "token", "to", "amount", func(token, to ids.ShortID, amount *uint256.Int) (*txs.Tx, error) {
			return r.builder.NewTransferTx(caller, token, to, amount)
		})
	case "approve":
		return build3(step, "token", "spender", "amount", func(token, spender ids.ShortID, amount *uint256.Int) (*txs.Tx, error) {
			return r.builder.NewApproveTx(caller, token, spender, amount)
		})
	case "transferFrom":
		from, err := step.address("from")
		if err != nil {
			return nil, err
		}
		return build3(step, "token", "to", "amount", func(token, to ids.ShortID, amount *uint256.Int) (*txs.Tx, error) {
			return r.builder.NewTransferFromTx(caller, token, from, to, amount)
		})
	case "burn":
		return build2(step, "token", "amount", func(token ids.ShortID, amount *uint256.Int) (*txs.Tx, error) {
			return r.builder.NewBurnTx(caller, token, amount)
		})
	case "deposit":
		return build2(step, "dao", "amount", func(dao ids.ShortID, amount *uint256.Int) (*txs.Tx, error) {
			return r.builder.NewDepositTx(caller, dao, amount)
		})
	case "withdrawTokens":
		return build2(step, "dao", "amount", func(dao ids.ShortID, amount *uint256.Int) (*txs.Tx, error) {
			return r.builder.NewWithdrawTokensTx(caller, dao, amount)
		})
	case "withdrawNative":
		return build3(step, "dao", "to", "amount", func(dao, to ids.ShortID, amount *uint256.Int) (*txs.Tx, error) {
			return r.builder.NewWithdrawNativeTx(caller, dao, to, amount)
		})
	case "sendNative":
		return build2(step, "to", "amount", func(to ids.ShortID, amount *uint256.Int) (*txs.Tx, error) {
			return r.builder.NewSendNativeTx(caller, to, amount)
		})
	case "upgrade":
		upgrader, err := step.address("upgrader")
		if err != nil {
			return nil, err
		}
		return r.builder.NewUpgradeTx(caller, upgrader)
	case "vote":
		dao, id, err := step.proposal()
		if err != nil {
			return nil, err
		}
		support, err := step.boolean("support")
		if err != nil {
			return nil, err
		}
		return r.builder.NewVoteTx(caller, dao, id, support)
	case "finalize":
		dao, id, err := step.proposal()
		if err != nil {
			return nil, err
		}
		return r.builder.NewFinalizeProposalTx(caller, dao, id)
	case "emergencyEnd":
		dao, id, err := step.proposal()
		if err != nil {
			return nil, err
		}
		return r.builder.NewEmergencyEndTx(caller, dao, id)
	case "invoke":
		target, err := step.address("target")
		if err != nil {
			return nil, err
		}
		op, err := step.operation()
		if err != nil {
			return nil, err
		}
		return r.builder.NewInvokeTx(caller, target, op)
	case "propose":
		return r.buildProposal(caller, step)
	default:
		return nil, fmt.Errorf("%w %q", errUnknownAction, action)
	}
}

// buildProposal defaults the minimum votes of the proposal to the min votes
// of its dao.
func (r *runner) buildProposal(caller ids.ShortID, step Step) (*txs.Tx, error) {
	daoID, err := step.address("dao")
	if err != nil {
		return nil, err
	}
	target, err := step.address("target")
	if err != nil {
		return nil, err
	}
	op, err := step.operation()
	if err != nil {
		return nil, err
	}
	description, _ := step.text("description")

	var minimumVotes *uint256.Int
	if _, ok := step["minimumVotes"]; ok {
		minimumVotes, err = step.amount("minimumVotes")
	} else {
		minimumVotes, err = r.minVotes(daoID)
	}
	if err != nil {
		return nil, err
	}
	return r.builder.NewAddProposalTx(caller, daoID, target, op, description, minimumVotes)
}

func (r *runner) minVotes(daoID ids.ShortID) (*uint256.Int, error) {
	engine, err := r.vm.DAO(daoID)
	if err != nil {
		return nil, err
	}
	return engine.MinVotes()
}

func build2(
	step Step,
	addrKey, amountKey string,
	newTx func(ids.ShortID, *uint256.Int) (*txs.Tx, error),
) (*txs.Tx, error) {
	addr, err := step.address(addrKey)
	if err != nil {
		return nil, err
	}
	amount, err := step.amount(amountKey)
	if err != nil {
		return nil, err
	}
	return newTx(addr, amount)
}

func build3(
	step Step,
	firstKey, secondKey, amountKey string,
	newTx func(ids.ShortID, ids.ShortID, *uint256.Int) (*txs.Tx, error),
) (*txs.Tx, error) {
	first, err := step.address(firstKey)
	if err != nil {
		return nil, err
	}
	return build2(step, secondKey, amountKey, func(second ids.ShortID, amount *uint256.Int) (*txs.Tx, error) {
		return newTx(first, second, amount)
	})
}

func (s Step) operation() (dac.Operation, error) {
	opStep, err := s.nested(opKey)
	if err != nil {
		return nil, err
	}
	opType, err := opStep.text(opTypeKey)
	if err != nil {
		return nil, err
	}

	switch opType {
	case "setBurnFee":
		percent, err := opStep.number("percent")
		return &dac.SetBurnFee{Percent: percent}, err
	case "setMaxTxPercent":
		percent, err := opStep.number("percent")
		return &dac.SetMaxTxPercent{Percent: percent}, err
	case "setMaxWalletPercent":
		percent, err := opStep.number("percent")
		return &dac.SetMaxWalletPercent{Percent: percent}, err
	case "setExcludedHolder":
		flag, err := opStep.accountFlag()
		return &dac.SetExcludedHolder{AccountFlag: flag}, err
	case "setExcludedFromFee":
		flag, err := opStep.accountFlag()
		return &dac.SetExcludedFromFee{AccountFlag: flag}, err
	case "setExcludedFromMaxWallet":
		flag, err := opStep.accountFlag()
		return &dac.SetExcludedFromMaxWallet{AccountFlag: flag}, err
	case "setExcludedFromMaxTx":
		flag, err := opStep.accountFlag()
		return &dac.SetExcludedFromMaxTx{AccountFlag: flag}, err
	case "setExcludedFromCirculation":
		flag, err := opStep.accountFlag()
		return &dac.SetExcludedFromCirculation{AccountFlag: flag}, err
	case "setDAO":
		dao, err := opStep.address("dao")
		return &dac.SetDAO{DAO: dao}, err
	case "transferOwnership":
		newOwner, err := opStep.address("newOwner")
		return &dac.TransferOwnership{NewOwner: newOwner}, err
	case "renounceOwnership":
		return &dac.RenounceOwnership{}, nil
	default:
		return nil, fmt.Errorf("%w %q", errUnknownOperation, opType)
	}
}

func (s Step) accountFlag() (dac.AccountFlag, error) {
	account, err := s.address("account")
	if err != nil {
		return dac.AccountFlag{}, err
	}
	excluded, err := s.boolean("excluded")
	return dac.AccountFlag{
		Account:  account,
		Excluded: excluded,
	}, err
}

func (s Step) proposal() (ids.ShortID, uint64, error) {
	dao, err := s.address("dao")
	if err != nil {
		return ids.ShortEmpty, 0, err
	}
	id, err := s.number(proposalKey)
	return dao, id, err
}

func (s Step) value(key string) (interface{}, error) {
	v, ok := s[key]
	if !ok || v == nil {
		return nil, fmt.Errorf("%w %q", errMissingField, key)
	}
	if n, ok := v.(json.Number); ok {
		return n.String(), nil
	}
	return v, nil
}

func (s Step) text(key string) (string, error) {
	v, err := s.value(key)
	if err != nil {
		return "", err
	}
	return cast.ToStringE(v)
}

func (s Step) address(key string) (ids.ShortID, error) {
	str, err := s.text(key)
	if err != nil {
		return ids.ShortEmpty, err
	}
	addr, err := genesis.ParseAddress(str)
	if err != nil {
		return ids.ShortEmpty, fmt.Errorf("invalid %s: %w", key, err)
	}
	return addr, nil
}

func (s Step) amount(key string) (*uint256.Int, error) {
	str, err := s.text(key)
	if err != nil {
		return nil, err
	}
	amount, err := uint256.FromDecimal(str)
	if err != nil {
		return nil, fmt.Errorf("%w %s %q: %w", errInvalidAmount, key, str, err)
	}
	return amount, nil
}

func (s Step) number(key string) (uint64, error) {
	v, err := s.value(key)
	if err != nil {
		return 0, err
	}
	return cast.ToUint64E(v)
}

func (s Step) boolean(key string) (bool, error) {
	v, err := s.value(key)
	if err != nil {
		return false, err
	}
	return cast.ToBoolE(v)
}

func (s Step) duration(key string) (time.Duration, error) {
	v, err := s.value(key)
	if err != nil {
		return 0, err
	}
	return cast.ToDurationE(v)
}

func (s Step) nested(key string) (Step, error) {
	v, err := s.value(key)
	if err != nil {
		return nil, err
	}
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return nil, err
	}
	return Step(m), nil
}
