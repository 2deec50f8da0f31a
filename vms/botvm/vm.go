// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package botvm

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/timer/mockable"
	"github.com/ava-labs/avalanchego/version"
	"github.com/chain4travel/botvm/vms/botvm/dao"
	"github.com/chain4travel/botvm/vms/botvm/events"
	"github.com/chain4travel/botvm/vms/botvm/genesis"
	"github.com/chain4travel/botvm/vms/botvm/metrics"
	"github.com/chain4travel/botvm/vms/botvm/state"
	"github.com/chain4travel/botvm/vms/botvm/token"
	"github.com/chain4travel/botvm/vms/botvm/txs"

	txexecutor "github.com/chain4travel/botvm/vms/botvm/txs/executor"
)

const Name = "botvm"

var (
	Version = &version.Semantic{
		Major: 0,
		Minor: 1,
		Patch: 0,
	}

	_ state.Versions = (*VM)(nil)

	ErrNotInitialized = errors.New("vm is not initialized")
	ErrShutdown       = errors.New("vm is shut down")
	errNotDAO         = errors.New("contract is not a dao")
)

// Receipt describes an accepted tx.
type Receipt struct {
	TxID      ids.ID         `json:"txID"`
	Timestamp time.Time      `json:"timestamp"`
	Events    []events.Event `json:"events"`
	// ProposalPassed is set by proposal finalization
	ProposalPassed *bool `json:"proposalPassed,omitempty"`
}

// VM executes txs one at a time against the chain state. The order in which
// IssueTx is called is the order of the chain.
type VM struct {
	// lock serializes txs and guards the state
	lock sync.Mutex

	log     logging.Logger
	clock   mockable.Clock
	metrics metrics.Metrics
	sinks   events.Sinks

	state    state.State
	shutdown bool
}

// Initialize this vm
// [db] is the database the chain state is persisted in
// [genesisBytes] is the codec encoded genesis, applied if [db] is empty
// [sinks] receive the events of every accepted tx, including the genesis
func (vm *VM) Initialize(
	db database.Database,
	genesisBytes []byte,
	log logging.Logger,
	registerer prometheus.Registerer,
	sinks ...events.Sink,
) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	log.Info("initializing bot vm",
		zap.Stringer("version", Version),
	)
	vm.log = log

	var err error
	vm.metrics, err = metrics.New("", registerer)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	vm.sinks = append(events.Sinks{vm.metrics}, sinks...)

	vm.state, err = state.New(db, registerer)
	if err != nil {
		return fmt.Errorf("failed to initialize state: %w", err)
	}

	initialized, err := vm.state.IsInitialized()
	if err != nil {
		return err
	}
	if initialized {
		vm.log.Info("loaded state",
			zap.Stringer("lastAccepted", vm.state.GetLastAccepted()),
			zap.Time("timestamp", vm.state.GetTimestamp()),
		)
		return nil
	}
	if err := vm.initGenesis(genesisBytes); err != nil {
		_ = vm.state.Close()
		vm.state = nil
		return err
	}
	return nil
}

func (vm *VM) initGenesis(genesisBytes []byte) error {
	gen, err := genesis.Parse(genesisBytes)
	if err != nil {
		return fmt.Errorf("failed to parse genesis: %w", err)
	}

	buffer := &events.Buffer{}
	if err := gen.Apply(vm.state, buffer); err != nil {
		vm.state.Abort()
		return fmt.Errorf("failed to apply genesis: %w", err)
	}
	genesisID := ids.ID(hashing.ComputeHash256Array(genesisBytes))
	vm.state.SetLastAccepted(genesisID)
	if err := vm.state.SetInitialized(); err != nil {
		return err
	}
	if err := vm.state.Commit(); err != nil {
		return fmt.Errorf("failed to commit genesis: %w", err)
	}

	vm.log.Info("initialized genesis",
		zap.Stringer("genesisID", genesisID),
		zap.Int("numTokens", len(gen.Tokens)),
		zap.Int("numDAOs", len(gen.DAOs)),
		zap.String("message", gen.Message),
	)
	vm.publish(genesisID, buffer.Events())
	return nil
}

// Clock is the source of the timestamps assigned to issued txs.
func (vm *VM) Clock() *mockable.Clock {
	return &vm.clock
}

// GetState returns the state after [txID] if it's the last accepted tx. Only
// the head of the chain is kept.
func (vm *VM) GetState(txID ids.ID) (state.Chain, bool) {
	if vm.state == nil || txID != vm.state.GetLastAccepted() {
		return nil, false
	}
	return vm.state, true
}

// IssueTx executes [tx] on top of the last accepted state. A tx either
// commits all of its changes or none of them.
func (vm *VM) IssueTx(tx *txs.Tx) (*Receipt, error) {
	if tx == nil {
		return nil, txs.ErrNilTx
	}

	vm.lock.Lock()
	defer vm.lock.Unlock()

	if err := vm.ready(); err != nil {
		return nil, err
	}

	receipt, err := vm.execute(tx)
	if err != nil {
		vm.metrics.MarkRejected()
		vm.log.Debug("rejected tx",
			zap.Stringer("txID", tx.ID()),
			zap.Stringer("caller", tx.Caller),
			zap.Error(err),
		)
		return nil, err
	}

	if err := vm.metrics.MarkAccepted(tx); err != nil {
		vm.log.Warn("failed to mark tx accepted",
			zap.Stringer("txID", tx.ID()),
			zap.Error(err),
		)
	}
	vm.log.Debug("accepted tx",
		zap.Stringer("txID", receipt.TxID),
		zap.Stringer("caller", tx.Caller),
		zap.Int("numEvents", len(receipt.Events)),
	)
	if receipt.ProposalPassed != nil {
		vm.log.Info("finished proposal",
			zap.Stringer("txID", receipt.TxID),
			zap.Bool("passed", *receipt.ProposalPassed),
		)
	}
	vm.publish(receipt.TxID, receipt.Events)
	return receipt, nil
}

func (vm *VM) execute(tx *txs.Tx) (*Receipt, error) {
	if err := tx.SyntacticVerify(); err != nil {
		return nil, err
	}

	parentID := vm.state.GetLastAccepted()
	diff, err := state.NewDiff(parentID, vm)
	if err != nil {
		return nil, err
	}
	// time never goes backwards
	if now := vm.clock.Time(); now.After(diff.GetTimestamp()) {
		diff.SetTimestamp(now)
	}

	buffer := &events.Buffer{}
	executor := &txexecutor.StandardTxExecutor{
		State:   diff,
		Tx:      tx,
		Emitter: buffer,
	}
	if err := tx.Unsigned.Visit(executor); err != nil {
		return nil, err
	}

	diff.Apply(vm.state)
	vm.state.SetLastAccepted(tx.ID())
	if err := vm.state.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit tx %s: %w", tx.ID(), err)
	}
	return &Receipt{
		TxID:           tx.ID(),
		Timestamp:      diff.GetTimestamp(),
		Events:         buffer.Events(),
		ProposalPassed: executor.ProposalPassed,
	}, nil
}

// publish hands accepted events to the sinks. The tx is already committed, so
// sink failures are only logged.
func (vm *VM) publish(txID ids.ID, accepted []events.Event) {
	if err := vm.sinks.Publish(txID, accepted); err != nil {
		vm.log.Warn("failed to publish events",
			zap.Stringer("txID", txID),
			zap.Error(err),
		)
	}
}

func (vm *VM) ready() error {
	switch {
	case vm.shutdown:
		return ErrShutdown
	case vm.state == nil:
		return ErrNotInitialized
	default:
		return nil
	}
}

// view returns a diff on the last accepted state that is never applied.
func (vm *VM) view() (*txexecutor.StandardTxExecutor, error) {
	if err := vm.ready(); err != nil {
		return nil, err
	}
	diff, err := state.NewDiff(vm.state.GetLastAccepted(), vm)
	if err != nil {
		return nil, err
	}
	return &txexecutor.StandardTxExecutor{
		State:   diff,
		Emitter: &events.Buffer{},
	}, nil
}

// Ledger returns a read view of the token at [tokenID]. Calls that modify
// the token through the view are never committed. The view fails with
// state.ErrMissingParentState once another tx is accepted, and must not be
// used concurrently with IssueTx.
func (vm *VM) Ledger(tokenID ids.ShortID) (*token.Ledger, error) {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	view, err := vm.view()
	if err != nil {
		return nil, err
	}
	return token.New(view.State, tokenID, view.Emitter)
}

// DAO returns a read view of the dao at [daoID], with the same restrictions
// as Ledger.
func (vm *VM) DAO(daoID ids.ShortID) (*dao.Engine, error) {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	view, err := vm.view()
	if err != nil {
		return nil, err
	}
	target, err := view.Target(daoID)
	if err != nil {
		return nil, err
	}
	engine, ok := target.(*dao.Engine)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errNotDAO, daoID)
	}
	return engine, nil
}

func (vm *VM) NativeBalance(addr ids.ShortID) (*uint256.Int, error) {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if err := vm.ready(); err != nil {
		return nil, err
	}
	return vm.state.GetNativeBalance(addr)
}

// FinishableProposals returns the unfinished proposals whose voting period
// is over, ordered by end time.
func (vm *VM) FinishableProposals() ([]state.ProposalRef, error) {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if err := vm.ready(); err != nil {
		return nil, err
	}
	now := vm.clock.Time()
	if timestamp := vm.state.GetTimestamp(); timestamp.After(now) {
		now = timestamp
	}
	return vm.state.FinishableProposals(now), nil
}

func (vm *VM) LastAccepted() (ids.ID, error) {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if err := vm.ready(); err != nil {
		return ids.Empty, err
	}
	return vm.state.GetLastAccepted(), nil
}

func (vm *VM) Shutdown() error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if vm.state == nil || vm.shutdown {
		return nil
	}
	vm.shutdown = true
	return vm.state.Close()
}
