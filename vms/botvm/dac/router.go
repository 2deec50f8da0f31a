// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package dac

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/chain4travel/botvm/vms/botvm/events"
)

var (
	_ Invoker = (*Router)(nil)

	ErrUnknownTarget = errors.New("unknown target")
	ErrCallFailed    = errors.New("call failed")
)

// Target is a contract that executes governable operations.
type Target interface {
	Execute(caller ids.ShortID, op Operation) error
}

// Resolver looks up the contract deployed at an address.
type Resolver interface {
	Target(addr ids.ShortID) (Target, error)
}

// Invoker executes encoded call data against a target on behalf of a caller.
type Invoker interface {
	Invoke(caller, target ids.ShortID, callData []byte) error
}

type Router struct {
	resolver Resolver
	emitter  events.Emitter
}

func NewRouter(resolver Resolver, emitter events.Emitter) *Router {
	return &Router{
		resolver: resolver,
		emitter:  emitter,
	}
}

func (r *Router) Invoke(caller, target ids.ShortID, callData []byte) error {
	op, err := Decode(callData)
	if err != nil {
		return fmt.Errorf("%w: target %s: %w", ErrCallFailed, target, err)
	}
	return r.Execute(caller, target, op)
}

// Execute runs an already decoded operation against [target].
func (r *Router) Execute(caller, target ids.ShortID, op Operation) error {
	t, err := r.resolver.Target(target)
	if err != nil {
		return fmt.Errorf("%w: target %s: %w", ErrCallFailed, target, err)
	}
	if err := t.Execute(caller, op); err != nil {
		return fmt.Errorf("%w: %s on %s: %w", ErrCallFailed, op, target, err)
	}
	r.emitter.Emit(&events.OperationExecuted{
		Target:    target,
		Caller:    caller,
		Operation: op.String(),
	})
	return nil
}
