// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package access

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
)

var (
	ErrNotOwner      = errors.New("caller is not the owner")
	ErrNotOwnerOrDAO = errors.New("caller is not the owner or the dao")
	ErrZeroOwner     = errors.New("new owner is the zero address")
)

// Role is the privilege a caller holds over an owned contract.
type Role byte

const (
	RoleNone Role = iota
	RoleOwner
	RoleDAO
)

func (r Role) String() string {
	switch r {
	case RoleNone:
		return "none"
	case RoleOwner:
		return "owner"
	case RoleDAO:
		return "dao"
	default:
		return "unknown"
	}
}

// Resolve returns the role of [caller] for a contract owned by [owner] with
// [dao] bound as its governance module. An empty owner or dao never matches,
// so a renounced contract has no owner role left.
func Resolve(owner, dao, caller ids.ShortID) Role {
	switch {
	case caller == ids.ShortEmpty:
		return RoleNone
	case caller == owner:
		return RoleOwner
	case caller == dao:
		return RoleDAO
	default:
		return RoleNone
	}
}

func RequireOwner(owner, caller ids.ShortID) error {
	if Resolve(owner, ids.ShortEmpty, caller) != RoleOwner {
		return fmt.Errorf("%w: %s", ErrNotOwner, caller)
	}
	return nil
}

func RequireOwnerOrDAO(owner, dao, caller ids.ShortID) error {
	if Resolve(owner, dao, caller) == RoleNone {
		return fmt.Errorf("%w: %s", ErrNotOwnerOrDAO, caller)
	}
	return nil
}

// TransferOwnership checks that [caller] owns the contract and returns the
// owner that replaces it.
func TransferOwnership(owner, caller, newOwner ids.ShortID) (ids.ShortID, error) {
	if err := RequireOwner(owner, caller); err != nil {
		return owner, err
	}
	if newOwner == ids.ShortEmpty {
		return owner, ErrZeroOwner
	}
	return newOwner, nil
}

// RenounceOwnership leaves the contract without an owner.
func RenounceOwnership(owner, caller ids.ShortID) (ids.ShortID, error) {
	if err := RequireOwner(owner, caller); err != nil {
		return owner, err
	}
	return ids.ShortEmpty, nil
}
