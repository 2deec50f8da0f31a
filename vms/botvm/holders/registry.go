// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package holders

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
)

var ErrIndexOutOfRange = errors.New("holder index out of range")

// Backend stores the dense holder sequence and its reverse index.
type Backend interface {
	HolderCount() (uint64, error)
	SetHolderCount(count uint64)

	HolderAt(index uint64) (ids.ShortID, error)
	SetHolderAt(index uint64, addr ids.ShortID)
	DeleteHolderAt(index uint64)

	// HolderIndex returns false if [addr] isn't a holder.
	HolderIndex(addr ids.ShortID) (uint64, bool, error)
	SetHolderIndex(addr ids.ShortID, index uint64)
	DeleteHolderIndex(addr ids.ShortID)
}

// Registry is an ordered set of addresses where every member has a stable
// index in [0, Size()). Removal moves the last member into the freed slot.
type Registry struct {
	backend Backend
}

func New(backend Backend) *Registry {
	return &Registry{backend: backend}
}

func (r *Registry) Insert(addr ids.ShortID) error {
	_, ok, err := r.backend.HolderIndex(addr)
	if err != nil || ok {
		return err
	}
	size, err := r.backend.HolderCount()
	if err != nil {
		return err
	}
	r.backend.SetHolderAt(size, addr)
	r.backend.SetHolderIndex(addr, size)
	r.backend.SetHolderCount(size + 1)
	return nil
}

func (r *Registry) Remove(addr ids.ShortID) error {
	index, ok, err := r.backend.HolderIndex(addr)
	if err != nil || !ok {
		return err
	}
	size, err := r.backend.HolderCount()
	if err != nil {
		return err
	}
	if size == 0 {
		return fmt.Errorf("%w: holder %s indexed in empty registry", ErrIndexOutOfRange, addr)
	}

	lastIndex := size - 1
	if index != lastIndex {
		last, err := r.backend.HolderAt(lastIndex)
		if err != nil {
			return err
		}
		r.backend.SetHolderAt(index, last)
		r.backend.SetHolderIndex(last, index)
	}
	r.backend.DeleteHolderAt(lastIndex)
	r.backend.DeleteHolderIndex(addr)
	r.backend.SetHolderCount(lastIndex)
	return nil
}

// Update inserts [addr] when [shouldHold] and removes it otherwise.
func (r *Registry) Update(addr ids.ShortID, shouldHold bool) error {
	if shouldHold {
		return r.Insert(addr)
	}
	return r.Remove(addr)
}

func (r *Registry) Contains(addr ids.ShortID) (bool, error) {
	_, ok, err := r.backend.HolderIndex(addr)
	return ok, err
}

func (r *Registry) Size() (uint64, error) {
	return r.backend.HolderCount()
}

func (r *Registry) At(index uint64) (ids.ShortID, error) {
	size, err := r.backend.HolderCount()
	if err != nil {
		return ids.ShortEmpty, err
	}
	if index >= size {
		return ids.ShortEmpty, fmt.Errorf("%w: %d >= %d", ErrIndexOutOfRange, index, size)
	}
	return r.backend.HolderAt(index)
}
