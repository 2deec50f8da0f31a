// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package holders

import "github.com/ava-labs/avalanchego/ids"

var _ Backend = (*MemoryBackend)(nil)

// MemoryBackend keeps the registry in a slice plus an address map.
type MemoryBackend struct {
	slots []ids.ShortID
	index map[ids.ShortID]uint64
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{index: make(map[ids.ShortID]uint64)}
}

func (m *MemoryBackend) HolderCount() (uint64, error) {
	return uint64(len(m.slots)), nil
}

func (m *MemoryBackend) SetHolderCount(count uint64) {
	switch {
	case count < uint64(len(m.slots)):
		m.slots = m.slots[:count]
	case count > uint64(len(m.slots)):
		m.slots = append(m.slots, make([]ids.ShortID, count-uint64(len(m.slots)))...)
	}
}

func (m *MemoryBackend) HolderAt(index uint64) (ids.ShortID, error) {
	if index >= uint64(len(m.slots)) {
		return ids.ShortEmpty, ErrIndexOutOfRange
	}
	return m.slots[index], nil
}

func (m *MemoryBackend) SetHolderAt(index uint64, addr ids.ShortID) {
	if index >= uint64(len(m.slots)) {
		m.SetHolderCount(index + 1)
	}
	m.slots[index] = addr
}

func (m *MemoryBackend) DeleteHolderAt(index uint64) {
	if index < uint64(len(m.slots)) {
		m.slots[index] = ids.ShortEmpty
	}
}

func (m *MemoryBackend) HolderIndex(addr ids.ShortID) (uint64, bool, error) {
	index, ok := m.index[addr]
	return index, ok, nil
}

func (m *MemoryBackend) SetHolderIndex(addr ids.ShortID, index uint64) {
	m.index[addr] = index
}

func (m *MemoryBackend) DeleteHolderIndex(addr ids.ShortID) {
	delete(m.index, addr)
}
