// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package holders

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/ids"
)

func requireConsistent(t *testing.T, r *Registry, expected []ids.ShortID) {
	require := require.New(t)

	size, err := r.Size()
	require.NoError(err)
	require.Equal(uint64(len(expected)), size)

	members := make([]ids.ShortID, 0, size)
	for i := uint64(0); i < size; i++ {
		addr, err := r.At(i)
		require.NoError(err)
		members = append(members, addr)

		index, ok, err := r.backend.HolderIndex(addr)
		require.NoError(err)
		require.True(ok)
		require.Equal(i, index)
	}
	require.ElementsMatch(expected, members)

	_, err = r.At(size)
	require.ErrorIs(err, ErrIndexOutOfRange)
}

func TestRegistryInsertRemove(t *testing.T) {
	a := ids.GenerateTestShortID()
	b := ids.GenerateTestShortID()
	c := ids.GenerateTestShortID()
	d := ids.GenerateTestShortID()

	tests := map[string]struct {
		ops      func(require *require.Assertions, r *Registry)
		expected []ids.ShortID
	}{
		"Empty": {
			ops:      func(*require.Assertions, *Registry) {},
			expected: []ids.ShortID{},
		},
		"Insert is idempotent": {
			ops: func(require *require.Assertions, r *Registry) {
				require.NoError(r.Insert(a))
				require.NoError(r.Insert(a))
				require.NoError(r.Insert(b))
			},
			expected: []ids.ShortID{a, b},
		},
		"Remove absent is no-op": {
			ops: func(require *require.Assertions, r *Registry) {
				require.NoError(r.Insert(a))
				require.NoError(r.Remove(b))
			},
			expected: []ids.ShortID{a},
		},
		"Remove first swaps last": {
			ops: func(require *require.Assertions, r *Registry) {
				require.NoError(r.Insert(a))
				require.NoError(r.Insert(b))
				require.NoError(r.Insert(c))
				require.NoError(r.Remove(a))

				moved, err := r.At(0)
				require.NoError(err)
				require.Equal(c, moved)
			},
			expected: []ids.ShortID{c, b},
		},
		"Remove last": {
			ops: func(require *require.Assertions, r *Registry) {
				require.NoError(r.Insert(a))
				require.NoError(r.Insert(b))
				require.NoError(r.Remove(b))
			},
			expected: []ids.ShortID{a},
		},
		"Remove all then reinsert": {
			ops: func(require *require.Assertions, r *Registry) {
				require.NoError(r.Insert(a))
				require.NoError(r.Insert(b))
				require.NoError(r.Remove(a))
				require.NoError(r.Remove(b))
				require.NoError(r.Insert(d))
				require.NoError(r.Insert(a))
			},
			expected: []ids.ShortID{d, a},
		},
		"Update": {
			ops: func(require *require.Assertions, r *Registry) {
				require.NoError(r.Update(a, true))
				require.NoError(r.Update(b, true))
				require.NoError(r.Update(a, false))
				require.NoError(r.Update(c, false))
			},
			expected: []ids.ShortID{b},
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			r := New(NewMemoryBackend())
			tt.ops(require.New(t), r)
			requireConsistent(t, r, tt.expected)
		})
	}
}

func TestRegistryContains(t *testing.T) {
	require := require.New(t)
	r := New(NewMemoryBackend())
	a := ids.GenerateTestShortID()

	ok, err := r.Contains(a)
	require.NoError(err)
	require.False(ok)

	require.NoError(r.Insert(a))
	ok, err = r.Contains(a)
	require.NoError(err)
	require.True(ok)
}
