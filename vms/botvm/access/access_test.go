// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package access

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/ids"
)

func TestResolve(t *testing.T) {
	owner := ids.GenerateTestShortID()
	dao := ids.GenerateTestShortID()
	stranger := ids.GenerateTestShortID()

	tests := map[string]struct {
		owner        ids.ShortID
		dao          ids.ShortID
		caller       ids.ShortID
		expectedRole Role
	}{
		"Owner": {
			owner:        owner,
			dao:          dao,
			caller:       owner,
			expectedRole: RoleOwner,
		},
		"DAO": {
			owner:        owner,
			dao:          dao,
			caller:       dao,
			expectedRole: RoleDAO,
		},
		"Stranger": {
			owner:        owner,
			dao:          dao,
			caller:       stranger,
			expectedRole: RoleNone,
		},
		"Empty caller never resolves after renounce": {
			owner:        ids.ShortEmpty,
			dao:          ids.ShortEmpty,
			caller:       ids.ShortEmpty,
			expectedRole: RoleNone,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tt.expectedRole, Resolve(tt.owner, tt.dao, tt.caller))
		})
	}
}

func TestRequire(t *testing.T) {
	require := require.New(t)
	owner := ids.GenerateTestShortID()
	dao := ids.GenerateTestShortID()

	require.NoError(RequireOwner(owner, owner))
	require.ErrorIs(RequireOwner(owner, dao), ErrNotOwner)
	require.NoError(RequireOwnerOrDAO(owner, dao, dao))
	require.ErrorIs(RequireOwnerOrDAO(owner, ids.ShortEmpty, dao), ErrNotOwnerOrDAO)
}

func TestOwnershipChanges(t *testing.T) {
	require := require.New(t)
	owner := ids.GenerateTestShortID()
	next := ids.GenerateTestShortID()

	newOwner, err := TransferOwnership(owner, next, next)
	require.ErrorIs(err, ErrNotOwner)
	require.Equal(owner, newOwner)

	_, err = TransferOwnership(owner, owner, ids.ShortEmpty)
	require.ErrorIs(err, ErrZeroOwner)

	newOwner, err = TransferOwnership(owner, owner, next)
	require.NoError(err)
	require.Equal(next, newOwner)

	renounced, err := RenounceOwnership(newOwner, next)
	require.NoError(err)
	require.Equal(ids.ShortEmpty, renounced)
	require.ErrorIs(RequireOwner(renounced, next), ErrNotOwner)
}
