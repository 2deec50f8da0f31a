// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package dac

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/chain4travel/botvm/vms/botvm/events"
)

var errTest = errors.New("test error")

type testResolver map[ids.ShortID]Target

func (r testResolver) Target(addr ids.ShortID) (Target, error) {
	t, ok := r[addr]
	if !ok {
		return nil, ErrUnknownTarget
	}
	return t, nil
}

func TestEncodeDecode(t *testing.T) {
	account := ids.GenerateTestShortID()

	tests := map[string]struct {
		op          Operation
		expectedErr error
	}{
		"Burn fee": {
			op: &SetBurnFee{Percent: 5},
		},
		"Flag": {
			op: &SetExcludedFromFee{AccountFlag{Account: account, Excluded: true}},
		},
		"Renounce": {
			op: &RenounceOwnership{},
		},
		"Percent above 100": {
			op:          &SetMaxTxPercent{Percent: 101},
			expectedErr: ErrInvalidPercent,
		},
		"Zero dao": {
			op:          &SetDAO{},
			expectedErr: ErrZeroAddress,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			callData, err := Encode(tt.op)
			require.ErrorIs(err, tt.expectedErr)
			if tt.expectedErr != nil {
				return
			}
			op, err := Decode(callData)
			require.NoError(err)
			require.Equal(tt.op, op)
		})
	}
}

func TestDecodeInvalid(t *testing.T) {
	require := require.New(t)

	_, err := Decode(nil)
	require.ErrorIs(err, ErrEmptyCallData)

	_, err = Decode([]byte{0, 0, 0xff, 0xff, 0xff, 0xff})
	require.Error(err)
}

func TestRouterInvoke(t *testing.T) {
	caller := ids.GenerateTestShortID()
	targetAddr := ids.GenerateTestShortID()
	op := &SetBurnFee{Percent: 5}
	callData, err := Encode(op)
	require.NoError(t, err)

	tests := map[string]struct {
		target         func(c *gomock.Controller) Target
		addr           ids.ShortID
		callData       []byte
		expectedErr    error
		expectedEvents int
	}{
		"Success": {
			target: func(c *gomock.Controller) Target {
				target := NewMockTarget(c)
				target.EXPECT().Execute(caller, op).Return(nil)
				return target
			},
			addr:           targetAddr,
			callData:       callData,
			expectedEvents: 1,
		},
		"Target fails": {
			target: func(c *gomock.Controller) Target {
				target := NewMockTarget(c)
				target.EXPECT().Execute(caller, op).Return(errTest)
				return target
			},
			addr:        targetAddr,
			callData:    callData,
			expectedErr: errTest,
		},
		"Unknown target": {
			target: func(c *gomock.Controller) Target {
				return NewMockTarget(c)
			},
			addr:        ids.GenerateTestShortID(),
			callData:    callData,
			expectedErr: ErrUnknownTarget,
		},
		"Bad call data": {
			target: func(c *gomock.Controller) Target {
				return NewMockTarget(c)
			},
			addr:        targetAddr,
			callData:    nil,
			expectedErr: ErrEmptyCallData,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			ctrl := gomock.NewController(t)

			buffer := &events.Buffer{}
			router := NewRouter(testResolver{targetAddr: tt.target(ctrl)}, buffer)
			err := router.Invoke(caller, tt.addr, tt.callData)
			require.ErrorIs(err, tt.expectedErr)
			if tt.expectedErr != nil {
				require.ErrorIs(err, ErrCallFailed)
			}
			require.Len(buffer.Events(), tt.expectedEvents)
		})
	}
}
