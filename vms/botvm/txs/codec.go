// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import (
	"math"
	"time"

	"github.com/ava-labs/avalanchego/codec"
	"github.com/ava-labs/avalanchego/codec/linearcodec"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

// Version is the current default codec version
const Version = 0

var Codec codec.Manager

func init() {
	c := linearcodec.NewDefault(time.Time{})
	Codec = codec.NewManager(math.MaxInt32)

	errs := wrappers.Errs{}
	errs.Add(
		RegisterUnsignedTxsTypes(c),
		Codec.RegisterCodec(Version, c),
	)
	if errs.Errored() {
		panic(errs.Err)
	}
}

// RegisterUnsignedTxsTypes registers the tx types in a fixed order. New types
// must be appended.
func RegisterUnsignedTxsTypes(targetCodec codec.Registry) error {
	errs := wrappers.Errs{}
	errs.Add(
		targetCodec.RegisterType(&TransferTx{}),
		targetCodec.RegisterType(&ApproveTx{}),
		targetCodec.RegisterType(&TransferFromTx{}),
		targetCodec.RegisterType(&BurnTx{}),
		targetCodec.RegisterType(&InvokeTx{}),
		targetCodec.RegisterType(&DepositTx{}),
		targetCodec.RegisterType(&WithdrawTokensTx{}),
		targetCodec.RegisterType(&VoteTx{}),
		targetCodec.RegisterType(&AddProposalTx{}),
		targetCodec.RegisterType(&FinalizeProposalTx{}),
		targetCodec.RegisterType(&EmergencyEndTx{}),
		targetCodec.RegisterType(&WithdrawNativeTx{}),
		targetCodec.RegisterType(&SendNativeTx{}),
		targetCodec.RegisterType(&UpgradeTx{}),
	)
	return errs.Err
}
