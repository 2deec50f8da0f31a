// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package dac

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ava-labs/avalanchego/codec"
	"github.com/ava-labs/avalanchego/codec/linearcodec"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

const CodecVersion = 0

var (
	Codec codec.Manager

	ErrEmptyCallData = errors.New("empty call data")
)

func init() {
	c := linearcodec.NewDefault(time.Time{})
	Codec = codec.NewManager(math.MaxInt32)

	errs := wrappers.Errs{}
	errs.Add(RegisterOperationTypes(c))
	errs.Add(Codec.RegisterCodec(CodecVersion, c))
	if errs.Errored() {
		panic(errs.Err)
	}
}

// RegisterOperationTypes registers the operation types in a fixed order. Any
// codec that embeds operations must register them through this function so
// the type ids stay aligned.
func RegisterOperationTypes(targetCodec codec.Registry) error {
	errs := wrappers.Errs{}
	errs.Add(
		targetCodec.RegisterType(&SetBurnFee{}),
		targetCodec.RegisterType(&SetMaxTxPercent{}),
		targetCodec.RegisterType(&SetMaxWalletPercent{}),
		targetCodec.RegisterType(&SetExcludedHolder{}),
		targetCodec.RegisterType(&SetExcludedFromFee{}),
		targetCodec.RegisterType(&SetExcludedFromMaxWallet{}),
		targetCodec.RegisterType(&SetExcludedFromMaxTx{}),
		targetCodec.RegisterType(&SetExcludedFromCirculation{}),
		targetCodec.RegisterType(&SetDAO{}),
		targetCodec.RegisterType(&TransferOwnership{}),
		targetCodec.RegisterType(&RenounceOwnership{}),
	)
	return errs.Err
}

type call struct {
	Operation Operation `serialize:"true"`
}

// Encode returns the call data that executes [op].
func Encode(op Operation) ([]byte, error) {
	if err := op.Verify(); err != nil {
		return nil, err
	}
	return Codec.Marshal(CodecVersion, &call{Operation: op})
}

// Decode parses and verifies call data produced by Encode.
func Decode(callData []byte) (Operation, error) {
	if len(callData) == 0 {
		return nil, ErrEmptyCallData
	}
	c := call{}
	if _, err := Codec.Unmarshal(callData, &c); err != nil {
		return nil, fmt.Errorf("couldn't decode call data: %w", err)
	}
	if err := c.Operation.Verify(); err != nil {
		return nil, err
	}
	return c.Operation, nil
}
