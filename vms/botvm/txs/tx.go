// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/codec"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

var (
	ErrNilTx       = errors.New("tx is nil")
	ErrNoCaller    = errors.New("tx has no caller")
	errNilUnsigned = errors.New("unsigned tx is nil")
)

// UnsignedTx is the call a Tx carries.
type UnsignedTx interface {
	SyntacticVerify() error
	Visit(Visitor) error
}

// Tx is one call into the chain. Callers are trusted, there are no
// credentials.
type Tx struct {
	Caller   ids.ShortID `serialize:"true" json:"caller"`
	Unsigned UnsignedTx  `serialize:"true" json:"unsignedTx"`

	id    ids.ID
	bytes []byte
}

func NewTx(caller ids.ShortID, unsigned UnsignedTx) (*Tx, error) {
	tx := &Tx{
		Caller:   caller,
		Unsigned: unsigned,
	}
	return tx, tx.Initialize(Codec)
}

// Parse the bytes of a tx produced by Initialize.
func Parse(c codec.Manager, signedBytes []byte) (*Tx, error) {
	tx := &Tx{}
	if _, err := c.Unmarshal(signedBytes, tx); err != nil {
		return nil, fmt.Errorf("couldn't parse tx: %w", err)
	}
	tx.SetBytes(signedBytes)
	return tx, nil
}

func (tx *Tx) Initialize(c codec.Manager) error {
	signedBytes, err := c.Marshal(Version, tx)
	if err != nil {
		return fmt.Errorf("couldn't marshal tx: %w", err)
	}
	tx.SetBytes(signedBytes)
	return nil
}

func (tx *Tx) SetBytes(signedBytes []byte) {
	tx.bytes = signedBytes
	tx.id = hashing.ComputeHash256Array(signedBytes)
}

func (tx *Tx) ID() ids.ID {
	return tx.id
}

func (tx *Tx) Bytes() []byte {
	return tx.bytes
}

func (tx *Tx) SyntacticVerify() error {
	switch {
	case tx == nil:
		return ErrNilTx
	case tx.Caller == ids.ShortEmpty:
		return ErrNoCaller
	case tx.Unsigned == nil:
		return errNilUnsigned
	}
	return tx.Unsigned.SyntacticVerify()
}
