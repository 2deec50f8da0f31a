// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"encoding/binary"
	"fmt"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
)

type accountKey struct {
	token ids.ShortID
	addr  ids.ShortID
}

type allowanceKey struct {
	token   ids.ShortID
	owner   ids.ShortID
	spender ids.ShortID
}

type holderSlotKey struct {
	token ids.ShortID
	index uint64
}

type proposalKey struct {
	dao ids.ShortID
	id  uint64
}

type receiptKey struct {
	dao   ids.ShortID
	id    uint64
	voter ids.ShortID
}

func shortIDKey(id ids.ShortID) []byte {
	return id.Bytes()
}

func (k accountKey) bytes() []byte {
	return joinKey(k.token[:], k.addr[:])
}

func (k allowanceKey) bytes() []byte {
	return joinKey(k.token[:], k.owner[:], k.spender[:])
}

func (k holderSlotKey) bytes() []byte {
	return joinKey(k.token[:], uint64Key(k.index))
}

func (k proposalKey) bytes() []byte {
	return joinKey(k.dao[:], uint64Key(k.id))
}

func (k receiptKey) bytes() []byte {
	return joinKey(k.dao[:], uint64Key(k.id), k.voter[:])
}

func parseProposalKey(key []byte) (proposalKey, error) {
	if len(key) != ids.ShortIDLen+8 {
		return proposalKey{}, fmt.Errorf("invalid proposal key length %d", len(key))
	}
	daoID, err := ids.ToShortID(key[:ids.ShortIDLen])
	if err != nil {
		return proposalKey{}, err
	}
	return proposalKey{
		dao: daoID,
		id:  binary.BigEndian.Uint64(key[ids.ShortIDLen:]),
	}, nil
}

func uint64Key(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func joinKey(parts ...[]byte) []byte {
	size := 0
	for _, part := range parts {
		size += len(part)
	}
	key := make([]byte, 0, size)
	for _, part := range parts {
		key = append(key, part...)
	}
	return key
}

// recordSet is one family of records stored under its own prefix. Modified
// records are kept in memory until they are written. A nil modified record
// marks a deletion.
type recordSet[K comparable, V any] struct {
	db       database.Database
	key      func(K) []byte
	cache    cache.Cacher[K, *V] // may be nil
	modified map[K]*V
}

func newRecordSet[K comparable, V any](
	db database.Database,
	key func(K) []byte,
	recordCache cache.Cacher[K, *V],
) *recordSet[K, V] {
	return &recordSet[K, V]{
		db:       db,
		key:      key,
		cache:    recordCache,
		modified: make(map[K]*V),
	}
}

// get returns the stored record. The result must not be modified.
func (r *recordSet[K, V]) get(k K) (*V, error) {
	if v, ok := r.modified[k]; ok {
		if v == nil {
			return nil, database.ErrNotFound
		}
		return v, nil
	}
	if r.cache != nil {
		if v, ok := r.cache.Get(k); ok {
			if v == nil {
				return nil, database.ErrNotFound
			}
			return v, nil
		}
	}

	bytes, err := r.db.Get(r.key(k))
	if err == database.ErrNotFound {
		r.putCache(k, nil)
		return nil, database.ErrNotFound
	} else if err != nil {
		return nil, err
	}

	v := new(V)
	if _, err := Codec.Unmarshal(bytes, v); err != nil {
		return nil, err
	}
	r.putCache(k, v)
	return v, nil
}

func (r *recordSet[K, V]) put(k K, v *V) {
	r.modified[k] = v
}

func (r *recordSet[K, V]) delete(k K) {
	r.modified[k] = nil
}

func (r *recordSet[K, V]) putCache(k K, v *V) {
	if r.cache != nil {
		r.cache.Put(k, v)
	}
}

func (r *recordSet[K, V]) evictCache(k K) {
	if r.cache != nil {
		r.cache.Evict(k)
	}
}

// write moves the modified records into [r.db]. Written keys are evicted from
// the cache, so a batch that fails to be written never becomes visible.
func (r *recordSet[K, V]) write() error {
	for k, v := range r.modified {
		delete(r.modified, k)
		r.evictCache(k)

		key := r.key(k)
		if v == nil {
			if err := r.db.Delete(key); err != nil {
				return fmt.Errorf("failed to delete record: %w", err)
			}
			continue
		}

		bytes, err := Codec.Marshal(CodecVersion, v)
		if err != nil {
			return fmt.Errorf("failed to serialize record: %w", err)
		}
		if err := r.db.Put(key, bytes); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	return nil
}

func (r *recordSet[K, V]) abort() {
	for k := range r.modified {
		delete(r.modified, k)
	}
}
