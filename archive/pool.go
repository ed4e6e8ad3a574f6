// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package archive

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// pool - a key range sharing a prefix byte
type pool struct {
	prefix byte
	limit  []byte
	db     *leveldb.DB
}

func newPool(prefix byte, db *leveldb.DB) pool {
	limit := []byte(nil)
	if prefix < 255 {
		limit = []byte{prefix + 1}
	}
	return pool{
		prefix: prefix,
		limit:  limit,
		db:     db,
	}
}

// prepend the prefix onto the key
func (p pool) prefixKey(parts ...[]byte) []byte {
	n := 1
	for _, part := range parts {
		n += len(part)
	}
	prefixedKey := make([]byte, 1, n)
	prefixedKey[0] = p.prefix
	for _, part := range parts {
		prefixedKey = append(prefixedKey, part...)
	}
	return prefixedKey
}

// add a write to a batch
func (p pool) put(batch *leveldb.Batch, value []byte, key ...[]byte) {
	batch.Put(p.prefixKey(key...), value)
}

// add a delete to a batch
func (p pool) delete(batch *leveldb.Batch, key []byte) {
	batch.Delete(p.prefixKey(key))
}

// read a single value, nil if absent
func (p pool) get(key ...[]byte) ([]byte, error) {
	value, err := p.db.Get(p.prefixKey(key...), nil)
	if leveldb.ErrNotFound == err {
		return nil, nil
	}
	return value, err
}

// run f on each element of the pool starting at the given key, with
// the prefix stripped, until f returns false
//
// key and value are copies
func (p pool) scan(start []byte, f func(key []byte, value []byte) bool) error {
	r := &util.Range{
		Start: p.prefixKey(start),
		Limit: p.limit,
	}
	iter := p.db.NewIterator(r, nil)

iterating:
	for iter.Next() {
		key := iter.Key()
		value := iter.Value()

		dataKey := make([]byte, len(key)-1) // strip the prefix
		copy(dataKey, key[1:])              // ...

		dataValue := make([]byte, len(value))
		copy(dataValue, value)

		if !f(dataKey, dataValue) {
			break iterating
		}
	}
	iter.Release()
	return iter.Error()
}
