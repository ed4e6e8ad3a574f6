// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"bytes"

	"github.com/bitmark-inc/pricecache/merkle"
)

// Entry - one cached value
type Entry struct {
	Key   Key
	Slot  Slot
	Time  int64
	Value []byte // opaque to the store
}

// Batch - everything committed for one slot
type Batch struct {
	Slot    Slot
	Time    int64
	Root    merkle.Digest // nil for entries inserted singly
	Hasher  string
	Entries []Entry
}

// same content, used to make commits idempotent
func (b *Batch) equal(other *Batch) bool {
	if b.Slot != other.Slot || b.Time != other.Time || b.Hasher != other.Hasher {
		return false
	}
	if !b.Root.Equal(other.Root) || len(b.Entries) != len(other.Entries) {
		return false
	}
	values := make(map[Key]*Entry, len(b.Entries))
	for i := range b.Entries {
		values[b.Entries[i].Key] = &b.Entries[i]
	}
	for _, e := range other.Entries {
		v, ok := values[e.Key]
		if !ok || v.Time != e.Time || !bytes.Equal(v.Value, e.Value) {
			return false
		}
	}
	return true
}

// find the entry for a key
func (b *Batch) entry(key Key) (*Entry, bool) {
	for i := range b.Entries {
		if key == b.Entries[i].Key {
			return &b.Entries[i], true
		}
	}
	return nil, false
}
