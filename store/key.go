// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"bytes"
	"encoding/hex"
)

// Slot - upstream sequence number of a batch
type Slot uint64

// namespaces for keys
const (
	NamespacePrice byte = 'P'
)

// IDLength - bytes of identifier following the namespace
const IDLength = 32

// Key - a namespace byte followed by an identifier
type Key [1 + IDLength]byte

// NewKey - make a key from its parts
func NewKey(namespace byte, id [IDLength]byte) Key {
	k := Key{}
	k[0] = namespace
	copy(k[1:], id[:])
	return k
}

// Namespace - the prefix byte
func (k Key) Namespace() byte {
	return k[0]
}

// ID - the identifier part
func (k Key) ID() [IDLength]byte {
	id := [IDLength]byte{}
	copy(id[:], k[1:])
	return id
}

// String - for %s
func (k Key) String() string {
	return string(k[0]) + ":" + hex.EncodeToString(k[1:])
}

// Compare - for sorting key lists
func (k Key) Compare(other Key) int {
	return bytes.Compare(k[:], other[:])
}

// Moment - position of an entry in a key's index
//
// ordered by time then slot
type Moment struct {
	Time int64
	Slot Slot
}

// Compare - avl.Item interface
func (m Moment) Compare(x interface{}) int {
	other := x.(Moment)
	switch {
	case m.Time < other.Time:
		return -1
	case m.Time > other.Time:
		return 1
	case m.Slot < other.Slot:
		return -1
	case m.Slot > other.Slot:
		return 1
	}
	return 0
}
