// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"sort"

	"github.com/bitmark-inc/pricecache/merkle"
)

// View - one immutable state of the store
type View struct {
	s *snapshot
}

// BatchInfo - summary of a committed slot
type BatchInfo struct {
	Slot   Slot
	Time   int64
	Root   merkle.Digest
	Hasher string
	Count  int
}

// GetLatest - the entry with the highest moment for key
func (v *View) GetLatest(key Key) (Entry, bool) {
	node := v.s.index[key].Last()
	if nil == node {
		return Entry{}, false
	}
	return *node.Value().(*Entry), true
}

// GetAtOrAfter - the first entry for key with time >= t
func (v *View) GetAtOrAfter(key Key, t int64) (Entry, bool) {
	node := v.s.index[key].Ceiling(Moment{Time: t, Slot: 0})
	if nil == node {
		return Entry{}, false
	}
	return *node.Value().(*Entry), true
}

// WindowMin - oldest retained slot
func (v *View) WindowMin() (Slot, bool) {
	if 0 == len(v.s.slots) {
		return 0, false
	}
	return v.s.slots[0], true
}

// WindowStart - oldest retained slot and its batch time
func (v *View) WindowStart() (Slot, int64, bool) {
	if 0 == len(v.s.slots) {
		return 0, 0, false
	}
	slot := v.s.slots[0]
	return slot, v.s.batches[slot].Time, true
}

// Newest - most recent retained slot
func (v *View) Newest() (Slot, bool) {
	n := len(v.s.slots)
	if 0 == n {
		return 0, false
	}
	return v.s.slots[n-1], true
}

// Batch - summary of a retained slot
func (v *View) Batch(slot Slot) (BatchInfo, bool) {
	b, ok := v.s.batches[slot]
	if !ok {
		return BatchInfo{}, false
	}
	return BatchInfo{
		Slot:   b.Slot,
		Time:   b.Time,
		Root:   b.Root,
		Hasher: b.Hasher,
		Count:  len(b.Entries),
	}, true
}

// Slots - retained slots in ascending order
func (v *View) Slots() []Slot {
	slots := make([]Slot, len(v.s.slots))
	copy(slots, v.s.slots)
	return slots
}

// Keys - sorted keys with at least one entry in a namespace
func (v *View) Keys(namespace byte) []Key {
	keys := make([]Key, 0, len(v.s.index))
	for key := range v.s.index {
		if namespace == key.Namespace() {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Compare(keys[j]) < 0
	})
	return keys
}

// Count - number of entries held for a key
func (v *View) Count(key Key) int {
	return v.s.index[key].Count()
}

// Len - number of retained slots
func (v *View) Len() int {
	return len(v.s.slots)
}
