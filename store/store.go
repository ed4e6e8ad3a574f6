// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"sync"
	"sync/atomic"

	"github.com/bitmark-inc/pricecache/avl"
	"github.com/bitmark-inc/pricecache/fault"
)

// Store - the cache handle
type Store struct {
	sync.Mutex // serialises writers only

	sizeSlots int
	current   atomic.Value // *snapshot
}

// immutable state
type snapshot struct {
	slots   []Slot // ascending
	batches map[Slot]*Batch
	index   map[Key]*avl.Tree
}

// New - create an empty store retaining at most sizeSlots slots
func New(sizeSlots int) (*Store, error) {
	if sizeSlots <= 0 {
		return nil, fault.ErrInvalidSizeSlots
	}
	s := &Store{
		sizeSlots: sizeSlots,
	}
	s.current.Store(&snapshot{
		batches: make(map[Slot]*Batch),
		index:   make(map[Key]*avl.Tree),
	})
	return s, nil
}

// SizeSlots - the configured window
func (s *Store) SizeSlots() int {
	return s.sizeSlots
}

func (s *Store) load() *snapshot {
	return s.current.Load().(*snapshot)
}

// Commit - atomically add all entries of one slot
//
// re-committing identical content is a no-op; different content for a
// committed slot gives fault.ErrSlotImmutable.  A slot below the
// window of a full store gives fault.ErrSlotTooOld and any other slot
// below the newest one gives fault.ErrSlotOutOfOrder.  When the window
// overflows the oldest slot is evicted from every key in the same
// swap.
func (s *Store) Commit(batch *Batch) error {
	s.Lock()
	defer s.Unlock()

	cur := s.load()

	if committed, ok := cur.batches[batch.Slot]; ok {
		if committed.equal(batch) {
			return nil
		}
		return fault.ErrSlotImmutable
	}
	if err := cur.checkOrder(batch.Slot, s.sizeSlots); nil != err {
		return err
	}

	seen := make(map[Key]struct{}, len(batch.Entries))
	for _, e := range batch.Entries {
		if _, ok := seen[e.Key]; ok {
			return fault.ErrDuplicateFeed
		}
		seen[e.Key] = struct{}{}
	}

	s.current.Store(cur.next(batch, s.sizeSlots))
	return nil
}

// Insert - add a single entry as its own slot
//
// an identical entry already present for the slot is a no-op,
// anything else on a committed slot is rejected
func (s *Store) Insert(key Key, slot Slot, time int64, value []byte) error {
	cur := s.load()
	if committed, ok := cur.batches[slot]; ok {
		if e, ok := committed.entry(key); ok && e.Time == time && string(e.Value) == string(value) {
			return nil
		}
		return fault.ErrSlotImmutable
	}

	return s.Commit(&Batch{
		Slot: slot,
		Time: time,
		Entries: []Entry{
			{Key: key, Slot: slot, Time: time, Value: value},
		},
	})
}

// Snapshot - a consistent read only view of the current state
func (s *Store) Snapshot() *View {
	return &View{s: s.load()}
}

// GetLatest - the entry with the highest moment for key
func (s *Store) GetLatest(key Key) (Entry, bool) {
	return s.Snapshot().GetLatest(key)
}

// GetAtOrAfter - the first entry for key with time >= t
func (s *Store) GetAtOrAfter(key Key, t int64) (Entry, bool) {
	return s.Snapshot().GetAtOrAfter(key, t)
}

// WindowMin - oldest retained slot
func (s *Store) WindowMin() (Slot, bool) {
	return s.Snapshot().WindowMin()
}

// WindowStart - oldest retained slot and its batch time
func (s *Store) WindowStart() (Slot, int64, bool) {
	return s.Snapshot().WindowStart()
}

// Len - number of retained slots
func (s *Store) Len() int {
	return len(s.load().slots)
}

func (cur *snapshot) checkOrder(slot Slot, sizeSlots int) error {
	n := len(cur.slots)
	if 0 == n {
		return nil
	}
	if n >= sizeSlots && slot < cur.slots[0] {
		return fault.ErrSlotTooOld
	}
	if slot < cur.slots[n-1] {
		return fault.ErrSlotOutOfOrder
	}
	return nil
}

// build the successor snapshot, the receiver is not modified
func (cur *snapshot) next(batch *Batch, sizeSlots int) *snapshot {

	b := &Batch{
		Slot:    batch.Slot,
		Time:    batch.Time,
		Root:    batch.Root,
		Hasher:  batch.Hasher,
		Entries: make([]Entry, len(batch.Entries)),
	}
	copy(b.Entries, batch.Entries)

	n := &snapshot{
		slots:   make([]Slot, 0, len(cur.slots)+1),
		batches: make(map[Slot]*Batch, len(cur.batches)+1),
		index:   make(map[Key]*avl.Tree, len(cur.index)+len(b.Entries)),
	}
	n.slots = append(n.slots, cur.slots...)
	n.slots = append(n.slots, b.Slot)
	for slot, batch := range cur.batches {
		n.batches[slot] = batch
	}
	n.batches[b.Slot] = b
	for key, tree := range cur.index {
		n.index[key] = tree
	}

	for i := range b.Entries {
		e := &b.Entries[i]
		e.Slot = b.Slot
		n.index[e.Key], _ = n.index[e.Key].Insert(Moment{Time: e.Time, Slot: b.Slot}, e)
	}

	// evict whole slots from the old end
	for len(n.slots) > sizeSlots {
		oldest := n.slots[0]
		n.slots = n.slots[1:]
		for _, e := range n.batches[oldest].Entries {
			tree, _ := n.index[e.Key].Delete(Moment{Time: e.Time, Slot: oldest})
			if tree.IsEmpty() {
				delete(n.index, e.Key)
			} else {
				n.index[e.Key] = tree
			}
		}
		delete(n.batches, oldest)
	}
	return n
}
