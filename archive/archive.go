// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package archive

import (
	"bytes"
	"encoding/binary"

	proto "github.com/gogo/protobuf/proto"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/bitmark-inc/pricecache/fault"
	"github.com/bitmark-inc/pricecache/pricefeed"
)

// Header - what is stored for each archived slot
type Header struct {
	Slot   uint64 `protobuf:"varint,1,opt,name=slot,proto3" json:"slot"`
	Time   int64  `protobuf:"varint,2,opt,name=time,proto3" json:"time"`
	Root   []byte `protobuf:"bytes,3,opt,name=root,proto3" json:"root"`
	Hasher string `protobuf:"bytes,4,opt,name=hasher,proto3" json:"hasher"`
	Count  uint32 `protobuf:"varint,5,opt,name=count,proto3" json:"count"`
}

func (m *Header) Reset()         { *m = Header{} }
func (m *Header) String() string { return proto.CompactTextString(m) }
func (*Header) ProtoMessage()    {}

func slotBytes(slot uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, slot)
	return b
}

func timeBytes(t int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(t))
	return b
}

// Archive - write all updates of a slot in one database batch
func (a *Archive) Archive(slot uint64, updates []*pricefeed.Update) error {
	a.RLock()
	defer a.RUnlock()

	if nil == a.db {
		return fault.ErrNotInitialised
	}
	if 0 == len(updates) {
		return fault.ErrBatchEmpty
	}

	header := &Header{
		Slot:   slot,
		Root:   updates[0].Root,
		Hasher: updates[0].Hasher,
		Count:  uint32(len(updates)),
	}

	batch := new(leveldb.Batch)
	for _, u := range updates {
		if slot != u.Slot {
			return fault.ErrSlotMismatch
		}
		record, err := u.Decode()
		if nil != err {
			return err
		}
		if record.PublishTime > header.Time {
			header.Time = record.PublishTime
		}
		value, err := u.Pack()
		if nil != err {
			return err
		}
		a.updates.put(batch, value, record.ID[:], timeBytes(record.PublishTime), slotBytes(slot))
	}

	packed, err := proto.Marshal(header)
	if nil != err {
		return err
	}
	a.headers.put(batch, packed, slotBytes(slot))

	return a.db.Write(batch, nil)
}

// AtOrAfter - the earliest archived update for a feed with time >= t
func (a *Archive) AtOrAfter(id pricefeed.FeedID, t int64) (*pricefeed.Update, bool, error) {
	a.RLock()
	defer a.RUnlock()

	if nil == a.db {
		return nil, false, fault.ErrNotInitialised
	}
	if t < 0 {
		t = 0
	}

	var found []byte
	start := append(append([]byte{}, id[:]...), timeBytes(t)...)
	err := a.updates.scan(start, func(key []byte, value []byte) bool {
		if bytes.HasPrefix(key, id[:]) {
			found = value
		}
		return false
	})
	if nil != err || nil == found {
		return nil, false, err
	}

	u, err := pricefeed.UnpackUpdate(found)
	if nil != err {
		return nil, false, err
	}
	return u, true, nil
}

// Header - the header of an archived slot
func (a *Archive) Header(slot uint64) (*Header, bool, error) {
	a.RLock()
	defer a.RUnlock()

	if nil == a.db {
		return nil, false, fault.ErrNotInitialised
	}
	value, err := a.headers.get(slotBytes(slot))
	if nil != err || nil == value {
		return nil, false, err
	}
	h := &Header{}
	if err := proto.Unmarshal(value, h); nil != err {
		return nil, false, err
	}
	return h, true, nil
}

// Slots - up to count archived slots starting at from
func (a *Archive) Slots(from uint64, count int) ([]uint64, error) {
	a.RLock()
	defer a.RUnlock()

	if nil == a.db {
		return nil, fault.ErrNotInitialised
	}
	if count <= 0 {
		return nil, fault.ErrInvalidCount
	}

	slots := make([]uint64, 0, count)
	err := a.headers.scan(slotBytes(from), func(key []byte, value []byte) bool {
		slots = append(slots, binary.BigEndian.Uint64(key))
		return len(slots) < count
	})
	return slots, err
}

// Prune - delete every slot below the given one
func (a *Archive) Prune(below uint64) (int, error) {
	a.RLock()
	defer a.RUnlock()

	if nil == a.db {
		return 0, fault.ErrNotInitialised
	}

	batch := new(leveldb.Batch)
	n := 0
	err := a.headers.scan(nil, func(key []byte, value []byte) bool {
		if binary.BigEndian.Uint64(key) >= below {
			return false
		}
		a.headers.delete(batch, key)
		n += 1
		return true
	})
	if nil != err {
		return 0, err
	}
	err = a.updates.scan(nil, func(key []byte, value []byte) bool {
		if binary.BigEndian.Uint64(key[len(key)-8:]) < below {
			a.updates.delete(batch, key)
		}
		return true
	})
	if nil != err {
		return 0, err
	}

	a.log.Infof("prune below slot: %d  slots: %d", below, n)
	return n, a.db.Write(batch, nil)
}
