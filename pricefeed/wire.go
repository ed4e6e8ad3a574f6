// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pricefeed

import (
	proto "github.com/gogo/protobuf/proto"
)

// BatchMessage - the upstream wire form of one slot
type BatchMessage struct {
	Slot      uint64   `protobuf:"varint,1,opt,name=slot,proto3" json:"slot,omitempty"`
	Timestamp int64    `protobuf:"varint,2,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
	Records   [][]byte `protobuf:"bytes,3,rep,name=records,proto3" json:"records,omitempty"`
}

func (m *BatchMessage) Reset()         { *m = BatchMessage{} }
func (m *BatchMessage) String() string { return proto.CompactTextString(m) }
func (*BatchMessage) ProtoMessage()    {}

// Update - a verifiable record as held in the cache
type Update struct {
	Record []byte `protobuf:"bytes,1,opt,name=record,proto3" json:"record"`
	Proof  []byte `protobuf:"bytes,2,opt,name=proof,proto3" json:"proof"`
	Slot   uint64 `protobuf:"varint,3,opt,name=slot,proto3" json:"slot"`
	Root   []byte `protobuf:"bytes,4,opt,name=root,proto3" json:"root"`
	Hasher string `protobuf:"bytes,5,opt,name=hasher,proto3" json:"hasher"`
	Time   int64  `protobuf:"varint,6,opt,name=time,proto3" json:"time"`
}

func (m *Update) Reset()         { *m = Update{} }
func (m *Update) String() string { return proto.CompactTextString(m) }
func (*Update) ProtoMessage()    {}

// PackBatch - encode records for a slot, as an upstream publisher does
func PackBatch(slot uint64, timestamp int64, records []*Record) ([]byte, error) {
	m := &BatchMessage{
		Slot:      slot,
		Timestamp: timestamp,
		Records:   make([][]byte, len(records)),
	}
	for i, r := range records {
		m.Records[i] = r.Pack()
	}
	return proto.Marshal(m)
}

// Pack - binary form of an update for storage
func (m *Update) Pack() ([]byte, error) {
	return proto.Marshal(m)
}

// UnpackUpdate - decode a stored update
func UnpackUpdate(buffer []byte) (*Update, error) {
	m := &Update{}
	if err := proto.Unmarshal(buffer, m); nil != err {
		return nil, err
	}
	return m, nil
}

// Message - one batch as delivered by the upstream feed
type Message struct {
	Slot uint64
	Raw  []byte
}
