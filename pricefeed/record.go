// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pricefeed

import (
	"encoding/binary"

	"github.com/bitmark-inc/pricecache/fault"
)

// message type of a packed price record
const priceMessageType = 0x00

// RecordLength - size of the canonical packed record
const RecordLength = 1 + FeedIDLength + 8 + 8 + 4 + 8 + 8 + 8 + 8

// Record - one price observation
type Record struct {
	ID              FeedID `json:"id"`
	Price           int64  `json:"price"`
	Confidence      uint64 `json:"confidence"`
	Exponent        int32  `json:"exponent"`
	PublishTime     int64  `json:"publishTime"`
	PrevPublishTime int64  `json:"prevPublishTime"`
	EMAPrice        int64  `json:"emaPrice"`
	EMAConfidence   uint64 `json:"emaConfidence"`
}

// Pack - canonical big endian form used as the Merkle leaf item
//
//   type(1) id(32) price(8) conf(8) exponent(4) publish(8)
//   prev_publish(8) ema_price(8) ema_conf(8)
func (record *Record) Pack() []byte {
	buffer := make([]byte, RecordLength)
	buffer[0] = priceMessageType
	n := 1
	n += copy(buffer[n:], record.ID[:])
	binary.BigEndian.PutUint64(buffer[n:], uint64(record.Price))
	n += 8
	binary.BigEndian.PutUint64(buffer[n:], record.Confidence)
	n += 8
	binary.BigEndian.PutUint32(buffer[n:], uint32(record.Exponent))
	n += 4
	binary.BigEndian.PutUint64(buffer[n:], uint64(record.PublishTime))
	n += 8
	binary.BigEndian.PutUint64(buffer[n:], uint64(record.PrevPublishTime))
	n += 8
	binary.BigEndian.PutUint64(buffer[n:], uint64(record.EMAPrice))
	n += 8
	binary.BigEndian.PutUint64(buffer[n:], record.EMAConfidence)
	return buffer
}

// UnpackRecord - decode the canonical form
func UnpackRecord(buffer []byte) (*Record, error) {
	if RecordLength != len(buffer) || priceMessageType != buffer[0] {
		return nil, fault.ErrInvalidPriceRecord
	}
	record := &Record{}
	n := 1
	n += copy(record.ID[:], buffer[n:n+FeedIDLength])
	record.Price = int64(binary.BigEndian.Uint64(buffer[n:]))
	n += 8
	record.Confidence = binary.BigEndian.Uint64(buffer[n:])
	n += 8
	record.Exponent = int32(binary.BigEndian.Uint32(buffer[n:]))
	n += 4
	record.PublishTime = int64(binary.BigEndian.Uint64(buffer[n:]))
	n += 8
	record.PrevPublishTime = int64(binary.BigEndian.Uint64(buffer[n:]))
	n += 8
	record.EMAPrice = int64(binary.BigEndian.Uint64(buffer[n:]))
	n += 8
	record.EMAConfidence = binary.BigEndian.Uint64(buffer[n:])

	if record.PublishTime < 0 || record.PrevPublishTime < 0 {
		return nil, fault.ErrInvalidPriceRecord
	}
	return record, nil
}
